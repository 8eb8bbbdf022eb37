package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jwalitptl/healthhub-client/internal/model"
)

const (
	loginPath    = "/api/auth/login"
	registerPath = "/api/auth/register"
	mePath       = "/api/auth/me"
)

// Doer is the part of the API client needed for auth calls.
type Doer interface {
	Do(ctx context.Context, method, path string, in, out interface{}) error
	DoPublic(ctx context.Context, method, path string, in, out interface{}) error
}

// Service talks to the backend auth endpoints. It holds no state; the
// session manager decides what to do with the results.
type Service struct {
	api Doer
}

func NewService(api Doer) *Service {
	return &Service{api: api}
}

func (s *Service) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	if err := s.api.DoPublic(ctx, http.MethodPost, loginPath, req, &resp); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return &resp, nil
}

func (s *Service) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	if req.Allergies == nil {
		req.Allergies = []string{}
	}
	if req.EmergencyContacts == nil {
		req.EmergencyContacts = []model.EmergencyContact{}
	}

	var resp model.AuthResponse
	if err := s.api.DoPublic(ctx, http.MethodPost, registerPath, req, &resp); err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	return &resp, nil
}

// Me fetches the profile of the token holder.
func (s *Service) Me(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := s.api.Do(ctx, http.MethodGet, mePath, nil, &u); err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return &u, nil
}
