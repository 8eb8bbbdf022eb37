package family

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jwalitptl/healthhub-client/internal/model"
	"github.com/jwalitptl/healthhub-client/internal/service"
	"github.com/jwalitptl/healthhub-client/pkg/logger"
	"github.com/jwalitptl/healthhub-client/pkg/metrics"
)

const (
	membersPath = "/api/family/members"
	invitePath  = "/api/family/invite"
)

type Service struct {
	api     service.Requester
	members *service.Collection[model.FamilyMember]
	logger  *logger.Logger
}

func NewService(api service.Requester, log *logger.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = logger.Nop()
	}
	members := service.NewCollection(func(m model.FamilyMember) string { return m.ID })
	if m != nil {
		gauge := m.CollectionSize.WithLabelValues("family")
		members.OnChange(func(n int) { gauge.Set(float64(n)) })
	}
	return &Service{
		api:     api,
		members: members,
		logger:  log.With("family_service"),
	}
}

func (s *Service) FetchAll(ctx context.Context) ([]model.FamilyMember, error) {
	if s.members.Closed() {
		return nil, service.ErrClosed
	}
	done := s.members.Begin()
	defer done()

	var list []model.FamilyMember
	if err := s.api.Get(ctx, membersPath, &list); err != nil {
		return nil, fmt.Errorf("failed to fetch family members: %w", err)
	}
	if list == nil {
		list = []model.FamilyMember{}
	}
	s.members.Replace(list)
	return list, nil
}

// Invite sends an invitation and returns the server's message. On success
// the member list is refetched; a failed refetch is logged, not returned.
func (s *Service) Invite(ctx context.Context, email string) (string, error) {
	if s.members.Closed() {
		return "", service.ErrClosed
	}
	done := s.members.Begin()
	defer done()

	var resp model.MessageResponse
	if err := s.api.Post(ctx, invitePath, model.InviteRequest{InviteeEmail: email}, &resp); err != nil {
		return "", fmt.Errorf("failed to send invite: %w", err)
	}

	if _, err := s.FetchAll(ctx); err != nil && !stderrors.Is(err, service.ErrClosed) {
		s.logger.Warn("failed to refresh family after invite", "error", err.Error())
	}
	return resp.Message, nil
}

func (s *Service) Members() []model.FamilyMember {
	return s.members.Items()
}

func (s *Service) Busy() bool {
	return s.members.Busy()
}

func (s *Service) Close() {
	s.members.Close()
}
