package analytics

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/jwalitptl/healthhub-client/internal/model"
	"github.com/jwalitptl/healthhub-client/internal/service"
	"github.com/jwalitptl/healthhub-client/pkg/logger"
)

const (
	adherencePath = "/api/analytics/adherence"
	expiriesPath  = "/api/analytics/upcoming-expiries"
)

// Service holds the last good analytics snapshot. Both parts are fetched
// independently and each keeps its previous value on failure.
type Service struct {
	api      service.Requester
	expiries *service.Collection[model.ExpiringMedicine]
	logger   *logger.Logger

	mu        sync.RWMutex
	adherence *model.AdherenceStats
}

func NewService(api service.Requester, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		api:      api,
		expiries: service.NewCollection(func(m model.ExpiringMedicine) string { return m.ID }),
		logger:   log.With("analytics_service"),
	}
}

func (s *Service) FetchAdherence(ctx context.Context) (*model.AdherenceStats, error) {
	if s.expiries.Closed() {
		return nil, service.ErrClosed
	}
	done := s.expiries.Begin()
	defer done()

	var stats model.AdherenceStats
	if err := s.api.Get(ctx, adherencePath, &stats); err != nil {
		return nil, fmt.Errorf("failed to fetch adherence: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expiries.Closed() {
		return &stats, nil
	}
	s.adherence = &stats
	out := stats
	return &out, nil
}

func (s *Service) FetchUpcomingExpiries(ctx context.Context) ([]model.ExpiringMedicine, error) {
	if s.expiries.Closed() {
		return nil, service.ErrClosed
	}
	done := s.expiries.Begin()
	defer done()

	var list []model.ExpiringMedicine
	if err := s.api.Get(ctx, expiriesPath, &list); err != nil {
		return nil, fmt.Errorf("failed to fetch upcoming expiries: %w", err)
	}
	if list == nil {
		list = []model.ExpiringMedicine{}
	}
	s.expiries.Replace(list)
	return list, nil
}

// Refresh fetches both parts concurrently. Either may fail without
// affecting the other; the errors are joined.
func (s *Service) Refresh(ctx context.Context) error {
	var wg sync.WaitGroup
	var adherenceErr, expiriesErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, adherenceErr = s.FetchAdherence(ctx)
	}()
	go func() {
		defer wg.Done()
		_, expiriesErr = s.FetchUpcomingExpiries(ctx)
	}()
	wg.Wait()

	if err := stderrors.Join(adherenceErr, expiriesErr); err != nil {
		s.logger.Debug("analytics refresh incomplete", "error", err.Error())
		return err
	}
	return nil
}

// Adherence returns the last fetched stats, or nil before the first success.
func (s *Service) Adherence() *model.AdherenceStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.adherence == nil {
		return nil
	}
	out := *s.adherence
	return &out
}

func (s *Service) UpcomingExpiries() []model.ExpiringMedicine {
	return s.expiries.Items()
}

func (s *Service) Busy() bool {
	return s.expiries.Busy()
}

func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiries.Close()
}
