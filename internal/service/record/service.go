package record

import (
	"context"
	"fmt"

	"github.com/jwalitptl/healthhub-client/internal/model"
	"github.com/jwalitptl/healthhub-client/internal/service"
	"github.com/jwalitptl/healthhub-client/pkg/logger"
	"github.com/jwalitptl/healthhub-client/pkg/metrics"
)

const basePath = "/api/health-records"

// Service tracks dose history, newest first like the server returns it.
type Service struct {
	api     service.Requester
	records *service.Collection[model.HealthRecord]
	logger  *logger.Logger
}

func NewService(api service.Requester, log *logger.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = logger.Nop()
	}
	records := service.NewCollection(func(r model.HealthRecord) string { return r.ID })
	if m != nil {
		gauge := m.CollectionSize.WithLabelValues("health_records")
		records.OnChange(func(n int) { gauge.Set(float64(n)) })
	}
	return &Service{
		api:     api,
		records: records,
		logger:  log.With("record_service"),
	}
}

func (s *Service) FetchAll(ctx context.Context) ([]model.HealthRecord, error) {
	if s.records.Closed() {
		return nil, service.ErrClosed
	}
	done := s.records.Begin()
	defer done()

	var list []model.HealthRecord
	if err := s.api.Get(ctx, basePath, &list); err != nil {
		return nil, fmt.Errorf("failed to fetch health records: %w", err)
	}
	if list == nil {
		list = []model.HealthRecord{}
	}
	s.records.Replace(list)
	return list, nil
}

// Create logs a dose and inserts the server record keeping taken_at
// descending order.
func (s *Service) Create(ctx context.Context, in model.HealthRecordInput) (*model.HealthRecord, error) {
	if s.records.Closed() {
		return nil, service.ErrClosed
	}
	done := s.records.Begin()
	defer done()

	var r model.HealthRecord
	if err := s.api.Post(ctx, basePath, in, &r); err != nil {
		return nil, fmt.Errorf("failed to log dose: %w", err)
	}
	s.records.InsertBefore(r, func(existing model.HealthRecord) bool {
		return existing.TakenAt.Before(r.TakenAt.Time)
	})
	return &r, nil
}

func (s *Service) Items() []model.HealthRecord {
	return s.records.Items()
}

func (s *Service) Busy() bool {
	return s.records.Busy()
}

func (s *Service) Close() {
	s.records.Close()
}
