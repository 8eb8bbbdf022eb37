package medicine

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jwalitptl/healthhub-client/internal/model"
	"github.com/jwalitptl/healthhub-client/internal/service"
	"github.com/jwalitptl/healthhub-client/pkg/errors"
	"github.com/jwalitptl/healthhub-client/pkg/logger"
	"github.com/jwalitptl/healthhub-client/pkg/metrics"
)

const basePath = "/api/medicines"

type MedicineServicer interface {
	FetchAll(ctx context.Context) ([]model.Medicine, error)
	Fetch(ctx context.Context, id string) (*model.Medicine, error)
	Create(ctx context.Context, in model.MedicineInput) (*model.Medicine, error)
	Update(ctx context.Context, id string, patch model.MedicinePatch) (*model.Medicine, error)
	Delete(ctx context.Context, id string) error
	Items() []model.Medicine
	Lookup(id string) (model.Medicine, bool)
	Busy() bool
	Close()
}

// Service keeps the user's medicine cabinet in sync with the backend. The
// local list only changes after the server confirms a call.
type Service struct {
	api    service.Requester
	items  *service.Collection[model.Medicine]
	logger *logger.Logger
}

func NewService(api service.Requester, log *logger.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = logger.Nop()
	}
	items := service.NewCollection(func(m model.Medicine) string { return m.ID })
	if m != nil {
		gauge := m.CollectionSize.WithLabelValues("medicines")
		items.OnChange(func(n int) { gauge.Set(float64(n)) })
	}
	return &Service{
		api:    api,
		items:  items,
		logger: log.With("medicine_service"),
	}
}

func itemPath(id string) string {
	return basePath + "/" + url.PathEscape(id)
}

// FetchAll replaces the local list with the server's, in server order.
func (s *Service) FetchAll(ctx context.Context) ([]model.Medicine, error) {
	if s.items.Closed() {
		return nil, service.ErrClosed
	}
	done := s.items.Begin()
	defer done()

	var list []model.Medicine
	if err := s.api.Get(ctx, basePath, &list); err != nil {
		return nil, fmt.Errorf("failed to fetch medicines: %w", err)
	}
	if list == nil {
		list = []model.Medicine{}
	}
	if !s.items.Replace(list) {
		s.logger.Debug("discarding medicines fetched after close")
	}
	return list, nil
}

// Fetch loads one medicine and upserts it locally.
func (s *Service) Fetch(ctx context.Context, id string) (*model.Medicine, error) {
	if s.items.Closed() {
		return nil, service.ErrClosed
	}
	done := s.items.Begin()
	defer done()

	var m model.Medicine
	if err := s.api.Get(ctx, itemPath(id), &m); err != nil {
		return nil, fmt.Errorf("failed to fetch medicine: %w", err)
	}
	s.items.Upsert(m)
	return &m, nil
}

// Create posts a new medicine and appends the server's record. Category
// defaults to general and reminders to an empty list.
func (s *Service) Create(ctx context.Context, in model.MedicineInput) (*model.Medicine, error) {
	if s.items.Closed() {
		return nil, service.ErrClosed
	}
	if in.Category == "" {
		in.Category = model.CategoryGeneral
	}
	if in.Reminders == nil {
		in.Reminders = []model.Reminder{}
	}

	done := s.items.Begin()
	defer done()

	var m model.Medicine
	if err := s.api.Post(ctx, basePath, in, &m); err != nil {
		return nil, fmt.Errorf("failed to create medicine: %w", err)
	}
	s.items.Append(m)
	s.logger.Info("medicine created", "id", m.ID)
	return &m, nil
}

// Update sends only the changed fields and replaces the local record with
// the server's response. An id not held locally leaves the list unchanged.
func (s *Service) Update(ctx context.Context, id string, patch model.MedicinePatch) (*model.Medicine, error) {
	if s.items.Closed() {
		return nil, service.ErrClosed
	}
	if patch.Empty() {
		return nil, errors.Validation("nothing to update", nil)
	}

	done := s.items.Begin()
	defer done()

	var m model.Medicine
	if err := s.api.Put(ctx, itemPath(id), patch, &m); err != nil {
		return nil, fmt.Errorf("failed to update medicine: %w", err)
	}
	s.items.ReplaceByID(m)
	return &m, nil
}

// Delete removes the medicine on the server, then locally if present.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s.items.Closed() {
		return service.ErrClosed
	}
	done := s.items.Begin()
	defer done()

	if err := s.api.Delete(ctx, itemPath(id), nil); err != nil {
		return fmt.Errorf("failed to delete medicine: %w", err)
	}
	s.items.Remove(id)
	s.logger.Info("medicine deleted", "id", id)
	return nil
}

func (s *Service) Items() []model.Medicine {
	return s.items.Items()
}

func (s *Service) Lookup(id string) (model.Medicine, bool) {
	return s.items.Lookup(id)
}

func (s *Service) Busy() bool {
	return s.items.Busy()
}

// Close stops the service from applying any further results.
func (s *Service) Close() {
	s.items.Close()
}
