package tokenstore

import (
	"context"

	"github.com/jwalitptl/healthhub-client/pkg/metrics"
)

type instrumented struct {
	next    Store
	metrics *metrics.Metrics
	backend string
}

// Instrument counts operations and their outcome per backend.
func Instrument(next Store, m *metrics.Metrics, backend string) Store {
	if m == nil {
		return next
	}
	return &instrumented{next: next, metrics: m, backend: backend}
}

func (s *instrumented) observe(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.metrics.TokenStoreOperations.WithLabelValues(s.backend, op, status).Inc()
}

func (s *instrumented) Save(ctx context.Context, creds Credentials) error {
	err := s.next.Save(ctx, creds)
	s.observe("save", err)
	return err
}

func (s *instrumented) Load(ctx context.Context) (Credentials, bool, error) {
	creds, ok, err := s.next.Load(ctx)
	s.observe("load", err)
	return creds, ok, err
}

func (s *instrumented) Clear(ctx context.Context) error {
	err := s.next.Clear(ctx)
	s.observe("clear", err)
	return err
}

func (s *instrumented) Close() error {
	if c, ok := s.next.(Closer); ok {
		return c.Close()
	}
	return nil
}
