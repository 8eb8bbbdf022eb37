package scan

import (
	"context"
	"time"

	"github.com/jwalitptl/healthhub-client/internal/model"
	"github.com/jwalitptl/healthhub-client/pkg/errors"
)

// Scanner extracts medicines from a prescription image.
type Scanner interface {
	Scan(ctx context.Context, image []byte) (*model.ScanResult, error)
}

// ScannerFunc adapts a function to Scanner.
type ScannerFunc func(ctx context.Context, image []byte) (*model.ScanResult, error)

func (f ScannerFunc) Scan(ctx context.Context, image []byte) (*model.ScanResult, error) {
	return f(ctx, image)
}

// SampleDelay is how long the sample scanner pretends to work.
const SampleDelay = 2 * time.Second

// StaticScanner returns the same result for every non-empty image, after
// Delay if set.
type StaticScanner struct {
	Result model.ScanResult
	Delay  time.Duration
}

// NewSampleScanner returns a StaticScanner with a two-item prescription
// dated today.
func NewSampleScanner(now time.Time) *StaticScanner {
	morning := "Take with water, preferably in the morning"
	meals := "Take with meals"
	practitioner := "Dr. Sarah Johnson"
	date := model.NewDate(now.Year(), now.Month(), now.Day())

	return &StaticScanner{Result: model.ScanResult{
		Medicines: []model.ScannedMedicine{
			{Name: "Lisinopril", Dosage: "10mg", Frequency: "once_daily", Instructions: &morning},
			{Name: "Metformin", Dosage: "500mg", Frequency: "twice_daily", Instructions: &meals},
		},
		Confidence:   0.85,
		Practitioner: &practitioner,
		Date:         &date,
	}}
}

func (s *StaticScanner) Scan(ctx context.Context, image []byte) (*model.ScanResult, error) {
	if len(image) == 0 {
		return nil, errors.Validation("prescription image is empty", nil)
	}
	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, errors.Network(ctx.Err())
		}
	} else if err := ctx.Err(); err != nil {
		return nil, errors.Network(err)
	}

	out := s.Result
	out.Medicines = append([]model.ScannedMedicine(nil), s.Result.Medicines...)
	return &out, nil
}
