package scan

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwalitptl/healthhub-client/internal/model"
	"github.com/jwalitptl/healthhub-client/pkg/errors"
	"github.com/jwalitptl/healthhub-client/pkg/logger"
)

// Creator is the part of the medicine service the importer needs.
type Creator interface {
	Create(ctx context.Context, in model.MedicineInput) (*model.Medicine, error)
}

type Failure struct {
	Name string
	Err  error
}

type Report struct {
	Created []model.Medicine
	Failed  []Failure
}

type Importer struct {
	medicines     Creator
	logger        *logger.Logger
	minConfidence float64
}

type Option func(*Importer)

// WithMinConfidence rejects scans reporting less than min (0..1).
func WithMinConfidence(min float64) Option {
	return func(i *Importer) {
		i.minConfidence = min
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(i *Importer) {
		if l != nil {
			i.logger = l.With("scan_importer")
		}
	}
}

func NewImporter(medicines Creator, opts ...Option) *Importer {
	i := &Importer{medicines: medicines, logger: logger.Nop()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Input converts one scanned line into a create body with zero stock.
func Input(m model.ScannedMedicine) (model.MedicineInput, error) {
	name := strings.TrimSpace(m.Name)
	dosage := strings.TrimSpace(m.Dosage)
	if name == "" || dosage == "" {
		return model.MedicineInput{}, errors.Validation("scanned medicine is missing name or dosage", nil)
	}
	return model.MedicineInput{
		Name:          name,
		Dosage:        dosage,
		Frequency:     NormalizeFrequency(m.Frequency),
		Instructions:  m.Instructions,
		StockQuantity: 0,
		Category:      model.CategoryGeneral,
		Reminders:     []model.Reminder{},
	}, nil
}

// ImportAll creates every scanned medicine in order. Per-item failures are
// collected in the report; the error is only set when nothing could be tried.
func (i *Importer) ImportAll(ctx context.Context, result *model.ScanResult) (*Report, error) {
	if result == nil || len(result.Medicines) == 0 {
		return nil, errors.Validation("no medicines found in scan", nil)
	}
	if result.Confidence < i.minConfidence {
		return nil, errors.Validation(fmt.Sprintf("scan confidence %.0f%% is too low", result.Confidence*100), nil)
	}

	report := &Report{}
	for _, scanned := range result.Medicines {
		if err := ctx.Err(); err != nil {
			report.Failed = append(report.Failed, Failure{Name: scanned.Name, Err: errors.Network(err)})
			continue
		}

		in, err := Input(scanned)
		if err != nil {
			report.Failed = append(report.Failed, Failure{Name: scanned.Name, Err: err})
			continue
		}

		m, err := i.medicines.Create(ctx, in)
		if err != nil {
			i.logger.Warn("failed to import scanned medicine", "name", in.Name, "error", err.Error())
			report.Failed = append(report.Failed, Failure{Name: in.Name, Err: err})
			continue
		}
		report.Created = append(report.Created, *m)
	}
	return report, nil
}

var frequencyAliases = map[string]model.Frequency{
	"daily":             model.FrequencyOnceDaily,
	"once_a_day":        model.FrequencyOnceDaily,
	"qd":                model.FrequencyOnceDaily,
	"od":                model.FrequencyOnceDaily,
	"twice_a_day":       model.FrequencyTwiceDaily,
	"bid":               model.FrequencyTwiceDaily,
	"three_times_a_day": model.FrequencyThreeTimesDaily,
	"tid":               model.FrequencyThreeTimesDaily,
	"four_times_a_day":  model.FrequencyFourTimesDaily,
	"qid":               model.FrequencyFourTimesDaily,
	"once_a_week":       model.FrequencyWeekly,
	"prn":               model.FrequencyAsNeeded,
	"when_needed":       model.FrequencyAsNeeded,
}

// NormalizeFrequency maps free text from a scan onto a known frequency.
// Anything unrecognised becomes as_needed.
func NormalizeFrequency(s string) model.Frequency {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_", ".", "").Replace(key)

	if f := model.Frequency(key); f.Valid() {
		return f
	}
	if f, ok := frequencyAliases[key]; ok {
		return f
	}
	return model.FrequencyAsNeeded
}
