package scan_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/healthhub-client/internal/fakeapi/fakeapitest"
	"github.com/jwalitptl/healthhub-client/internal/model"
	"github.com/jwalitptl/healthhub-client/internal/service/medicine"
	"github.com/jwalitptl/healthhub-client/internal/service/scan"
	"github.com/jwalitptl/healthhub-client/pkg/errors"
)

func TestNormalizeFrequency(t *testing.T) {
	tests := map[string]model.Frequency{
		"once_daily":            model.FrequencyOnceDaily,
		"Once Daily":            model.FrequencyOnceDaily,
		"daily":                 model.FrequencyOnceDaily,
		"b.i.d":                 model.FrequencyTwiceDaily,
		"twice-a-day":           model.FrequencyTwiceDaily,
		"Three times daily":     model.FrequencyThreeTimesDaily,
		"QID":                   model.FrequencyFourTimesDaily,
		"weekly":                model.FrequencyWeekly,
		"PRN":                   model.FrequencyAsNeeded,
		"every other full moon": model.FrequencyAsNeeded,
		"":                      model.FrequencyAsNeeded,
	}
	for in, want := range tests {
		assert.Equal(t, want, scan.NormalizeFrequency(in), in)
	}
}

func TestSampleScanner(t *testing.T) {
	now := time.Date(2025, time.June, 2, 15, 0, 0, 0, time.UTC)
	s := scan.NewSampleScanner(now)

	_, err := s.Scan(context.Background(), nil)
	assert.True(t, errors.IsKind(err, errors.KindValidation))

	res, err := s.Scan(context.Background(), []byte("image"))
	require.NoError(t, err)
	require.Len(t, res.Medicines, 2)
	assert.Equal(t, "Lisinopril", res.Medicines[0].Name)
	assert.Equal(t, 0.85, res.Confidence)
	assert.Equal(t, "Dr. Sarah Johnson", *res.Practitioner)
	assert.Equal(t, "2025-06-02", res.Date.Format("2006-01-02"))

	res.Medicines[0].Name = "changed"
	again, err := s.Scan(context.Background(), []byte("image"))
	require.NoError(t, err)
	assert.Equal(t, "Lisinopril", again.Medicines[0].Name)
}

func TestStaticScanner_DelayHonoursContext(t *testing.T) {
	s := scan.NewSampleScanner(time.Now())
	s.Delay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := s.Scan(ctx, []byte("image"))
	assert.True(t, errors.IsKind(err, errors.KindNetwork))

	s.Delay = time.Millisecond
	res, err := s.Scan(context.Background(), []byte("image"))
	require.NoError(t, err)
	assert.Len(t, res.Medicines, 2)
}

func TestImporter_ImportAllAgainstBackend(t *testing.T) {
	b := fakeapitest.New(t)
	b.SignUp(t, "owner@example.com")
	meds := medicine.NewService(b.Client, nil, nil)

	res, err := scan.NewSampleScanner(fakeapitest.Epoch).Scan(context.Background(), []byte("image"))
	require.NoError(t, err)

	report, err := scan.NewImporter(meds).ImportAll(context.Background(), res)
	require.NoError(t, err)
	assert.Empty(t, report.Failed)
	require.Len(t, report.Created, 2)

	items := meds.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Lisinopril", items[0].Name)
	assert.Equal(t, model.FrequencyTwiceDaily, items[1].Frequency)
	assert.Equal(t, 0, items[1].StockQuantity)
	assert.Equal(t, model.CategoryGeneral, items[1].Category)
	assert.Equal(t, "Take with meals", *items[1].Instructions)
}

func TestScannerFunc(t *testing.T) {
	var got []byte
	var s scan.Scanner = scan.ScannerFunc(func(_ context.Context, image []byte) (*model.ScanResult, error) {
		got = image
		return &model.ScanResult{Confidence: 1}, nil
	})

	res, err := s.Scan(context.Background(), []byte("rx"))
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Equal(t, []byte("rx"), got)
}

func TestImporter_ReportsPerItemFailures(t *testing.T) {
	b := fakeapitest.New(t)
	b.SignUp(t, "owner@example.com")
	meds := medicine.NewService(b.Client, nil, nil)

	b.Server.BeforeHandle(func(r *http.Request) {
		if r.Method == http.MethodPost && b.Server.RequestCount() == 1 {
			b.Server.FailNext(http.StatusServiceUnavailable, "busy")
		}
	})

	res := &model.ScanResult{
		Confidence: 0.9,
		Medicines: []model.ScannedMedicine{
			{Name: "Amoxicillin", Dosage: "250mg", Frequency: "tid"},
			{Name: "", Dosage: "5mg", Frequency: "daily"},
			{Name: "Ibuprofen", Dosage: "200mg", Frequency: "prn"},
			{Name: "Atorvastatin", Dosage: "20mg", Frequency: "once_daily"},
		},
	}

	report, err := scan.NewImporter(meds).ImportAll(context.Background(), res)
	require.NoError(t, err)

	require.Len(t, report.Failed, 2)
	assert.True(t, errors.IsKind(report.Failed[0].Err, errors.KindValidation))
	assert.Equal(t, "Ibuprofen", report.Failed[1].Name)
	assert.Equal(t, http.StatusServiceUnavailable, errors.StatusOf(report.Failed[1].Err))

	require.Len(t, report.Created, 2)
	assert.Equal(t, model.FrequencyThreeTimesDaily, report.Created[0].Frequency)
	assert.Equal(t, "Atorvastatin", report.Created[1].Name)
	assert.Len(t, meds.Items(), 2)
}

type recordingCreator struct {
	inputs []model.MedicineInput
}

func (r *recordingCreator) Create(_ context.Context, in model.MedicineInput) (*model.Medicine, error) {
	r.inputs = append(r.inputs, in)
	return &model.Medicine{ID: in.Name, Name: in.Name}, nil
}

func TestImporter_Rejections(t *testing.T) {
	creator := &recordingCreator{}
	imp := scan.NewImporter(creator, scan.WithMinConfidence(0.8))

	_, err := imp.ImportAll(context.Background(), nil)
	assert.True(t, errors.IsKind(err, errors.KindValidation))

	_, err = imp.ImportAll(context.Background(), &model.ScanResult{Confidence: 0.9})
	assert.Equal(t, "no medicines found in scan", errors.Message(err))

	_, err = imp.ImportAll(context.Background(), &model.ScanResult{
		Confidence: 0.5,
		Medicines:  []model.ScannedMedicine{{Name: "A", Dosage: "1", Frequency: "daily"}},
	})
	assert.Equal(t, "scan confidence 50% is too low", errors.Message(err))
	assert.Empty(t, creator.inputs)
}

func TestImporter_CancelledContext(t *testing.T) {
	creator := &recordingCreator{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := scan.NewImporter(creator).ImportAll(ctx, &model.ScanResult{
		Medicines: []model.ScannedMedicine{{Name: "A", Dosage: "1"}, {Name: "B", Dosage: "2"}},
	})
	require.NoError(t, err)
	assert.Len(t, report.Failed, 2)
	assert.True(t, errors.IsKind(report.Failed[0].Err, errors.KindNetwork))
	assert.Empty(t, creator.inputs)
}
