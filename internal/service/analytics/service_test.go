package analytics_test

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/healthhub-client/internal/fakeapi/fakeapitest"
	"github.com/jwalitptl/healthhub-client/internal/model"
	"github.com/jwalitptl/healthhub-client/internal/service"
	"github.com/jwalitptl/healthhub-client/internal/service/analytics"
	"github.com/jwalitptl/healthhub-client/internal/service/medicine"
	"github.com/jwalitptl/healthhub-client/internal/service/record"
	"github.com/jwalitptl/healthhub-client/pkg/errors"
)

func expiring(in time.Duration) *model.Date {
	t := fakeapitest.Epoch.Add(in)
	d := model.NewDate(t.Year(), t.Month(), t.Day())
	return &d
}

func TestService_RefreshAgainstBackend(t *testing.T) {
	b := fakeapitest.New(t)
	b.SignUp(t, "owner@example.com")
	ctx := context.Background()

	meds := medicine.NewService(b.Client, nil, nil)
	for _, in := range []model.MedicineInput{
		{Name: "Later", Dosage: "1", Frequency: model.FrequencyOnceDaily, ExpiryDate: expiring(20 * 24 * time.Hour)},
		{Name: "Soon", Dosage: "1", Frequency: model.FrequencyOnceDaily, ExpiryDate: expiring(3 * 24 * time.Hour)},
		{Name: "Far", Dosage: "1", Frequency: model.FrequencyOnceDaily, ExpiryDate: expiring(90 * 24 * time.Hour)},
		{Name: "Never", Dosage: "1", Frequency: model.FrequencyOnceDaily},
	} {
		_, err := meds.Create(ctx, in)
		require.NoError(t, err)
	}

	records := record.NewService(b.Client, nil, nil)
	for _, status := range []model.DoseStatus{model.DoseTaken, model.DoseTaken, model.DoseMissed} {
		_, err := records.Create(ctx, model.HealthRecordInput{MedicineID: "x", Status: status})
		require.NoError(t, err)
	}

	svc := analytics.NewService(b.Client, nil)
	assert.Nil(t, svc.Adherence())
	require.NoError(t, svc.Refresh(ctx))

	stats := svc.Adherence()
	require.NotNil(t, stats)
	assert.Equal(t, 3, stats.TotalDoses)
	assert.Equal(t, 2, stats.TakenDoses)
	assert.Equal(t, 1, stats.MissedDoses)
	assert.Equal(t, 66.7, stats.AdherenceRate)
	assert.Equal(t, 30, stats.PeriodDays)
	assert.Equal(t, model.AdherencePoor, stats.Level())

	names := []string{}
	for _, m := range svc.UpcomingExpiries() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"Soon", "Later"}, names)
}

// stubAPI answers GETs from a path-keyed table of funcs.
type stubAPI struct {
	service.Requester
	get map[string]func(out interface{}) error
}

func (s *stubAPI) Get(_ context.Context, path string, out interface{}) error {
	return s.get[path](out)
}

func TestService_PartialFailureKeepsPreviousValue(t *testing.T) {
	failAdherence := false
	api := &stubAPI{get: map[string]func(interface{}) error{
		"/api/analytics/adherence": func(out interface{}) error {
			if failAdherence {
				return errors.HTTP(http.StatusInternalServerError, "stats offline")
			}
			*out.(*model.AdherenceStats) = model.AdherenceStats{AdherenceRate: 95, TotalDoses: 20, TakenDoses: 19, MissedDoses: 1, PeriodDays: 30}
			return nil
		},
		"/api/analytics/upcoming-expiries": func(out interface{}) error {
			d := model.NewDate(2025, time.March, 12)
			*out.(*[]model.ExpiringMedicine) = []model.ExpiringMedicine{{ID: "m1", Name: "Aspirin", ExpiryDate: &d}}
			return nil
		},
	}}

	svc := analytics.NewService(api, nil)
	require.NoError(t, svc.Refresh(context.Background()))
	assert.Equal(t, model.AdherenceGood, svc.Adherence().Level())

	failAdherence = true
	err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, errors.StatusOf(err))
	assert.True(t, strings.Contains(err.Error(), "failed to fetch adherence"))

	assert.Equal(t, 95.0, svc.Adherence().AdherenceRate)
	require.Len(t, svc.UpcomingExpiries(), 1)
	assert.Equal(t, "Aspirin", svc.UpcomingExpiries()[0].Name)
}

func TestService_AdherenceIsACopy(t *testing.T) {
	api := &stubAPI{get: map[string]func(interface{}) error{
		"/api/analytics/adherence": func(out interface{}) error {
			*out.(*model.AdherenceStats) = model.AdherenceStats{AdherenceRate: 80}
			return nil
		},
	}}
	svc := analytics.NewService(api, nil)

	got, err := svc.FetchAdherence(context.Background())
	require.NoError(t, err)
	got.AdherenceRate = 0
	assert.Equal(t, 80.0, svc.Adherence().AdherenceRate)
}

func TestService_Closed(t *testing.T) {
	svc := analytics.NewService(&stubAPI{}, nil)
	svc.Close()

	err := svc.Refresh(context.Background())
	assert.True(t, stderrors.Is(err, service.ErrClosed))
	assert.Nil(t, svc.Adherence())
}
