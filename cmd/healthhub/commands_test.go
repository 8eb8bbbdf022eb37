package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/jwalitptl/healthhub-client/config"
	"github.com/jwalitptl/healthhub-client/internal/app"
	"github.com/jwalitptl/healthhub-client/internal/fakeapi/fakeapitest"
	"github.com/jwalitptl/healthhub-client/pkg/errors"
	"github.com/jwalitptl/healthhub-client/pkg/validator"
)

type harness struct {
	backend *fakeapitest.Backend
	cli     *cli
	out     *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	b := fakeapitest.New(t)
	cfg := &config.Config{
		API:     config.APIConfig{BaseURL: b.URL, Timeout: 5 * time.Second},
		Session: config.SessionConfig{Backend: config.BackendMemory},
		Log:     config.LogConfig{Level: "error"},
		Metrics: config.MetricsConfig{Namespace: "cli_test"},
	}

	var client app.Client
	a := fxtest.New(t, fx.Supply(cfg), app.Module, fx.NopLogger, app.Populate(&client))
	a.RequireStart()
	t.Cleanup(a.RequireStop)

	out := &bytes.Buffer{}
	return &harness{
		backend: b,
		out:     out,
		cli:     &cli{client: client, out: out, validate: validator.New(), now: b.Now},
	}
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	h.out.Reset()
	return h.cli.run(context.Background(), args)
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	h.backend.AddUser(t, "jane@example.com")
	require.NoError(t, h.run(t, "login", "-email", "jane@example.com", "-password", "secret1"))
}

func TestCLI_ValidationNeverReachesBackend(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		args []string
		msg  string
	}{
		{[]string{"login", "-email", "jane@example.com"}, "password is required"},
		{[]string{"login", "-email", "nope", "-password", "x"}, "email must be a valid email address"},
		{[]string{"register", "-name", "Jane", "-email", "jane@example.com", "-password", "abc", "-confirm", "abd"}, "confirm_password does not match"},
	}
	for _, tt := range tests {
		err := h.run(t, tt.args...)
		require.Error(t, err)
		assert.Equal(t, tt.msg, errors.Message(err))
	}
	assert.Equal(t, 0, h.backend.Server.RequestCount())
}

func TestCLI_SignedOutGuard(t *testing.T) {
	h := newHarness(t)

	err := h.run(t, "medicines", "list")
	assert.ErrorIs(t, err, errSignedOut)
	assert.Equal(t, 0, h.backend.Server.RequestCount())

	require.NoError(t, h.run(t, "whoami"))
	assert.Equal(t, "Not signed in\n", h.out.String())
}

func TestCLI_UnknownCommand(t *testing.T) {
	h := newHarness(t)
	assert.ErrorIs(t, h.run(t), errUsage)
	assert.ErrorIs(t, h.run(t, "fly"), errUsage)
}

func TestCLI_RegisterAndWhoami(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, "register", "-name", "Jane Doe", "-email", "jane@example.com",
		"-password", "secret1", "-confirm", "secret1", "-blood-type", "A+"))
	assert.Equal(t, "Welcome, Jane Doe\n", h.out.String())

	require.NoError(t, h.run(t, "whoami"))
	assert.Contains(t, h.out.String(), "Jane Doe <jane@example.com>")
	assert.Contains(t, h.out.String(), "Blood type: A+")
	assert.Contains(t, h.out.String(), "Token expires:")

	require.NoError(t, h.run(t, "logout"))
	require.NoError(t, h.run(t, "whoami"))
	assert.Equal(t, "Not signed in\n", h.out.String())
}

func TestCLI_MedicineLifecycle(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	require.NoError(t, h.run(t, "medicines", "list"))
	assert.Equal(t, "No medicines yet\n", h.out.String())

	require.NoError(t, h.run(t, "medicines", "add", "-name", "Aspirin", "-dosage", "100mg", "-stock", "30", "-expiry", "2025-03-20"))
	items := h.cli.client.Medicines.Items()
	require.Len(t, items, 1)
	id := items[0].ID

	before := h.backend.Server.RequestCount()
	err := h.run(t, "medicines", "update", id, "-frequency", "hourly")
	assert.Equal(t, "frequency is not a supported value", errors.Message(err))
	err = h.run(t, "medicines", "update", id)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
	assert.Equal(t, before, h.backend.Server.RequestCount())

	require.NoError(t, h.run(t, "medicines", "update", id, "-stock", "5"))
	assert.Contains(t, h.out.String(), "stock:     5")

	require.NoError(t, h.run(t, "medicines", "list"))
	assert.Contains(t, h.out.String(), "Aspirin")
	assert.Contains(t, h.out.String(), "2025-03-20")
	assert.Contains(t, h.out.String(), "Expiring Soon")

	require.NoError(t, h.run(t, "medicines", "add", "-name", "Old Syrup", "-dosage", "5ml", "-expiry", "2025-01-01"))
	old := h.cli.client.Medicines.Items()[1]
	require.NoError(t, h.run(t, "medicines", "show", old.ID))
	assert.Contains(t, h.out.String(), "status:    Expired")
	require.NoError(t, h.run(t, "medicines", "update", old.ID, "-clear-expiry"))
	assert.NotContains(t, h.out.String(), "expires:")
	assert.NotContains(t, h.out.String(), "status:")
	require.NoError(t, h.run(t, "medicines", "delete", old.ID))

	require.NoError(t, h.run(t, "analytics"))
	assert.Contains(t, h.out.String(), "Expiring soon:")

	err = h.run(t, "medicines", "delete", "missing")
	assert.Equal(t, "Medicine not found", errors.Message(err))

	require.NoError(t, h.run(t, "medicines", "delete", id))
	assert.Empty(t, h.cli.client.Medicines.Items())
}

func TestCLI_ScanImport(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	path := filepath.Join(t.TempDir(), "scan.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"medicines": [
			{"name": "Amoxicillin", "dosage": "250mg", "frequency": "three times a day"},
			{"name": "", "dosage": "1mg", "frequency": "daily"}
		],
		"confidence": 0.9
	}`), 0o600))

	require.NoError(t, h.run(t, "scan", "import", path))
	assert.Contains(t, h.out.String(), "Added Amoxicillin 250mg (three_times_daily)")
	assert.Contains(t, h.out.String(), "Could not add")

	image := filepath.Join(t.TempDir(), "rx.jpg")
	require.NoError(t, os.WriteFile(image, []byte{0xff, 0xd8}, 0o600))
	require.NoError(t, h.run(t, "scan", "image", image))
	assert.Contains(t, h.out.String(), "Added Lisinopril 10mg (once_daily)")
	assert.Len(t, h.cli.client.Medicines.Items(), 3)
}

func TestCLI_EmergencyCard(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	require.NoError(t, h.run(t, "medicines", "add", "-name", "Aspirin", "-dosage", "100mg"))

	require.NoError(t, h.run(t, "emergency"))
	out := h.out.String()
	assert.Contains(t, out, "Patient:     User jane@example.com")
	assert.Contains(t, out, "Blood type:  Unknown")
	assert.Contains(t, out, "Allergies:   None reported")
	assert.Contains(t, out, "Medications: Aspirin 100mg")
	assert.Contains(t, out, "Poison Control")
}

func TestCLI_FamilyAndRecords(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.backend.AddUser(t, "kin@example.com")

	err := h.run(t, "family", "invite", "kin")
	assert.Equal(t, "invitee_email must be a valid email address", errors.Message(err))

	require.NoError(t, h.run(t, "family", "invite", "kin@example.com"))
	assert.Contains(t, h.out.String(), "Added kin@example.com to family")
	assert.Contains(t, h.out.String(), "User kin@example.com")

	err = h.run(t, "records", "add", "-status", "taken")
	assert.Equal(t, "medicine_id is required", errors.Message(err))
	require.NoError(t, h.run(t, "records", "add", "-medicine", "m1", "-status", "missed", "-notes", "asleep"))
	require.NoError(t, h.run(t, "records", "list"))
	assert.Contains(t, h.out.String(), "asleep")
}

func TestCLI_SessionWatchNeedsChannel(t *testing.T) {
	h := newHarness(t)
	err := h.run(t, "session", "watch")
	assert.Equal(t, "session.channel is not configured", errors.Message(err))
}
