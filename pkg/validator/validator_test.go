package validator_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/healthhub-client/internal/model"
	"github.com/jwalitptl/healthhub-client/pkg/errors"
	"github.com/jwalitptl/healthhub-client/pkg/validator"
)

func TestValidate_RegisterForm(t *testing.T) {
	v := validator.New()

	tests := []struct {
		name      string
		form      model.RegisterForm
		wantField string
	}{
		{
			name:      "missing name",
			form:      model.RegisterForm{Email: "a@b.com", Password: "secret1", ConfirmPassword: "secret1"},
			wantField: "full_name",
		},
		{
			name:      "mismatch reported before length",
			form:      model.RegisterForm{FullName: "Ann", Email: "a@b.com", Password: "abc", ConfirmPassword: "abd"},
			wantField: "confirm_password",
		},
		{
			name:      "short password",
			form:      model.RegisterForm{FullName: "Ann", Email: "a@b.com", Password: "abc", ConfirmPassword: "abc"},
			wantField: "password",
		},
		{
			name:      "unknown blood type",
			form:      model.RegisterForm{FullName: "Ann", Email: "a@b.com", Password: "secret1", ConfirmPassword: "secret1", BloodType: "C+"},
			wantField: "blood_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.form)
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, errors.KindValidation))

			var fields validator.FieldErrors
			require.True(t, stderrors.As(err, &fields))
			assert.Equal(t, tt.wantField, fields[0].Field)
		})
	}
}

func TestValidate_ShortPasswordMessage(t *testing.T) {
	err := validator.New().Validate(model.RegisterForm{
		FullName: "Ann", Email: "a@b.com", Password: "abc", ConfirmPassword: "abc",
	})
	assert.Equal(t, "password must be at least 6 characters long", errors.Message(err))
}

func TestValidate_ValidForms(t *testing.T) {
	v := validator.New()

	assert.NoError(t, v.Validate(model.LoginForm{Email: "a@b.com", Password: "x"}))
	assert.NoError(t, v.Validate(model.RegisterForm{
		FullName: "Ann", Email: "a@b.com", Password: "secret1", ConfirmPassword: "secret1", BloodType: "AB-",
	}))
	assert.NoError(t, v.Validate(model.MedicineForm{
		Name: "Aspirin", Dosage: "100mg", Frequency: "once_daily", StockQuantity: 30, ExpiryDate: "2026-01-31",
	}))
	assert.NoError(t, v.Validate(model.InviteForm{Email: "kin@example.com"}))
}

func TestValidate_MedicineForm(t *testing.T) {
	v := validator.New()

	err := v.Validate(model.MedicineForm{Name: "Aspirin", Frequency: "hourly", StockQuantity: -1})
	require.Error(t, err)

	var fields validator.FieldErrors
	require.True(t, stderrors.As(err, &fields))
	assert.Equal(t, "dosage", fields[0].Field)
	assert.Len(t, fields, 3)
}

func TestValidate_InviteRequiresEmail(t *testing.T) {
	err := validator.New().Validate(model.InviteForm{Email: "not-an-email"})
	assert.Equal(t, "invitee_email must be a valid email address", errors.Message(err))
}
