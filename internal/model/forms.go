package model

import (
	"strings"
)

// Forms hold raw user input as typed by the user. They are validated with
// pkg/validator before being turned into request bodies.

type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterForm struct {
	FullName        string `json:"full_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
	Phone           string `json:"phone"`
	BloodType       string `json:"blood_type" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
}

// Request trims the form into the registration body.
func (f RegisterForm) Request() RegisterRequest {
	req := RegisterRequest{
		FullName:          strings.TrimSpace(f.FullName),
		Email:             strings.TrimSpace(f.Email),
		Password:          f.Password,
		Phone:             strings.TrimSpace(f.Phone),
		Allergies:         []string{},
		EmergencyContacts: []EmergencyContact{},
	}
	if bt := strings.TrimSpace(f.BloodType); bt != "" {
		req.BloodType = &bt
	}
	return req
}

type MedicineForm struct {
	Name          string `json:"name" validate:"required"`
	Dosage        string `json:"dosage" validate:"required"`
	Frequency     string `json:"frequency" validate:"required,oneof=once_daily twice_daily three_times_daily four_times_daily weekly as_needed"`
	Instructions  string `json:"instructions"`
	StockQuantity int    `json:"stock_quantity" validate:"gte=0"`
	ExpiryDate    string `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	Category      string `json:"category" validate:"omitempty,oneof=general pain_relief antibiotics vitamins heart diabetes blood_pressure other"`
}

// Input converts a validated form into a create body.
func (f MedicineForm) Input() (MedicineInput, error) {
	in := MedicineInput{
		Name:          strings.TrimSpace(f.Name),
		Dosage:        strings.TrimSpace(f.Dosage),
		Frequency:     Frequency(f.Frequency),
		StockQuantity: f.StockQuantity,
		Category:      Category(f.Category),
		Reminders:     []Reminder{},
	}
	if v := strings.TrimSpace(f.Instructions); v != "" {
		in.Instructions = &v
	}
	if f.ExpiryDate != "" {
		d, err := ParseDate(f.ExpiryDate)
		if err != nil {
			return MedicineInput{}, err
		}
		in.ExpiryDate = &d
	}
	return in, nil
}

type InviteForm struct {
	Email string `json:"invitee_email" validate:"required,email"`
}

type HealthRecordForm struct {
	MedicineID string `json:"medicine_id" validate:"required"`
	Status     string `json:"status" validate:"required,oneof=taken missed delayed"`
	Notes      string `json:"notes"`
}

func (f HealthRecordForm) Input() HealthRecordInput {
	in := HealthRecordInput{
		MedicineID: f.MedicineID,
		Status:     DoseStatus(f.Status),
	}
	if v := strings.TrimSpace(f.Notes); v != "" {
		in.Notes = &v
	}
	return in
}
