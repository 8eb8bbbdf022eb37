package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// Frequency is how often a medicine is taken
type Frequency string

const (
	FrequencyOnceDaily       Frequency = "once_daily"
	FrequencyTwiceDaily      Frequency = "twice_daily"
	FrequencyThreeTimesDaily Frequency = "three_times_daily"
	FrequencyFourTimesDaily  Frequency = "four_times_daily"
	FrequencyWeekly          Frequency = "weekly"
	FrequencyAsNeeded        Frequency = "as_needed"
)

// Frequencies lists every accepted frequency in display order.
var Frequencies = []Frequency{
	FrequencyOnceDaily,
	FrequencyTwiceDaily,
	FrequencyThreeTimesDaily,
	FrequencyFourTimesDaily,
	FrequencyWeekly,
	FrequencyAsNeeded,
}

func (f Frequency) Valid() bool {
	for _, v := range Frequencies {
		if f == v {
			return true
		}
	}
	return false
}

// Category groups medicines for display
type Category string

const (
	CategoryGeneral       Category = "general"
	CategoryPainRelief    Category = "pain_relief"
	CategoryAntibiotics   Category = "antibiotics"
	CategoryVitamins      Category = "vitamins"
	CategoryHeart         Category = "heart"
	CategoryDiabetes      Category = "diabetes"
	CategoryBloodPressure Category = "blood_pressure"
	CategoryOther         Category = "other"
)

var Categories = []Category{
	CategoryGeneral,
	CategoryPainRelief,
	CategoryAntibiotics,
	CategoryVitamins,
	CategoryHeart,
	CategoryDiabetes,
	CategoryBloodPressure,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Reminder is a time of day ("08:00") at which a dose is due
type Reminder struct {
	Time    string `json:"time"`
	Enabled bool   `json:"enabled"`
}

// Medicine is a server-owned record in the user's cabinet
type Medicine struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Dosage            string     `json:"dosage"`
	Frequency         Frequency  `json:"frequency"`
	Instructions      *string    `json:"instructions,omitempty"`
	StockQuantity     int        `json:"stock_quantity"`
	ExpiryDate        *Date      `json:"expiry_date,omitempty"`
	Category          Category   `json:"category"`
	PrescriptionImage *string    `json:"prescription_image,omitempty"`
	Reminders         []Reminder `json:"reminders"`
	CreatedAt         Timestamp  `json:"created_at"`
	UpdatedAt         Timestamp  `json:"updated_at"`
}

// ExpiryStatus is the badge shown next to a medicine
type ExpiryStatus string

const (
	ExpiryNone     ExpiryStatus = "none"
	ExpiryOK       ExpiryStatus = "ok"
	ExpiryExpiring ExpiryStatus = "expiring"
	ExpiryExpired  ExpiryStatus = "expired"
)

// ExpiryWindow is how far ahead a medicine counts as expiring.
const ExpiryWindow = 30 * 24 * time.Hour

// ExpiryStatus classifies the expiry date against now. The date is taken
// as midnight UTC, so a medicine is expired from the start of that day.
func (m Medicine) ExpiryStatus(now time.Time) ExpiryStatus {
	if m.ExpiryDate == nil || m.ExpiryDate.IsZero() {
		return ExpiryNone
	}
	exp := m.ExpiryDate.Time
	switch {
	case now.After(exp):
		return ExpiryExpired
	case now.Add(ExpiryWindow).After(exp):
		return ExpiryExpiring
	default:
		return ExpiryOK
	}
}

// MedicineInput is the create body; the server assigns id and timestamps
type MedicineInput struct {
	Name              string     `json:"name"`
	Dosage            string     `json:"dosage"`
	Frequency         Frequency  `json:"frequency"`
	Instructions      *string    `json:"instructions,omitempty"`
	StockQuantity     int        `json:"stock_quantity"`
	ExpiryDate        *Date      `json:"expiry_date,omitempty"`
	Category          Category   `json:"category,omitempty"`
	PrescriptionImage *string    `json:"prescription_image,omitempty"`
	Reminders         []Reminder `json:"reminders"`
}

// MedicinePatch carries only the fields being changed. A nil field is left
// as is; the Clear flags send an explicit null to remove an optional value.
type MedicinePatch struct {
	Name              *string     `json:"name,omitempty"`
	Dosage            *string     `json:"dosage,omitempty"`
	Frequency         *Frequency  `json:"frequency,omitempty"`
	Instructions      *string     `json:"instructions,omitempty"`
	StockQuantity     *int        `json:"stock_quantity,omitempty"`
	ExpiryDate        *Date       `json:"expiry_date,omitempty"`
	Category          *Category   `json:"category,omitempty"`
	PrescriptionImage *string     `json:"prescription_image,omitempty"`
	Reminders         *[]Reminder `json:"reminders,omitempty"`

	ClearInstructions      bool `json:"-"`
	ClearExpiryDate        bool `json:"-"`
	ClearPrescriptionImage bool `json:"-"`
}

// nullable lists the optional fields a patch may clear.
func (p *MedicinePatch) nullable() map[string]*bool {
	return map[string]*bool{
		"instructions":       &p.ClearInstructions,
		"expiry_date":        &p.ClearExpiryDate,
		"prescription_image": &p.ClearPrescriptionImage,
	}
}

func (p MedicinePatch) MarshalJSON() ([]byte, error) {
	type plain MedicinePatch
	b, err := json.Marshal(plain(p))
	if err != nil || !(p.ClearInstructions || p.ClearExpiryDate || p.ClearPrescriptionImage) {
		return b, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	for key, clear := range p.nullable() {
		if *clear {
			fields[key] = json.RawMessage("null")
		}
	}
	return json.Marshal(fields)
}

// UnmarshalJSON sets the Clear flags for optional fields sent as null.
func (p *MedicinePatch) UnmarshalJSON(data []byte) error {
	type plain MedicinePatch
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*p = MedicinePatch(out)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for key, clear := range p.nullable() {
		if raw, ok := fields[key]; ok && bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			*clear = true
		}
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p MedicinePatch) Empty() bool {
	return p == MedicinePatch{}
}

// Apply returns m with the patch applied. The server does the same on PUT.
func (p MedicinePatch) Apply(m Medicine) Medicine {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Dosage != nil {
		m.Dosage = *p.Dosage
	}
	if p.Frequency != nil {
		m.Frequency = *p.Frequency
	}
	if p.Instructions != nil {
		v := *p.Instructions
		m.Instructions = &v
	} else if p.ClearInstructions {
		m.Instructions = nil
	}
	if p.StockQuantity != nil {
		m.StockQuantity = *p.StockQuantity
	}
	if p.ExpiryDate != nil {
		v := *p.ExpiryDate
		m.ExpiryDate = &v
	} else if p.ClearExpiryDate {
		m.ExpiryDate = nil
	}
	if p.Category != nil {
		m.Category = *p.Category
	}
	if p.PrescriptionImage != nil {
		v := *p.PrescriptionImage
		m.PrescriptionImage = &v
	} else if p.ClearPrescriptionImage {
		m.PrescriptionImage = nil
	}
	if p.Reminders != nil {
		m.Reminders = append([]Reminder(nil), (*p.Reminders)...)
	}
	return m
}

// ExpiringMedicine is the subset shown in the expiry analytics
type ExpiringMedicine struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ExpiryDate    *Date  `json:"expiry_date,omitempty"`
	StockQuantity int    `json:"stock_quantity"`
}
