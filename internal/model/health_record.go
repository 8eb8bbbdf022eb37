package model

type DoseStatus string

const (
	DoseTaken   DoseStatus = "taken"
	DoseMissed  DoseStatus = "missed"
	DoseDelayed DoseStatus = "delayed"
)

func (s DoseStatus) Valid() bool {
	switch s {
	case DoseTaken, DoseMissed, DoseDelayed:
		return true
	}
	return false
}

// HealthRecord logs one dose event against a medicine
type HealthRecord struct {
	ID         string     `json:"id"`
	MedicineID string     `json:"medicine_id"`
	TakenAt    Timestamp  `json:"taken_at"`
	Status     DoseStatus `json:"status"`
	Notes      *string    `json:"notes,omitempty"`
	CreatedAt  Timestamp  `json:"created_at"`
}

// HealthRecordInput leaves TakenAt nil to let the server use "now"
type HealthRecordInput struct {
	MedicineID string     `json:"medicine_id"`
	Status     DoseStatus `json:"status"`
	Notes      *string    `json:"notes,omitempty"`
	TakenAt    *Timestamp `json:"taken_at,omitempty"`
}
