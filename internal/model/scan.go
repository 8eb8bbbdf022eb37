package model

// ScannedMedicine is one line recognised on a prescription
type ScannedMedicine struct {
	Name         string  `json:"name"`
	Dosage       string  `json:"dosage"`
	Frequency    string  `json:"frequency"`
	Instructions *string `json:"instructions,omitempty"`
}

// ScanResult is what a prescription scanner reports for one image
type ScanResult struct {
	Medicines    []ScannedMedicine `json:"medicines"`
	Confidence   float64           `json:"confidence"`
	Practitioner *string           `json:"practitioner,omitempty"`
	Date         *Date             `json:"date,omitempty"`
}
