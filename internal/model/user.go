package model

// EmergencyContact is a person to call on the emergency card.
type EmergencyContact struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation"`
}

// User represents the signed-in account profile
type User struct {
	ID                string             `json:"id"`
	FullName          string             `json:"full_name"`
	Email             string             `json:"email"`
	Phone             string             `json:"phone,omitempty"`
	BloodType         *string            `json:"blood_type,omitempty"`
	Allergies         []string           `json:"allergies"`
	EmergencyContacts []EmergencyContact `json:"emergency_contacts"`
}

// Clone returns a deep copy so callers never share slices with session state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	if u.BloodType != nil {
		bt := *u.BloodType
		out.BloodType = &bt
	}
	if u.Allergies != nil {
		out.Allergies = append([]string(nil), u.Allergies...)
	}
	if u.EmergencyContacts != nil {
		out.EmergencyContacts = append([]EmergencyContact(nil), u.EmergencyContacts...)
	}
	return &out
}
