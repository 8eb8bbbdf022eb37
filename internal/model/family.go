package model

// FamilyMember is another account linked to the user
type FamilyMember struct {
	ID        string   `json:"id"`
	FullName  string   `json:"full_name"`
	Email     string   `json:"email"`
	BloodType *string  `json:"blood_type,omitempty"`
	Allergies []string `json:"allergies,omitempty"`
}

type InviteRequest struct {
	InviteeEmail string `json:"invitee_email"`
}
