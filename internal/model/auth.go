package model

// AuthRequest types
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	FullName          string             `json:"full_name"`
	Email             string             `json:"email"`
	Password          string             `json:"password"`
	Phone             string             `json:"phone"`
	BloodType         *string            `json:"blood_type"`
	Allergies         []string           `json:"allergies"`
	EmergencyContacts []EmergencyContact `json:"emergency_contacts"`
}

// AuthResponse is returned by both login and register
type AuthResponse struct {
	Message string `json:"message,omitempty"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}

// MessageResponse is the body of endpoints that only acknowledge
type MessageResponse struct {
	Message string `json:"message"`
}
