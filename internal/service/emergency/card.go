package emergency

import (
	"github.com/jwalitptl/healthhub-client/internal/model"
)

const (
	UnknownBloodType = "Unknown"
	UnknownPatient   = "Unknown Patient"
	NoneReported     = "None reported"
)

// DefaultContacts always head the card.
var DefaultContacts = []model.EmergencyContact{
	{Name: "Emergency Services", Phone: "911", Relation: "Emergency"},
	{Name: "Poison Control", Phone: "1-800-222-1222", Relation: "Poison Emergency"},
}

type Card struct {
	PatientName string
	BloodType   string
	Allergies   []string
	Conditions  []string
	Medications []string
	Contacts    []model.EmergencyContact
}

// BuildCard derives the card from the profile and the current medicines.
// A nil user yields a card with only defaults.
func BuildCard(user *model.User, medicines []model.Medicine) Card {
	card := Card{
		PatientName: UnknownPatient,
		BloodType:   UnknownBloodType,
		Allergies:   []string{},
		Conditions:  []string{NoneReported},
		Medications: []string{},
		Contacts:    append([]model.EmergencyContact(nil), DefaultContacts...),
	}

	if user != nil {
		if user.FullName != "" {
			card.PatientName = user.FullName
		}
		if user.BloodType != nil && *user.BloodType != "" {
			card.BloodType = *user.BloodType
		}
		card.Allergies = append(card.Allergies, user.Allergies...)
		card.Contacts = append(card.Contacts, user.EmergencyContacts...)
	}

	for _, m := range medicines {
		card.Medications = append(card.Medications, m.Name+" "+m.Dosage)
	}
	return card
}

// AllergiesText is what the card shows for allergies.
func (c Card) AllergiesText() []string {
	if len(c.Allergies) == 0 {
		return []string{NoneReported}
	}
	return c.Allergies
}
