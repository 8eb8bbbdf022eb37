package emergency_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/healthhub-client/internal/model"
	"github.com/jwalitptl/healthhub-client/internal/service/emergency"
)

func TestBuildCard_Defaults(t *testing.T) {
	card := emergency.BuildCard(nil, nil)

	assert.Equal(t, "Unknown Patient", card.PatientName)
	assert.Equal(t, "Unknown", card.BloodType)
	assert.Equal(t, []string{"None reported"}, card.AllergiesText())
	assert.Equal(t, []string{"None reported"}, card.Conditions)
	assert.Empty(t, card.Medications)
	assert.Equal(t, emergency.DefaultContacts, card.Contacts)
}

func TestBuildCard_FromProfile(t *testing.T) {
	bt := "O+"
	user := &model.User{
		FullName:  "Jane Doe",
		BloodType: &bt,
		Allergies: []string{"Penicillin"},
		EmergencyContacts: []model.EmergencyContact{
			{Name: "John Doe", Phone: "555-0100", Relation: "Spouse"},
		},
	}
	meds := []model.Medicine{{Name: "Aspirin", Dosage: "100mg"}}

	card := emergency.BuildCard(user, meds)

	assert.Equal(t, "Jane Doe", card.PatientName)
	assert.Equal(t, "O+", card.BloodType)
	assert.Equal(t, []string{"Penicillin"}, card.AllergiesText())
	assert.Equal(t, []string{"Aspirin 100mg"}, card.Medications)

	assert.Len(t, card.Contacts, 3)
	assert.Equal(t, "911", card.Contacts[0].Phone)
	assert.Equal(t, "1-800-222-1222", card.Contacts[1].Phone)
	assert.Equal(t, "Spouse", card.Contacts[2].Relation)

	card.Allergies[0] = "changed"
	card.Contacts[0].Phone = "000"
	assert.Equal(t, "Penicillin", user.Allergies[0])
	assert.Equal(t, "911", emergency.DefaultContacts[0].Phone)
}
