package fakeapi

import (
	"sort"
	"sync"
	"time"

	"github.com/jwalitptl/healthhub-client/internal/model"
)

type userRecord struct {
	user         model.User
	passwordHash string
	family       []string
}

type medicineRecord struct {
	userID   string
	medicine model.Medicine
}

type healthRecord struct {
	userID string
	record model.HealthRecord
}

type invite struct {
	id           string
	inviterID    string
	inviteeEmail string
	createdAt    time.Time
}

// data is the in-memory database. Slices keep insertion order, which is the
// order list endpoints return.
type data struct {
	mu        sync.RWMutex
	users     map[string]*userRecord
	byEmail   map[string]string
	medicines []medicineRecord
	records   []healthRecord
	invites   []invite
}

func newData() *data {
	return &data{
		users:   make(map[string]*userRecord),
		byEmail: make(map[string]string),
	}
}

func (d *data) insertUser(u *userRecord) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.byEmail[u.user.Email]; exists {
		return false
	}
	d.users[u.user.ID] = u
	d.byEmail[u.user.Email] = u.user.ID
	return true
}

func (d *data) userByEmail(email string) (userRecord, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byEmail[email]
	if !ok {
		return userRecord{}, false
	}
	return *d.users[id], true
}

func (d *data) userByID(id string) (userRecord, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return userRecord{}, false
	}
	return *u, true
}

func (d *data) listMedicines(userID string) []model.Medicine {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := []model.Medicine{}
	for _, r := range d.medicines {
		if r.userID == userID {
			out = append(out, r.medicine)
		}
	}
	return out
}

func (d *data) insertMedicine(userID string, m model.Medicine) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.medicines = append(d.medicines, medicineRecord{userID: userID, medicine: m})
}

func (d *data) findMedicine(userID, id string) (model.Medicine, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, r := range d.medicines {
		if r.userID == userID && r.medicine.ID == id {
			return r.medicine, true
		}
	}
	return model.Medicine{}, false
}

func (d *data) updateMedicine(userID, id string, fn func(model.Medicine) model.Medicine) (model.Medicine, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, r := range d.medicines {
		if r.userID == userID && r.medicine.ID == id {
			d.medicines[i].medicine = fn(r.medicine)
			return d.medicines[i].medicine, true
		}
	}
	return model.Medicine{}, false
}

func (d *data) deleteMedicine(userID, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, r := range d.medicines {
		if r.userID == userID && r.medicine.ID == id {
			d.medicines = append(d.medicines[:i], d.medicines[i+1:]...)
			return true
		}
	}
	return false
}

// listRecords returns the user's records, newest taken_at first.
func (d *data) listRecords(userID string) []model.HealthRecord {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := []model.HealthRecord{}
	for _, r := range d.records {
		if r.userID == userID {
			out = append(out, r.record)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TakenAt.After(out[j].TakenAt.Time)
	})
	return out
}

func (d *data) insertRecord(userID string, r model.HealthRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = append(d.records, healthRecord{userID: userID, record: r})
}

func (d *data) recordsSince(userID string, since time.Time) []model.HealthRecord {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []model.HealthRecord
	for _, r := range d.records {
		if r.userID == userID && !r.record.TakenAt.Before(since) {
			out = append(out, r.record)
		}
	}
	return out
}

// addInvite records the invite and, when the invitee has an account, links
// both users. Reports whether they were linked.
func (d *data) addInvite(inv invite) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.invites = append(d.invites, inv)

	inviteeID, ok := d.byEmail[inv.inviteeEmail]
	if !ok {
		return false
	}
	inviter := d.users[inv.inviterID]
	invitee := d.users[inviteeID]
	inviter.family = addToSet(inviter.family, inviteeID)
	invitee.family = addToSet(invitee.family, inv.inviterID)
	return true
}

func (d *data) familyOf(userID string) []model.FamilyMember {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := []model.FamilyMember{}
	u, ok := d.users[userID]
	if !ok {
		return out
	}
	for _, id := range u.family {
		m, ok := d.users[id]
		if !ok {
			continue
		}
		allergies := m.user.Allergies
		if allergies == nil {
			allergies = []string{}
		}
		out = append(out, model.FamilyMember{
			ID:        m.user.ID,
			FullName:  m.user.FullName,
			Email:     m.user.Email,
			BloodType: m.user.BloodType,
			Allergies: allergies,
		})
	}
	return out
}

func addToSet(set []string, v string) []string {
	for _, s := range set {
		if s == v {
			return set
		}
	}
	return append(set, v)
}
