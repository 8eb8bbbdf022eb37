package fakeapi

import (
	stderrors "errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/healthhub-client/internal/model"
	"github.com/jwalitptl/healthhub-client/pkg/httputil"
)

const analyticsWindowDays = 30

type fieldProblem struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// unprocessable answers 422 with a validation detail list
func unprocessable(c *gin.Context, problems []fieldProblem) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": problems})
}

func missing(field string) fieldProblem {
	return fieldProblem{Loc: []string{"body", field}, Msg: "field required", Type: "missing"}
}

func invalid(field, msg string) fieldProblem {
	return fieldProblem{Loc: []string{"body", field}, Msg: msg, Type: "value_error"}
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		unprocessable(c, []fieldProblem{{Loc: []string{"body"}, Msg: err.Error(), Type: "json_invalid"}})
		return false
	}
	return true
}

func currentUserID(c *gin.Context) string {
	return c.GetString(contextUserID)
}

// Auth

func (s *Server) register(c *gin.Context) {
	var req model.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	var problems []fieldProblem
	if strings.TrimSpace(req.FullName) == "" {
		problems = append(problems, missing("full_name"))
	}
	if strings.TrimSpace(req.Email) == "" {
		problems = append(problems, missing("email"))
	}
	if req.Password == "" {
		problems = append(problems, missing("password"))
	}
	if len(problems) > 0 {
		unprocessable(c, problems)
		return
	}

	u, err := s.createUser(req)
	if err != nil {
		var apiErr *apiError
		if stderrors.As(err, &apiErr) {
			httputil.RespondWithError(c, apiErr.status, apiErr.detail)
			return
		}
		httputil.RespondWithError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	token, err := s.tokens.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		httputil.RespondWithError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, model.AuthResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    &u,
	})
}

func (s *Server) login(c *gin.Context) {
	var req model.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	u, ok := s.data.userByEmail(req.Email)
	if !ok || s.hasher.Compare(u.passwordHash, req.Password) != nil {
		httputil.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.tokens.GenerateAccessToken(u.user.ID, u.user.Email)
	if err != nil {
		httputil.RespondWithError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	user := u.user
	c.JSON(http.StatusOK, model.AuthResponse{
		Message: "Login successful",
		Token:   token,
		User:    &user,
	})
}

func (s *Server) me(c *gin.Context) {
	u, ok := s.data.userByID(currentUserID(c))
	if !ok {
		httputil.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}
	c.JSON(http.StatusOK, u.user)
}

// Medicines

func (s *Server) listMedicines(c *gin.Context) {
	c.JSON(http.StatusOK, s.data.listMedicines(currentUserID(c)))
}

func (s *Server) createMedicine(c *gin.Context) {
	var in model.MedicineInput
	if !bindJSON(c, &in) {
		return
	}

	var problems []fieldProblem
	if strings.TrimSpace(in.Name) == "" {
		problems = append(problems, missing("name"))
	}
	if strings.TrimSpace(in.Dosage) == "" {
		problems = append(problems, missing("dosage"))
	}
	if in.Frequency == "" {
		problems = append(problems, missing("frequency"))
	} else if !in.Frequency.Valid() {
		problems = append(problems, invalid("frequency", "value is not a valid enumeration member"))
	}
	if in.Category != "" && !in.Category.Valid() {
		problems = append(problems, invalid("category", "value is not a valid enumeration member"))
	}
	if len(problems) > 0 {
		unprocessable(c, problems)
		return
	}

	if in.Category == "" {
		in.Category = model.CategoryGeneral
	}
	reminders := in.Reminders
	if reminders == nil {
		reminders = []model.Reminder{}
	}

	now := model.NewTimestamp(s.now())
	m := model.Medicine{
		ID:                uuid.NewString(),
		Name:              in.Name,
		Dosage:            in.Dosage,
		Frequency:         in.Frequency,
		Instructions:      in.Instructions,
		StockQuantity:     in.StockQuantity,
		ExpiryDate:        in.ExpiryDate,
		Category:          in.Category,
		PrescriptionImage: in.PrescriptionImage,
		Reminders:         reminders,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	s.data.insertMedicine(currentUserID(c), m)
	c.JSON(http.StatusOK, m)
}

func (s *Server) getMedicine(c *gin.Context) {
	m, ok := s.data.findMedicine(currentUserID(c), c.Param("id"))
	if !ok {
		httputil.RespondWithError(c, http.StatusNotFound, "Medicine not found")
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) updateMedicine(c *gin.Context) {
	var patch model.MedicinePatch
	if !bindJSON(c, &patch) {
		return
	}
	if patch.Frequency != nil && !patch.Frequency.Valid() {
		unprocessable(c, []fieldProblem{invalid("frequency", "value is not a valid enumeration member")})
		return
	}
	if patch.Category != nil && !patch.Category.Valid() {
		unprocessable(c, []fieldProblem{invalid("category", "value is not a valid enumeration member")})
		return
	}

	updated, ok := s.data.updateMedicine(currentUserID(c), c.Param("id"), func(m model.Medicine) model.Medicine {
		m = patch.Apply(m)
		m.UpdatedAt = model.NewTimestamp(s.now())
		return m
	})
	if !ok {
		httputil.RespondWithError(c, http.StatusNotFound, "Medicine not found")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteMedicine(c *gin.Context) {
	if !s.data.deleteMedicine(currentUserID(c), c.Param("id")) {
		httputil.RespondWithError(c, http.StatusNotFound, "Medicine not found")
		return
	}
	httputil.RespondWithMessage(c, "Medicine deleted successfully")
}

// Health records

func (s *Server) listRecords(c *gin.Context) {
	c.JSON(http.StatusOK, s.data.listRecords(currentUserID(c)))
}

func (s *Server) createRecord(c *gin.Context) {
	var in model.HealthRecordInput
	if !bindJSON(c, &in) {
		return
	}

	var problems []fieldProblem
	if in.MedicineID == "" {
		problems = append(problems, missing("medicine_id"))
	}
	if in.Status == "" {
		problems = append(problems, missing("status"))
	} else if !in.Status.Valid() {
		problems = append(problems, invalid("status", "value is not a valid enumeration member"))
	}
	if len(problems) > 0 {
		unprocessable(c, problems)
		return
	}

	now := model.NewTimestamp(s.now())
	takenAt := now
	if in.TakenAt != nil && !in.TakenAt.IsZero() {
		takenAt = *in.TakenAt
	}

	r := model.HealthRecord{
		ID:         uuid.NewString(),
		MedicineID: in.MedicineID,
		TakenAt:    takenAt,
		Status:     in.Status,
		Notes:      in.Notes,
		CreatedAt:  now,
	}
	s.data.insertRecord(currentUserID(c), r)
	c.JSON(http.StatusOK, r)
}

// Family

func (s *Server) inviteFamily(c *gin.Context) {
	var req model.InviteRequest
	if !bindJSON(c, &req) {
		return
	}
	email := strings.TrimSpace(req.InviteeEmail)
	if email == "" {
		unprocessable(c, []fieldProblem{missing("invitee_email")})
		return
	}
	if !strings.Contains(email, "@") {
		unprocessable(c, []fieldProblem{invalid("invitee_email", "value is not a valid email address")})
		return
	}

	linked := s.data.addInvite(invite{
		id:           uuid.NewString(),
		inviterID:    currentUserID(c),
		inviteeEmail: email,
		createdAt:    s.now(),
	})
	if linked {
		httputil.RespondWithMessage(c, fmt.Sprintf("Added %s to family", email))
		return
	}
	httputil.RespondWithMessage(c, fmt.Sprintf("Invitation sent to %s", email))
}

func (s *Server) familyMembers(c *gin.Context) {
	c.JSON(http.StatusOK, s.data.familyOf(currentUserID(c)))
}

// Analytics

func (s *Server) adherence(c *gin.Context) {
	since := s.now().Add(-analyticsWindowDays * 24 * time.Hour)
	records := s.data.recordsSince(currentUserID(c), since)

	total := len(records)
	taken := 0
	for _, r := range records {
		if r.Status == model.DoseTaken {
			taken++
		}
	}

	rate := 0.0
	if total > 0 {
		rate = math.Round(float64(taken)/float64(total)*1000) / 10
	}

	c.JSON(http.StatusOK, model.AdherenceStats{
		AdherenceRate: rate,
		TotalDoses:    total,
		TakenDoses:    taken,
		MissedDoses:   total - taken,
		PeriodDays:    analyticsWindowDays,
	})
}

func (s *Server) upcomingExpiries(c *gin.Context) {
	now := s.now().UTC()
	today := model.NewDate(now.Year(), now.Month(), now.Day())
	limit := today.AddDate(0, 0, analyticsWindowDays)

	out := []model.Medicine{}
	for _, m := range s.data.listMedicines(currentUserID(c)) {
		if m.ExpiryDate == nil {
			continue
		}
		exp := m.ExpiryDate.Time
		if exp.Before(today.Time) || exp.After(limit) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExpiryDate.Before(out[j].ExpiryDate.Time)
	})
	c.JSON(http.StatusOK, out)
}
