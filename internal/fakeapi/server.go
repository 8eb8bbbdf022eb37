// Package fakeapi is an in-memory implementation of the HealthHub backend
// contract. It exists for tests and local development of clients; it is not
// a production server.
package fakeapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/healthhub-client/internal/model"
	"github.com/jwalitptl/healthhub-client/pkg/auth"
	"github.com/jwalitptl/healthhub-client/pkg/logger"
	"github.com/jwalitptl/healthhub-client/pkg/security"
)

const (
	defaultSecret   = "fakeapi-secret"
	defaultTokenTTL = 24 * time.Hour
)

var modeOnce sync.Once

type failure struct {
	status int
	detail string
}

type Server struct {
	engine *gin.Engine
	data   *data
	tokens auth.JWTService
	hasher security.PasswordHasher
	logger *logger.Logger
	now    func() time.Time
	secret string
	ttl    time.Duration

	mu       sync.Mutex
	failures []failure
	hook     func(*http.Request)
	requests int
}

type Option func(*Server)

// WithClock fixes the server's notion of now, for expiry and analytics windows.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l.With("fakeapi")
		}
	}
}

func WithSecret(secret string) Option {
	return func(s *Server) {
		s.secret = secret
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.ttl = ttl
	}
}

func New(opts ...Option) *Server {
	modeOnce.Do(func() { gin.SetMode(gin.ReleaseMode) })

	s := &Server{
		data:   newData(),
		hasher: security.NewBcryptHasher(bcrypt.MinCost),
		logger: logger.Nop(),
		now:    time.Now,
		secret: defaultSecret,
		ttl:    defaultTokenTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tokens = auth.NewJWTService(s.secret, s.ttl, s.now)

	s.engine = gin.New()
	s.engine.Use(requestID(), s.recovery(), s.requestLogger())
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api", s.intercept())

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", s.register)
		authGroup.POST("/login", s.login)
		authGroup.GET("/me", s.authenticate(), s.me)
	}

	protected := api.Group("", s.authenticate())

	medicines := protected.Group("/medicines")
	{
		medicines.GET("", s.listMedicines)
		medicines.POST("", s.createMedicine)
		medicines.GET("/:id", s.getMedicine)
		medicines.PUT("/:id", s.updateMedicine)
		medicines.DELETE("/:id", s.deleteMedicine)
	}

	records := protected.Group("/health-records")
	{
		records.GET("", s.listRecords)
		records.POST("", s.createRecord)
	}

	family := protected.Group("/family")
	{
		family.POST("/invite", s.inviteFamily)
		family.GET("/members", s.familyMembers)
	}

	analytics := protected.Group("/analytics")
	{
		analytics.GET("/adherence", s.adherence)
		analytics.GET("/upcoming-expiries", s.upcomingExpiries)
	}

	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// FailNext makes the next API request fail with status and detail.
// Calls queue up.
func (s *Server) FailNext(status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{status: status, detail: detail})
}

// BeforeHandle runs fn at the start of every API request, before any
// queued failure is served. Pass nil to remove it.
func (s *Server) BeforeHandle(fn func(*http.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = fn
}

// RequestCount is the number of API requests received.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

func (s *Server) nextInterception() (func(*http.Request), *failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
	if len(s.failures) == 0 {
		return s.hook, nil
	}
	f := s.failures[0]
	s.failures = s.failures[1:]
	return s.hook, &f
}

// CreateUser registers an account directly and returns it with a fresh token.
func (s *Server) CreateUser(req model.RegisterRequest) (model.User, string, error) {
	u, err := s.createUser(req)
	if err != nil {
		return model.User{}, "", err
	}
	token, err := s.tokens.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		return model.User{}, "", err
	}
	return u, token, nil
}

// IssueToken signs a token for an existing user, e.g. to simulate a second
// device.
func (s *Server) IssueToken(email string) (string, bool) {
	u, ok := s.data.userByEmail(email)
	if !ok {
		return "", false
	}
	token, err := s.tokens.GenerateAccessToken(u.user.ID, u.user.Email)
	if err != nil {
		return "", false
	}
	return token, true
}

// RemoveUser deletes an account so its tokens fail with "User not found".
func (s *Server) RemoveUser(email string) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	if id, ok := s.data.byEmail[email]; ok {
		delete(s.data.byEmail, email)
		delete(s.data.users, id)
	}
}

var errEmailTaken = &apiError{status: http.StatusBadRequest, detail: "Email already registered"}

type apiError struct {
	status int
	detail string
}

func (e *apiError) Error() string { return e.detail }

func (s *Server) createUser(req model.RegisterRequest) (model.User, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.User{}, err
	}

	allergies := req.Allergies
	if allergies == nil {
		allergies = []string{}
	}
	contacts := req.EmergencyContacts
	if contacts == nil {
		contacts = []model.EmergencyContact{}
	}

	u := model.User{
		ID:                uuid.NewString(),
		FullName:          req.FullName,
		Email:             req.Email,
		Phone:             req.Phone,
		BloodType:         req.BloodType,
		Allergies:         allergies,
		EmergencyContacts: contacts,
	}
	if !s.data.insertUser(&userRecord{user: u, passwordHash: hash}) {
		return model.User{}, errEmailTaken
	}
	return u, nil
}
