package session

import (
	"time"

	"github.com/jwalitptl/healthhub-client/internal/model"
)

type Status int

const (
	StatusUnknown Status = iota
	StatusUnauthenticated
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State is a snapshot of the session. Token is empty and User nil unless
// Status is StatusAuthenticated.
type State struct {
	Status Status
	Token  string
	User   *model.User
}

func (s State) Authenticated() bool {
	return s.Status == StatusAuthenticated
}

func (s State) clone() State {
	s.User = s.User.Clone()
	return s
}

func unauthenticated() State {
	return State{Status: StatusUnauthenticated}
}

func authenticated(token string, user *model.User) State {
	return State{Status: StatusAuthenticated, Token: token, User: user.Clone()}
}

// Reason names what caused a transition
type Reason string

const (
	ReasonBootstrap Reason = "bootstrap"
	ReasonLogin     Reason = "login"
	ReasonRegister  Reason = "register"
	ReasonLogout    Reason = "logout"
	ReasonExpired   Reason = "expired"
	ReasonProfile   Reason = "profile"
)

// Event is delivered to subscribers after every committed transition
type Event struct {
	State  State
	Reason Reason
	At     time.Time
}

type Subscriber func(Event)
