// Package fakeapitest starts an in-process backend with a client bound to it.
package fakeapitest

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/healthhub-client/internal/apiclient"
	"github.com/jwalitptl/healthhub-client/internal/fakeapi"
	"github.com/jwalitptl/healthhub-client/internal/model"
)

// Epoch is the fixed clock backends start with.
var Epoch = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

type Backend struct {
	Server *fakeapi.Server
	Client *apiclient.Client
	URL    string

	mu    sync.Mutex
	now   time.Time
	token string
}

// New starts a backend whose clock is frozen at Epoch.
func New(t *testing.T, opts ...fakeapi.Option) *Backend {
	t.Helper()
	b := &Backend{now: Epoch}

	opts = append([]fakeapi.Option{fakeapi.WithClock(b.Now)}, opts...)
	b.Server = fakeapi.New(opts...)
	ts := httptest.NewServer(b.Server.Handler())
	t.Cleanup(ts.Close)
	b.URL = ts.URL

	c, err := apiclient.New(ts.URL, apiclient.WithTokenSource(apiclient.TokenSourceFunc(b.Token)))
	require.NoError(t, err)
	b.Client = c
	return b
}

func (b *Backend) Now() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.now
}

func (b *Backend) Advance(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = b.now.Add(d)
}

func (b *Backend) Token() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token
}

func (b *Backend) SetToken(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token = token
}

// SignUp creates an account and makes the client act as it.
func (b *Backend) SignUp(t *testing.T, email string) model.User {
	t.Helper()
	u := b.AddUser(t, email)
	token, ok := b.Server.IssueToken(email)
	require.True(t, ok)
	b.SetToken(token)
	return u
}

// AddUser creates an account without switching the client to it.
func (b *Backend) AddUser(t *testing.T, email string) model.User {
	t.Helper()
	u, _, err := b.Server.CreateUser(model.RegisterRequest{
		FullName: "User " + email,
		Email:    email,
		Password: "secret1",
	})
	require.NoError(t, err)
	return u
}
