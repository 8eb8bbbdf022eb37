package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/healthhub-client/pkg/errors"
	"github.com/jwalitptl/healthhub-client/pkg/messaging"
)

func TestPublishTo_ForwardsWithoutToken(t *testing.T) {
	broker := messaging.NewMemoryBroker(8)
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := Watch(ctx, broker, "hh:session")
	require.NoError(t, err)

	m := NewManager(newStore(), okLogin("secret-token", "u1"))
	m.Subscribe(PublishTo(broker, "hh:session", nil))

	_, err = m.Login(context.Background(), "u1@example.com", "pw")
	require.NoError(t, err)

	select {
	case e := <-events:
		assert.Equal(t, "authenticated", e.Status)
		assert.Equal(t, "login", e.Reason)
		assert.Equal(t, "u1", e.UserID)
		assert.Equal(t, "u1@example.com", e.Email)
	case <-time.After(time.Second):
		t.Fatal("event not published")
	}
}

func TestWatch_SkipsForeignMessages(t *testing.T) {
	broker := messaging.NewMemoryBroker(8)
	defer broker.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := Watch(ctx, broker, "hh:session")
	require.NoError(t, err)

	require.NoError(t, broker.Publish(ctx, "hh:session", messaging.Message{Type: "other", Payload: 1}))
	require.NoError(t, broker.Publish(ctx, "hh:session", messaging.Message{
		Type:    EventType,
		Payload: EventMessage{Status: "unauthenticated", Reason: "logout"},
	}))

	select {
	case e := <-events:
		assert.Equal(t, "logout", e.Reason)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u1",
		"email":   "u1@example.com",
		"exp":     exp.Unix(),
	})
	signed, err := token.SignedString([]byte("not-known-to-the-client"))
	require.NoError(t, err)

	claims, err := ParseClaims(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1@example.com", claims.Email)
	assert.True(t, exp.Equal(claims.Expiry()))
	assert.False(t, claims.Expired(time.Now()))
	assert.True(t, claims.Expired(exp.Add(time.Second)))
}

func TestParseClaims_Malformed(t *testing.T) {
	_, err := ParseClaims("not-a-jwt")
	assert.True(t, errors.IsKind(err, errors.KindDecode))
}
