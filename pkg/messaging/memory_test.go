package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBroker_PublishSubscribe(t *testing.T) {
	b := NewMemoryBroker(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx, "session")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "session", Message{Type: "login", Payload: "u1"}))
	require.NoError(t, b.Publish(ctx, "other", Message{Type: "ignored"}))

	select {
	case msg := <-ch:
		assert.JSONEq(t, `{"type":"login","payload":"u1"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	select {
	case msg := <-ch:
		t.Fatalf("unexpected message %s", msg)
	default:
	}
}

func TestMemoryBroker_CancelClosesChannel(t *testing.T) {
	b := NewMemoryBroker(1)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := b.Subscribe(ctx, "session")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}

func TestMemoryBroker_Closed(t *testing.T) {
	b := NewMemoryBroker(1)
	ch, err := b.Subscribe(context.Background(), "session")
	require.NoError(t, err)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, ok := <-ch
	assert.False(t, ok)
	assert.ErrorIs(t, b.Publish(context.Background(), "session", "x"), ErrClosed)
	_, err = b.Subscribe(context.Background(), "session")
	assert.ErrorIs(t, err, ErrClosed)
}
