package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jwalitptl/healthhub-client/pkg/logger"
	"github.com/jwalitptl/healthhub-client/pkg/messaging"
)

const EventType = "session.transition"

const publishTimeout = 2 * time.Second

// EventMessage is the broker payload for a transition. It never carries the token.
type EventMessage struct {
	Status string    `json:"status"`
	Reason string    `json:"reason"`
	UserID string    `json:"user_id,omitempty"`
	Email  string    `json:"email,omitempty"`
	At     time.Time `json:"at"`
}

func NewEventMessage(e Event) EventMessage {
	msg := EventMessage{
		Status: e.State.Status.String(),
		Reason: string(e.Reason),
		At:     e.At.UTC(),
	}
	if e.State.User != nil {
		msg.UserID = e.State.User.ID
		msg.Email = e.State.User.Email
	}
	return msg
}

// PublishTo returns a subscriber forwarding events to channel. Publish
// failures are logged and never affect the transition.
func PublishTo(pub messaging.Publisher, channel string, log *logger.Logger) Subscriber {
	if log == nil {
		log = logger.Nop()
	}
	return func(e Event) {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		msg := messaging.Message{Type: EventType, Payload: NewEventMessage(e)}
		if err := pub.Publish(ctx, channel, msg); err != nil {
			log.Error(err, "failed to publish session event", "channel", channel, "reason", string(e.Reason))
		}
	}
}

// Watch decodes session events published on channel until ctx ends.
// Messages of other types are skipped.
func Watch(ctx context.Context, broker messaging.Broker, channel string) (<-chan EventMessage, error) {
	raw, err := broker.Subscribe(ctx, channel)
	if err != nil {
		return nil, fmt.Errorf("failed to watch session events: %w", err)
	}

	out := make(chan EventMessage)
	go func() {
		defer close(out)
		for payload := range raw {
			var envelope struct {
				Type    string       `json:"type"`
				Payload EventMessage `json:"payload"`
			}
			if err := json.Unmarshal(payload, &envelope); err != nil || envelope.Type != EventType {
				continue
			}
			select {
			case out <- envelope.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
