package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publisher
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Publisher defines the interface for publishing messages. message is JSON
// encoded before it goes on the wire.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// Message is the envelope every published payload is wrapped in
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
