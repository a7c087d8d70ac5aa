package messaging

import (
	"context"
)

// Broker defines the interface for message brokers. Payloads are opaque
// JSON documents.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Handler consumes one message delivered on a channel.
type Handler func(ctx context.Context, payload []byte) error
