package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Close() error
}

// Message is the envelope published for domain events.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// NopBroker discards every publish; used when no broker is configured.
type NopBroker struct{}

func (NopBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	return nil
}

func (NopBroker) Close() error { return nil }
