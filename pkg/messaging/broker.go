package messaging

import (
	"context"
)

// Broker publishes already-encoded messages to named channels.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Close() error
}
