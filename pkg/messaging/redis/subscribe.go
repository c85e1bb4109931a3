package redis

import (
	"context"
	"fmt"
)

// Message is one event received from a subscribed channel.
type Message struct {
	Channel string
	Payload []byte
}

// Subscribe listens on every channel matching pattern (a Redis glob, relative
// to the broker's prefix). The returned channel closes when ctx is done.
func (b *Broker) Subscribe(ctx context.Context, pattern string) (<-chan Message, error) {
	pubsub := b.client.PSubscribe(ctx, b.channel(pattern))

	// Wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", b.channel(pattern), err)
	}

	msgChan := make(chan Message, 100)
	go func() {
		defer func() {
			pubsub.Close()
			close(msgChan)
		}()

		in := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case msgChan <- Message{Channel: msg.Channel, Payload: []byte(msg.Payload)}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return msgChan, nil
}
