package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/aleisley/ta-backend/pkg/logger"
	"github.com/aleisley/ta-backend/pkg/messaging"
)

type Config struct {
	URL          string
	MaxRetries   int
	RetryBackoff time.Duration
	PoolSize     int
	MinIdleConns int
	// ChannelPrefix is prepended to every channel as "<prefix>.<channel>".
	ChannelPrefix string
}

// Broker publishes to Redis pub/sub behind a circuit breaker, so a dead
// Redis fails fast instead of stalling every relay batch.
type Broker struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
	prefix string
	logger *logger.Logger
}

var _ messaging.Broker = (*Broker)(nil)

// NewBroker connects to Redis and verifies the connection.
func NewBroker(ctx context.Context, config Config, log *logger.Logger) (*Broker, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.MaxRetries = config.MaxRetries
	opts.MinRetryBackoff = config.RetryBackoff
	if config.PoolSize > 0 {
		opts.PoolSize = config.PoolSize
	}
	opts.MinIdleConns = config.MinIdleConns

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewBrokerWithClient(client, config.ChannelPrefix, log), nil
}

// NewBrokerWithClient wraps an existing client without pinging it.
func NewBrokerWithClient(client *redis.Client, prefix string, log *logger.Logger) *Broker {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("redis-broker")

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "redis-broker",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Broker{
		client: client,
		cb:     cb,
		prefix: prefix,
		logger: log,
	}
}

func (b *Broker) channel(name string) string {
	if b.prefix == "" {
		return name
	}
	return b.prefix + "." + name
}

func (b *Broker) Publish(ctx context.Context, channel string, payload []byte) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.client.Publish(ctx, b.channel(channel), payload).Err()
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", b.channel(channel), err)
	}
	return nil
}

// State reports the circuit breaker state.
func (b *Broker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Broker) Close() error {
	return b.client.Close()
}
