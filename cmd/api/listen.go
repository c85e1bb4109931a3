package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aleisley/ta-backend/pkg/messaging/redis"
)

// newListenCommand tails the change events the relay publishes.
func newListenCommand(configPath *string) *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Print doctor and appointment change events from Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			broker, err := redis.NewBroker(ctx, a.cfg.Redis.ToBrokerConfig(a.cfg.Outbox.ChannelPrefix), a.log)
			if err != nil {
				return err
			}
			defer broker.Close()

			messages, err := broker.Subscribe(ctx, pattern)
			if err != nil {
				return err
			}

			a.log.Info("listening for events", "pattern", pattern)
			for msg := range messages {
				cmd.Printf("%s %s\n", msg.Channel, msg.Payload)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&pattern, "pattern", "*", "channel pattern below the configured prefix")
	return cmd
}
