package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"
)

// streamConfigs lists the JetStream streams backing every ladder topic.
var streamConfigs = []jetstream.StreamConfig{
	{
		Name:     "challenge",
		Subjects: []string{"challenge.>"},
	},
	{
		Name:     "match",
		Subjects: []string{"match.>"},
	},
	{
		Name:     "ledger",
		Subjects: []string{"rating.>", "stats.>", "ledger.>"},
	},
}

// InitializeStreams creates the ladder streams in JetStream if they are missing.
func InitializeStreams(ctx context.Context, js jetstream.JetStream, logger *slog.Logger) error {
	for _, streamConfig := range streamConfigs {
		_, err := js.Stream(ctx, streamConfig.Name)
		if errors.Is(err, jetstream.ErrStreamNotFound) {
			if _, err := js.CreateStream(ctx, streamConfig); err != nil {
				logger.Error("Failed to create JetStream stream", slog.String("stream", streamConfig.Name), slog.Any("error", err))
				return fmt.Errorf("failed to create stream %s: %w", streamConfig.Name, err)
			}
			logger.Info("Created JetStream stream", slog.String("stream", streamConfig.Name))
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to check stream %s: %w", streamConfig.Name, err)
		}
	}
	return nil
}
