package events

import (
	"context"

	"github.com/rs/zerolog"
)

// LogPublisher writes events to the service log. Used when no NATS_URL is
// configured and as the default in tests.
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, event Event) error {
	p.log.Info().
		Str("kind", string(event.Kind)).
		Str("solicitation_id", event.SolicitationID.String()).
		Time("occurred_at", event.OccurredAt).
		Msg("domain event")
	return nil
}
