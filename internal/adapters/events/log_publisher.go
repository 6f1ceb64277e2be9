package events

import (
	"context"
	"log/slog"

	"github.com/atvirokodosprendimai/actionlog/internal/core/domain"
)

// LogPublisher writes every bus event to the structured log. It is the
// default bus when no webhook endpoint is configured but publication is
// still wanted.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event domain.BusEvent) error {
	p.logger.Info("bus publish",
		"source", event.Source,
		"category", event.Category,
		"event_type", event.Type,
		"entity_type", event.EntityType,
		"entity_uuid", event.EntityUUID,
		"status", event.Description["status"],
		"description", event.Description["description"],
	)
	return nil
}
