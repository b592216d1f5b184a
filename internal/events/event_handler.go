package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

type EventHandler struct {
	bus    Bus
	config *EventConfig
	logger *slog.Logger
}

func NewEventHandler(bus Bus, config *EventConfig, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		bus:    bus,
		config: config,
		logger: logger,
	}
}

// RaiseListingEvent publishes evt on the subject configured for kind.
// The message id makes JetStream drop redeliveries of the same transition.
func (h *EventHandler) RaiseListingEvent(ctx context.Context, kind Kind, evt ListingEvent) error {
	subject := h.config.subject(kind)
	if subject == "" {
		return fmt.Errorf("no subject configured for listing event %q", kind)
	}

	h.logger.DebugContext(ctx, "Raising listing event",
		"kind", kind,
		"subject", subject,
		"listing_id", evt.ListingID,
	)

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal listing event: %w", err)
	}

	msgId := fmt.Sprintf("%s.%s.%d", subject, evt.ListingID, evt.OccurredAt.UnixNano())

	if err := h.bus.Publish(subject, data, msgId); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}
