package events

import (
	"time"

	"fbmp/internal/config"
)

// Kind names a listing lifecycle transition.
type Kind string

const (
	ListingCreated Kind = "created"
	ListingUpdated Kind = "updated"
	ListingDeleted Kind = "deleted"
)

type ListingEvent struct {
	ListingID  string    `json:"listing_id"`
	Link       string    `json:"link,omitempty"`
	Status     *int      `json:"status,omitempty"` // Absent on delete
	TraceID    string    `json:"trace_id"`         // This is used for tracing requests across services
	OccurredAt time.Time `json:"occurred_at"`
}

type EventConfig struct {
	ListingCreated string
	ListingUpdated string
	ListingDeleted string
}

func NewEventConfig(cfg config.Events) *EventConfig {
	return &EventConfig{
		ListingCreated: cfg.ListingCreated,
		ListingUpdated: cfg.ListingUpdated,
		ListingDeleted: cfg.ListingDeleted,
	}
}

func (c *EventConfig) subject(kind Kind) string {
	switch kind {
	case ListingCreated:
		return c.ListingCreated
	case ListingUpdated:
		return c.ListingUpdated
	case ListingDeleted:
		return c.ListingDeleted
	}
	return ""
}
