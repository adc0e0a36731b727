package domain

import (
	"context"
	"encoding/json"
	"time"
)

// SavedView is a persisted (title, filters, page) tuple owned by a user.
// Filters is the raw blob as stored remotely; decoding it is the filter
// package's job.
type SavedView struct {
	ID            int64
	Title         string
	Page          Page
	Filters       json.RawMessage
	OwnerUsername string
}

// AuthResult is returned by login and signup.
type AuthResult struct {
	Token    string
	Username string
}

// SavedViewEventType names a saved view lifecycle transition.
type SavedViewEventType string

const (
	SavedViewCreated SavedViewEventType = "created"
	SavedViewRenamed SavedViewEventType = "renamed"
	SavedViewDeleted SavedViewEventType = "deleted"
)

// SavedViewEvent describes a saved view change for downstream consumers.
type SavedViewEvent struct {
	Type       SavedViewEventType `json:"type"`
	ViewID     int64              `json:"view_id,omitempty"`
	Title      string             `json:"title,omitempty"`
	Page       Page               `json:"page,omitempty"`
	Username   string             `json:"username"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// EventPublisher ships saved view events somewhere durable.
type EventPublisher interface {
	Publish(ctx context.Context, events ...SavedViewEvent) error
}
