package store

import (
	"context"
	"time"
)

// Message represents a persisted chat message.
type Message struct {
	ID        int64
	Sender    string
	Text      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clock returns the current time. Backends take one so tests can control timestamps.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// MessageStore handles message persistence.
// It is the only place where message identifiers and timestamps are assigned.
type MessageStore interface {
	// ListMessages returns every message ordered by created_at, ties broken by id.
	ListMessages(ctx context.Context) ([]*Message, error)

	// CreateMessage validates and persists a new message.
	CreateMessage(ctx context.Context, sender, text string) (*Message, error)

	// UpdateMessage replaces the text of an existing message and refreshes updated_at.
	// Last write wins: no version check is made.
	UpdateMessage(ctx context.Context, id int64, text string) (*Message, error)

	// DeleteMessage removes a message permanently.
	DeleteMessage(ctx context.Context, id int64) error
}

// Store aggregates all storage interfaces.
type Store interface {
	MessageStore

	// Close closes the underlying database.
	Close() error
}

// Touch returns the updated_at value for an edit made at now.
// updated_at never falls behind created_at even if the wall clock stepped back.
func Touch(createdAt, now time.Time) time.Time {
	if now.Before(createdAt) {
		return createdAt
	}
	return now
}
