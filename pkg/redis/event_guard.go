package redis

import (
	"context"
	"time"
)

const (
	eventStateProcessing = "processing"
	eventStateDone       = "done"
)

var (
	guardSetNX = SetNX
	guardSet   = Set
	guardDel   = Del
)

// EventGuard deduplicates inbound webhook deliveries. A delivery is claimed
// before processing, marked done afterwards, and released on failure so the
// provider's redelivery can be processed again.
type EventGuard struct {
	prefix    string
	lockTTL   time.Duration
	retention time.Duration
}

// NewEventGuard creates a guard whose keys live under prefix.
func NewEventGuard(prefix string, lockTTL, retention time.Duration) *EventGuard {
	return &EventGuard{prefix: prefix, lockTTL: lockTTL, retention: retention}
}

func (g *EventGuard) key(eventID string) string {
	return g.prefix + ":" + eventID
}

// Claim returns true when the caller is the first to see eventID.
// A Redis outage fails open and returns true alongside the error.
func (g *EventGuard) Claim(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return true, nil
	}
	ok, err := guardSetNX(ctx, g.key(eventID), eventStateProcessing, g.lockTTL)
	if err != nil {
		return true, err
	}
	return ok, nil
}

// Complete records eventID as processed for the retention window.
func (g *EventGuard) Complete(ctx context.Context, eventID string) error {
	if eventID == "" {
		return nil
	}
	return guardSet(ctx, g.key(eventID), eventStateDone, g.retention)
}

// Release forgets eventID so a redelivery is processed again.
func (g *EventGuard) Release(ctx context.Context, eventID string) error {
	if eventID == "" {
		return nil
	}
	return guardDel(ctx, g.key(eventID))
}
