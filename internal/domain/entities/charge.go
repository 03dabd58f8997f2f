package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// ChargeStatus is the normalized processor status of a charge
type ChargeStatus string

const (
	ChargeStatusPending   ChargeStatus = "PENDING"
	ChargeStatusCompleted ChargeStatus = "COMPLETED"
	ChargeStatusFailed    ChargeStatus = "FAILED"
	ChargeStatusUnknown   ChargeStatus = "UNKNOWN"
)

// IsTerminal reports whether the charge can no longer change
func (s ChargeStatus) IsTerminal() bool {
	return s == ChargeStatusCompleted || s == ChargeStatusFailed
}

// Charge is the local mirror of one processor transaction
type Charge struct {
	ID        string            `json:"id"`
	Code      string            `json:"code"`
	RequestID *uuid.UUID        `json:"requestId,omitempty"`
	OwnerID   *uuid.UUID        `json:"ownerId,omitempty"`
	Amount    string            `json:"amount"`
	Currency  string            `json:"currency"`
	Status    ChargeStatus      `json:"status"`
	HostedURL string            `json:"hostedUrl"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Ref returns the embedded view used on requests
func (c *Charge) Ref() *ChargeRef {
	return &ChargeRef{ID: c.ID, Amount: c.Amount, Currency: c.Currency, Status: c.Status}
}

// ChargeEventSource identifies how a status observation arrived
type ChargeEventSource string

const (
	ChargeEventSourceWebhook ChargeEventSource = "WEBHOOK"
	ChargeEventSourcePoll    ChargeEventSource = "POLL"
)

// ChargeEvent is an audit row for one status observation
type ChargeEvent struct {
	ID        uuid.UUID         `json:"id"`
	ChargeID  string            `json:"chargeId"`
	Source    ChargeEventSource `json:"source"`
	EventID   null.String       `json:"eventId"`
	EventType string            `json:"eventType"`
	Status    ChargeStatus      `json:"status"`
	Applied   bool              `json:"applied"`
	Payload   []byte            `json:"-"`
	CreatedAt time.Time         `json:"createdAt"`
}

// ChargeObservation describes where a status came from when applying it
type ChargeObservation struct {
	Source    ChargeEventSource
	EventID   string
	EventType string
	Payload   []byte
}
