package payment

import (
	"encoding/json"
	"fmt"

	domainerrors "docucheck.backend/internal/domain/errors"
	"docucheck.backend/internal/domain/gateways"
)

type webhookEnvelope struct {
	ID    json.RawMessage `json:"id"`
	Event struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			ID       string            `json:"id"`
			Code     string            `json:"code"`
			Metadata map[string]string `json:"metadata"`
		} `json:"data"`
	} `json:"event"`
}

// ParseWebhookEvent decodes a delivery body. The body must already have
// passed signature verification.
func (c *CommerceClient) ParseWebhookEvent(raw []byte) (*gateways.PaymentEvent, error) {
	return ParseWebhookEvent(raw)
}

// ParseWebhookEvent decodes a delivery body without a client
func ParseWebhookEvent(raw []byte) (*gateways.PaymentEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed webhook body: %v: %w", err, domainerrors.ErrInvalidInput)
	}
	if env.Event.Type == "" || env.Event.Data.ID == "" {
		return nil, fmt.Errorf("webhook body missing event type or charge id: %w", domainerrors.ErrInvalidInput)
	}

	eventID := env.Event.ID
	if eventID == "" {
		eventID = envelopeID(env.ID)
	}
	return &gateways.PaymentEvent{
		ID:         eventID,
		Type:       env.Event.Type,
		ChargeID:   env.Event.Data.ID,
		ChargeCode: env.Event.Data.Code,
		Metadata:   env.Event.Data.Metadata,
	}, nil
}

// envelopeID renders the outer delivery id, which arrives as either a string
// or an integer. Numbers keep their literal digits.
func envelopeID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
