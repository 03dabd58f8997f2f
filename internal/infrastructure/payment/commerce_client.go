package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"docucheck.backend/internal/domain/entities"
	domainerrors "docucheck.backend/internal/domain/errors"
	"docucheck.backend/internal/domain/gateways"
)

const (
	headerAPIKey     = "X-CC-Api-Key"
	headerAPIVersion = "X-CC-Version"
	maxErrorBody     = 4 << 10
)

// CommerceClient is a hosted-checkout processor client
type CommerceClient struct {
	baseURL       string
	apiKey        string
	apiVersion    string
	webhookSecret string
	client        *http.Client
}

// NewCommerceClient creates a new processor client
func NewCommerceClient(baseURL, apiKey, apiVersion, webhookSecret string, timeout time.Duration) *CommerceClient {
	return &CommerceClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		apiVersion:    apiVersion,
		webhookSecret: webhookSecret,
		client:        &http.Client{Timeout: timeout},
	}
}

type money struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type createChargeRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	PricingType string            `json:"pricing_type"`
	LocalPrice  money             `json:"local_price"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// TimelineEntry is one status change in a processor charge timeline
type TimelineEntry struct {
	Time   time.Time `json:"time"`
	Status string    `json:"status"`
}

type chargeData struct {
	ID        string          `json:"id"`
	Code      string          `json:"code"`
	HostedURL string          `json:"hosted_url"`
	Timeline  []TimelineEntry `json:"timeline"`
}

type chargeResponse struct {
	Data chargeData `json:"data"`
}

// CreateCharge opens a fixed-price charge for amount/currency
func (c *CommerceClient) CreateCharge(ctx context.Context, amount, currency string, metadata map[string]string) (*gateways.CreatedCharge, error) {
	body, err := json.Marshal(createChargeRequest{
		Name:        "Document integrity check",
		Description: "Plagiarism and AI-score review",
		PricingType: "fixed_price",
		LocalPrice:  money{Amount: amount, Currency: currency},
		Metadata:    metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal charge: %w", err)
	}

	var resp chargeResponse
	if err := c.do(ctx, http.MethodPost, "/charges", body, &resp); err != nil {
		return nil, err
	}
	if resp.Data.ID == "" {
		return nil, fmt.Errorf("processor returned charge without id: %w", domainerrors.ErrProcessorUnavailable)
	}

	return &gateways.CreatedCharge{
		ChargeID:  resp.Data.ID,
		Code:      resp.Data.Code,
		HostedURL: resp.Data.HostedURL,
	}, nil
}

// VerifyCharge returns the normalized status of the chronologically last
// timeline entry. An unknown charge yields ErrNotFound.
func (c *CommerceClient) VerifyCharge(ctx context.Context, chargeID string) (entities.ChargeStatus, error) {
	if chargeID == "" {
		return entities.ChargeStatusUnknown, domainerrors.ErrNotFound
	}

	var resp chargeResponse
	if err := c.do(ctx, http.MethodGet, "/charges/"+chargeID, nil, &resp); err != nil {
		return entities.ChargeStatusUnknown, err
	}
	return LatestStatus(resp.Data.Timeline), nil
}

// VerifyWebhookSignature checks the hex HMAC-SHA256 of the raw body
func (c *CommerceClient) VerifyWebhookSignature(rawBody []byte, signature string) bool {
	return VerifySignature(c.webhookSecret, rawBody, signature)
}

func (c *CommerceClient) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set(headerAPIKey, c.apiKey)
	req.Header.Set(headerAPIVersion, c.apiVersion)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %v: %w", method, path, err, domainerrors.ErrProcessorUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, domainerrors.ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, domainerrors.ErrProcessorUnavailable)
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%s %s: status %d: %s: %w", method, path, resp.StatusCode, strings.TrimSpace(string(msg)), domainerrors.ErrInvalidInput)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode processor response: %v: %w", err, domainerrors.ErrProcessorUnavailable)
	}
	return nil
}

// LatestStatus collapses a processor timeline to its most recent normalized status
func LatestStatus(timeline []TimelineEntry) entities.ChargeStatus {
	if len(timeline) == 0 {
		return entities.ChargeStatusUnknown
	}
	sorted := make([]TimelineEntry, len(timeline))
	copy(sorted, timeline)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})
	return NormalizeTimelineStatus(sorted[len(sorted)-1].Status)
}

// NormalizeTimelineStatus maps a processor-native timeline status
func NormalizeTimelineStatus(status string) entities.ChargeStatus {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "NEW", "SIGNED", "PENDING":
		return entities.ChargeStatusPending
	case "COMPLETED", "CONFIRMED", "RESOLVED":
		return entities.ChargeStatusCompleted
	case "EXPIRED", "CANCELED", "CANCELLED", "FAILED":
		return entities.ChargeStatusFailed
	}
	return entities.ChargeStatusUnknown
}

// VerifySignature compares signature against HMAC-SHA256(secret, body) in
// constant time. An empty secret or signature never verifies.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	provided, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), provided)
}

// Sign returns the hex HMAC-SHA256 of body, used by tests and tooling
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
