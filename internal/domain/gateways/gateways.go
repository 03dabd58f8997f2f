package gateways

import (
	"context"
	"time"

	"docucheck.backend/internal/domain/entities"
)

// CreatedCharge is the processor's answer to a charge creation
type CreatedCharge struct {
	ChargeID  string
	Code      string
	HostedURL string
}

// PaymentEvent is the subset of a processor webhook delivery the service uses
type PaymentEvent struct {
	ID         string
	Type       string
	ChargeID   string
	ChargeCode string
	Metadata   map[string]string
}

// PaymentGateway talks to the commerce processor
type PaymentGateway interface {
	CreateCharge(ctx context.Context, amount, currency string, metadata map[string]string) (*CreatedCharge, error)
	VerifyCharge(ctx context.Context, chargeID string) (entities.ChargeStatus, error)
	VerifyWebhookSignature(rawBody []byte, signature string) bool
	ParseWebhookEvent(rawBody []byte) (*PaymentEvent, error)
}

// FileInfo describes a stored blob
type FileInfo struct {
	Key          string
	ContentType  string
	Size         int64
	LastModified time.Time
	Tags         map[string]string
}

// StorageGateway persists document blobs
type StorageGateway interface {
	Upload(ctx context.Context, content []byte, filename, mimeType string, tags map[string]string) (string, error)
	GetSignedURL(ctx context.Context, fileKey string) (string, error)
	GetFile(ctx context.Context, fileKey string) ([]byte, *FileInfo, error)
	DeleteFile(ctx context.Context, fileKey string) error
	Ping(ctx context.Context) error
}

// BotTransport relays documents to the review channel
type BotTransport interface {
	SendDocument(ctx context.Context, content []byte, filename, caption string) (int64, error)
	SendCallback(ctx context.Context, targetMessageID int64, prompt entities.BotPrompt) (int64, error)
	AnswerCallback(ctx context.Context, callbackID, text string) error
	ReceiveInbound(raw []byte) (*entities.ParsedEvent, error)
}
