package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// RequestStatus represents the overall status of a verification request
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "PENDING"
	RequestStatusProcessing RequestStatus = "PROCESSING"
	RequestStatusCompleted  RequestStatus = "COMPLETED"
	RequestStatusFailed     RequestStatus = "FAILED"
)

// IsValid reports whether s is a known request status
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusProcessing, RequestStatusCompleted, RequestStatusFailed:
		return true
	}
	return false
}

// TelegramStatus tracks the bot delivery leg only
type TelegramStatus string

const (
	TelegramStatusPending TelegramStatus = "PENDING"
	TelegramStatusSent    TelegramStatus = "SENT"
	TelegramStatusFailed  TelegramStatus = "FAILED"
)

// IsValid reports whether s is a known telegram status
func (s TelegramStatus) IsValid() bool {
	switch s {
	case TelegramStatusPending, TelegramStatusSent, TelegramStatusFailed:
		return true
	}
	return false
}

// InteractionStep is the position of a request inside the review conversation
type InteractionStep string

const (
	StepDocumentSent    InteractionStep = "DOCUMENT_SENT"
	StepRegionSelection InteractionStep = "REGION_SELECTION"
	StepQuestionOne     InteractionStep = "QUESTION_ONE"
	StepQuestionTwo     InteractionStep = "QUESTION_TWO"
	StepProcessing      InteractionStep = "PROCESSING"
	StepCompleted       InteractionStep = "COMPLETED"
	StepFailed          InteractionStep = "FAILED"
)

var stepRank = map[InteractionStep]int{
	StepDocumentSent:    0,
	StepRegionSelection: 1,
	StepQuestionOne:     2,
	StepQuestionTwo:     3,
	StepProcessing:      4,
	StepCompleted:       5,
	StepFailed:          5,
}

// Rank returns the position of s in the step order, or -1 when unknown.
// COMPLETED and FAILED share the terminal rank.
func (s InteractionStep) Rank() int {
	if r, ok := stepRank[s]; ok {
		return r
	}
	return -1
}

// Previous returns the step that must be current for s to be entered by the
// conversation. Terminal steps have no conversational predecessor.
func (s InteractionStep) Previous() (InteractionStep, bool) {
	switch s {
	case StepRegionSelection:
		return StepDocumentSent, true
	case StepQuestionOne:
		return StepRegionSelection, true
	case StepQuestionTwo:
		return StepQuestionOne, true
	case StepProcessing:
		return StepQuestionTwo, true
	}
	return "", false
}

// IsTerminal reports whether no further transitions occur from s
func (s InteractionStep) IsTerminal() bool {
	return s == StepCompleted || s == StepFailed
}

// Reconciliation markers stored in metadata
const (
	ReconciliationRefundReview = "REFUND_REVIEW"
)

// RequestMetadata is the open key/value bag of a verification request.
// Known keys are typed; anything else lives in Extra.
type RequestMetadata struct {
	FileKey             string            `json:"fileKey,omitempty"`
	FileName            string            `json:"fileName,omitempty"`
	MimeType            string            `json:"mimeType,omitempty"`
	FileSize            int64             `json:"fileSize,omitempty"`
	Region              string            `json:"region,omitempty"`
	QuestionOne         *bool             `json:"questionOne,omitempty"`
	QuestionTwo         *bool             `json:"questionTwo,omitempty"`
	InteractionStep     InteractionStep   `json:"interactionStep,omitempty"`
	ProcessingStartedAt *time.Time        `json:"processingStartedAt,omitempty"`
	ProcessingTimeMs    *int64            `json:"processingTimeMs,omitempty"`
	FailureReason       string            `json:"failureReason,omitempty"`
	Reconciliation      string            `json:"reconciliation,omitempty"`
	OutcomeNote         string            `json:"outcomeNote,omitempty"`
	SimilarityScore     *float64          `json:"similarityScore,omitempty"`
	AIScore             *float64          `json:"aiScore,omitempty"`
	Extra               map[string]string `json:"extra,omitempty"`
}

// ChargeRef is the read-side view of the charge linked to a request
type ChargeRef struct {
	ID       string       `json:"id"`
	Amount   string       `json:"amount"`
	Currency string       `json:"currency"`
	Status   ChargeStatus `json:"status"`
}

// VerificationRequest represents one submitted document and its lifecycle
type VerificationRequest struct {
	ID                uuid.UUID       `json:"id"`
	OwnerID           uuid.UUID       `json:"ownerId"`
	Status            RequestStatus   `json:"status"`
	TelegramStatus    TelegramStatus  `json:"telegramStatus"`
	TelegramError     null.String     `json:"telegramError"`
	TelegramMessageID null.Int64      `json:"telegramMessageId"`
	RetryCount        int             `json:"retryCount"`
	Metadata          RequestMetadata `json:"metadata"`
	ChargeID          null.String     `json:"chargeId"`
	Version           int             `json:"-"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`

	// Joins
	Payment *ChargeRef `json:"payment,omitempty"`
}

// Step returns the current interaction step, defaulting to DOCUMENT_SENT
func (r *VerificationRequest) Step() InteractionStep {
	if r.Metadata.InteractionStep == "" {
		return StepDocumentSent
	}
	return r.Metadata.InteractionStep
}

// HasFile reports whether a stored blob is referenced
func (r *VerificationRequest) HasFile() bool {
	return r.Metadata.FileKey != ""
}

// IsStuck reports whether the request sat in PROCESSING longer than threshold
func (r *VerificationRequest) IsStuck(now time.Time, threshold time.Duration) bool {
	return r.Status == RequestStatusProcessing && now.Sub(r.UpdatedAt) > threshold
}

// MarkTransportFailed records a failed delivery without touching Status
func (r *VerificationRequest) MarkTransportFailed(reason string) {
	r.TelegramStatus = TelegramStatusFailed
	r.TelegramError = null.StringFrom(reason)
}

// MarkSent records a successful delivery
func (r *VerificationRequest) MarkSent(messageID int64) {
	r.TelegramStatus = TelegramStatusSent
	r.TelegramError = null.String{}
	r.TelegramMessageID = null.Int64From(messageID)
}
