package usecases

import (
	"context"
	"crypto/subtle"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"docucheck.backend/internal/domain/entities"
	domainerrors "docucheck.backend/internal/domain/errors"
	"docucheck.backend/internal/domain/gateways"
	"docucheck.backend/pkg/logger"
	"docucheck.backend/pkg/metrics"
)

// Webhook sources used in metrics and dedupe keys
const (
	WebhookSourcePayment = "payment"
	WebhookSourceBot     = "bot"
)

// EventDeduplicator claims inbound event ids so redeliveries are skipped
type EventDeduplicator interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Complete(ctx context.Context, eventID string) error
	Release(ctx context.Context, eventID string) error
}

// WebhookUsecase translates verified provider callbacks into state changes
type WebhookUsecase struct {
	payment     gateways.PaymentGateway
	bot         gateways.BotTransport
	charges     *ChargeUsecase
	interaction *InteractionUsecase
	dedupe      EventDeduplicator
	botSecret   string
}

// NewWebhookUsecase creates a new webhook usecase
func NewWebhookUsecase(
	payment gateways.PaymentGateway,
	bot gateways.BotTransport,
	charges *ChargeUsecase,
	interaction *InteractionUsecase,
	dedupe EventDeduplicator,
	botSecret string,
) *WebhookUsecase {
	return &WebhookUsecase{
		payment:     payment,
		bot:         bot,
		charges:     charges,
		interaction: interaction,
		dedupe:      dedupe,
		botSecret:   botSecret,
	}
}

// MapPaymentEventType maps a processor event name such as
// "charge:confirmed". ok is false for events that carry no status.
func MapPaymentEventType(eventType string) (entities.ChargeStatus, bool) {
	name := strings.ToLower(strings.TrimSpace(eventType))
	name = strings.TrimPrefix(name, "charge:")
	switch name {
	case "confirmed", "resolved":
		return entities.ChargeStatusCompleted, true
	case "failed", "canceled":
		return entities.ChargeStatusFailed, true
	case "pending", "delayed":
		return entities.ChargeStatusPending, true
	}
	return entities.ChargeStatusUnknown, false
}

// HandlePaymentWebhook verifies, parses and applies one processor delivery.
// Only a bad signature or a malformed body is returned as an error; every
// other outcome is acknowledged.
func (u *WebhookUsecase) HandlePaymentWebhook(ctx context.Context, rawBody []byte, signature string) error {
	if !u.payment.VerifyWebhookSignature(rawBody, signature) {
		metrics.ObserveWebhook(WebhookSourcePayment, metrics.OutcomeRejected)
		logger.Warn(ctx, "Payment webhook signature mismatch")
		return domainerrors.SignatureInvalid()
	}

	event, err := u.payment.ParseWebhookEvent(rawBody)
	if err != nil {
		metrics.ObserveWebhook(WebhookSourcePayment, metrics.OutcomeRejected)
		return domainerrors.BadRequest("malformed webhook body")
	}

	status, known := MapPaymentEventType(event.Type)
	if !known {
		metrics.ObserveWebhook(WebhookSourcePayment, metrics.OutcomeIgnored)
		logger.Info(ctx, "Ignoring payment event type", zap.String("type", event.Type), zap.String("charge_id", event.ChargeID))
		return nil
	}

	key := WebhookSourcePayment + ":" + event.ID
	if event.ID == "" {
		key = ""
	}
	first, err := u.dedupe.Claim(ctx, key)
	if err != nil {
		logger.Warn(ctx, "Webhook dedupe unavailable, processing anyway", zap.Error(err))
	}
	if !first {
		metrics.ObserveWebhook(WebhookSourcePayment, metrics.OutcomeDuplicate)
		logger.Info(ctx, "Duplicate payment event", zap.String("event_id", event.ID))
		return nil
	}

	applied, err := u.charges.ApplyChargeStatus(ctx, event.ChargeID, status, entities.ChargeObservation{
		Source:    entities.ChargeEventSourceWebhook,
		EventID:   event.ID,
		EventType: event.Type,
		Payload:   rawBody,
	})
	switch {
	case errors.Is(err, domainerrors.ErrNotFound):
		metrics.ObserveWebhook(WebhookSourcePayment, metrics.OutcomeIgnored)
		logger.Warn(ctx, "Payment event for unknown charge", zap.String("charge_id", event.ChargeID))
		u.completeEvent(ctx, key)
		return nil
	case err != nil:
		metrics.ObserveWebhook(WebhookSourcePayment, metrics.OutcomeError)
		logger.Error(ctx, "Failed to apply payment event", zap.String("charge_id", event.ChargeID), zap.Error(err))
		if rerr := u.dedupe.Release(ctx, key); rerr != nil {
			logger.Warn(ctx, "Failed to release webhook claim", zap.Error(rerr))
		}
		return nil
	}

	outcome := metrics.OutcomeIgnored
	if applied {
		outcome = metrics.OutcomeApplied
	}
	metrics.ObserveWebhook(WebhookSourcePayment, outcome)
	u.completeEvent(ctx, key)
	return nil
}

// HandleBotWebhook authenticates and dispatches one inbound bot update
func (u *WebhookUsecase) HandleBotWebhook(ctx context.Context, rawBody []byte, secretToken string) error {
	if u.botSecret == "" || subtle.ConstantTimeCompare([]byte(u.botSecret), []byte(secretToken)) != 1 {
		metrics.ObserveWebhook(WebhookSourceBot, metrics.OutcomeRejected)
		logger.Warn(ctx, "Bot webhook secret mismatch")
		return domainerrors.SignatureInvalid()
	}

	event, err := u.bot.ReceiveInbound(rawBody)
	if err != nil {
		metrics.ObserveWebhook(WebhookSourceBot, metrics.OutcomeIgnored)
		if errors.Is(err, domainerrors.ErrNoCorrelation) {
			logger.Info(ctx, "Dropping bot update without correlation id")
		} else {
			logger.Warn(ctx, "Dropping unreadable bot update", zap.Error(err))
		}
		return nil
	}
	defer u.answerCallback(ctx, event)

	key := ""
	if event.UpdateID != 0 {
		key = WebhookSourceBot + ":" + strconv.FormatInt(event.UpdateID, 10)
	}
	first, err := u.dedupe.Claim(ctx, key)
	if err != nil {
		logger.Warn(ctx, "Webhook dedupe unavailable, processing anyway", zap.Error(err))
	}
	if !first {
		metrics.ObserveWebhook(WebhookSourceBot, metrics.OutcomeDuplicate)
		return nil
	}

	if err := u.interaction.HandleEvent(ctx, event); err != nil {
		metrics.ObserveWebhook(WebhookSourceBot, metrics.OutcomeError)
		logger.Error(ctx, "Failed to handle bot event", zap.String("request_id", event.RequestID.String()), zap.Error(err))
		if rerr := u.dedupe.Release(ctx, key); rerr != nil {
			logger.Warn(ctx, "Failed to release webhook claim", zap.Error(rerr))
		}
	} else {
		metrics.ObserveWebhook(WebhookSourceBot, metrics.OutcomeApplied)
		u.completeEvent(ctx, key)
	}
	return nil
}

// answerCallback stops the button spinner in the operator's client
func (u *WebhookUsecase) answerCallback(ctx context.Context, event *entities.ParsedEvent) {
	if event.CallbackID == "" {
		return
	}
	if err := u.bot.AnswerCallback(ctx, event.CallbackID, "Received"); err != nil {
		logger.Debug(ctx, "Callback acknowledgement failed", zap.Error(err))
	}
}

func (u *WebhookUsecase) completeEvent(ctx context.Context, key string) {
	if err := u.dedupe.Complete(ctx, key); err != nil {
		logger.Warn(ctx, "Failed to mark webhook event processed", zap.Error(err))
	}
}
