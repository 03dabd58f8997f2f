package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/volatiletech/null/v8"

	"docucheck.backend/internal/domain/entities"
	"docucheck.backend/internal/usecases"
)

type harness struct {
	requests *fakeRequestRepo
	charges  *fakeChargeRepo
	events   *fakeChargeEventRepo
	dedupe   *fakeDedupe
	uow      *MockUnitOfWork
	storage  *MockStorage
	bot      *MockBot
	payment  *MockPayment

	completion  *usecases.CompletionUsecase
	interaction *usecases.InteractionUsecase
	delivery    *usecases.DeliveryUsecase
	documents   *usecases.DocumentUsecase
	chargeUC    *usecases.ChargeUsecase
	webhooks    *usecases.WebhookUsecase
	retries     *usecases.RetryUsecase
	admin       *usecases.AdminUsecase

	cacheErr error
}

const testBotSecret = "bot-secret"

func fastRetry() usecases.RetryPolicy {
	return usecases.RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithAuto(t, usecases.AutoRetryPolicy{})
}

func newHarnessWithAuto(t *testing.T, auto usecases.AutoRetryPolicy) *harness {
	t.Helper()
	h := &harness{
		requests: newFakeRequestRepo(),
		charges:  newFakeChargeRepo(),
		events:   &fakeChargeEventRepo{},
		dedupe:   newFakeDedupe(),
		uow:      new(MockUnitOfWork),
		storage:  new(MockStorage),
		bot:      new(MockBot),
		payment:  new(MockPayment),
	}
	h.uow.On("Do", mock.Anything, mock.Anything).Return(nil).Maybe()

	h.completion = usecases.NewCompletionUsecase(h.requests, h.charges)
	h.interaction = usecases.NewInteractionUsecase(h.requests, h.bot, h.completion)
	h.delivery = usecases.NewDeliveryUsecase(h.requests, h.storage, h.bot, h.interaction, fastRetry())
	h.documents = usecases.NewDocumentUsecase(h.requests, h.charges, h.uow, h.storage, h.delivery, usecases.DocumentPolicy{
		MaxUploadBytes: 1 << 10,
		AllowedRegions: []string{"europe", "north_america", "asia", "other"},
	}, fastRetry())
	h.chargeUC = usecases.NewChargeUsecase(h.charges, h.events, h.requests, h.uow, h.payment, fastRetry())
	h.webhooks = usecases.NewWebhookUsecase(h.payment, h.bot, h.chargeUC, h.interaction, h.dedupe, testBotSecret)
	h.retries = usecases.NewRetryUsecase(h.requests, h.delivery, auto)
	h.admin = usecases.NewAdminUsecase(h.requests, h.storage, h.completion, func(ctx context.Context) error {
		return h.cacheErr
	}, usecases.HealthPolicy{StaleThreshold: time.Hour, FailureThreshold: 3})
	return h
}

func boolPtr(v bool) *bool {
	return &v
}

// seedDelivered stores a request whose document reached the channel as
// message 101 and whose conversation sits at step.
func (h *harness) seedDelivered(step entities.InteractionStep) *entities.VerificationRequest {
	req := &entities.VerificationRequest{
		ID:                uuid.New(),
		OwnerID:           uuid.New(),
		Status:            entities.RequestStatusPending,
		TelegramStatus:    entities.TelegramStatusSent,
		TelegramMessageID: null.Int64From(101),
		Metadata: entities.RequestMetadata{
			FileKey:         "documents/x/thesis.pdf",
			FileName:        "thesis.pdf",
			MimeType:        "application/pdf",
			Region:          "europe",
			QuestionOne:     boolPtr(true),
			QuestionTwo:     boolPtr(false),
			InteractionStep: step,
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if step == entities.StepProcessing {
		req.Status = entities.RequestStatusProcessing
		started := time.Now().Add(-5 * time.Second).UTC()
		req.Metadata.ProcessingStartedAt = &started
	}
	h.requests.put(req)
	return req
}

func (h *harness) event(id uuid.UUID, kind entities.BotEventKind) *entities.ParsedEvent {
	return &entities.ParsedEvent{RequestID: id, Kind: kind}
}
