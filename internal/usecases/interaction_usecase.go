package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docucheck.backend/internal/domain/entities"
	domainerrors "docucheck.backend/internal/domain/errors"
	"docucheck.backend/internal/domain/gateways"
	"docucheck.backend/internal/domain/repositories"
	"docucheck.backend/pkg/logger"
	"docucheck.backend/pkg/metrics"
)

// InteractionUsecase drives a delivered request through the review
// conversation: region, two qualifying answers, then hand-off to review.
type InteractionUsecase struct {
	requestRepo repositories.VerificationRequestRepository
	bot         gateways.BotTransport
	completion  *CompletionUsecase
	now         func() time.Time
}

// NewInteractionUsecase creates a new interaction usecase
func NewInteractionUsecase(
	requestRepo repositories.VerificationRequestRepository,
	bot gateways.BotTransport,
	completion *CompletionUsecase,
) *InteractionUsecase {
	return &InteractionUsecase{
		requestRepo: requestRepo,
		bot:         bot,
		completion:  completion,
		now:         time.Now,
	}
}

// Start sends the first prompt after the document reached the channel
func (u *InteractionUsecase) Start(ctx context.Context, req *entities.VerificationRequest) error {
	prompt, err := promptAfter(req, entities.StepDocumentSent)
	if err != nil {
		return u.failInPlace(ctx, req, err)
	}
	if _, err := u.bot.SendCallback(ctx, req.TelegramMessageID.Int64, prompt); err != nil {
		return u.failInPlace(ctx, req, fmt.Errorf("send region prompt: %w", err))
	}
	return nil
}

// failInPlace records cause and refreshes req with the stored state so the
// caller answers with what was persisted.
func (u *InteractionUsecase) failInPlace(ctx context.Context, req *entities.VerificationRequest, cause error) error {
	stored, err := u.recordFailure(ctx, req.ID, cause)
	if err != nil {
		return err
	}
	*req = *stored
	return nil
}

// HandleEvent applies one inbound bot event. Events that do not match the
// expected next step are logged and ignored.
func (u *InteractionUsecase) HandleEvent(ctx context.Context, event *entities.ParsedEvent) error {
	ctx = logger.WithVerificationID(ctx, event.RequestID.String())

	switch event.Kind {
	case entities.BotEventComplete, entities.BotEventReject:
		return u.completeFromBot(ctx, event)
	case entities.BotEventMessage:
		logger.Debug(ctx, "Ignoring free-form bot message")
		return nil
	}

	target, ok := event.Kind.TargetStep()
	if !ok {
		logger.Warn(ctx, "Unknown bot event kind", zap.String("kind", string(event.Kind)))
		return nil
	}

	req, err := u.requestRepo.GetByID(ctx, event.RequestID)
	if errors.Is(err, domainerrors.ErrNotFound) {
		logger.Warn(ctx, "Bot event for unknown request")
		return nil
	}
	if err != nil {
		return err
	}
	return u.advance(ctx, req, target)
}

func (u *InteractionUsecase) advance(ctx context.Context, req *entities.VerificationRequest, target entities.InteractionStep) error {
	expected, _ := target.Previous()
	current := req.Step()
	if isTerminalStatus(req.Status) || current != expected {
		logger.Info(ctx, "Ignoring out-of-order bot event",
			zap.String("current_step", string(current)),
			zap.String("target_step", string(target)),
			zap.String("status", string(req.Status)),
		)
		return nil
	}

	if err := checkStepPrecondition(req, target); err != nil {
		return u.HandleError(ctx, req.ID, err)
	}

	req.Metadata.InteractionStep = target
	if target == entities.StepProcessing {
		startedAt := u.now().UTC()
		req.Status = entities.RequestStatusProcessing
		req.Metadata.ProcessingStartedAt = &startedAt
	}
	if err := u.requestRepo.Update(ctx, req); err != nil {
		if errors.Is(err, domainerrors.ErrStaleUpdate) {
			logger.Info(ctx, "Concurrent update won, dropping transition", zap.String("target_step", string(target)))
			return nil
		}
		return err
	}
	metrics.ObserveTransition(string(target))
	logger.Info(ctx, "Interaction step advanced", zap.String("step", string(target)))

	prompt, err := promptAfter(req, target)
	if err != nil {
		return u.HandleError(ctx, req.ID, err)
	}
	if _, err := u.bot.SendCallback(ctx, req.TelegramMessageID.Int64, prompt); err != nil {
		return u.HandleError(ctx, req.ID, fmt.Errorf("send prompt after %s: %w", target, err))
	}
	return nil
}

func (u *InteractionUsecase) completeFromBot(ctx context.Context, event *entities.ParsedEvent) error {
	outcome := OutcomeCompleted
	if event.Kind == entities.BotEventReject {
		outcome = OutcomeFailed
	}

	_, err := u.completion.Complete(ctx, event.RequestID, CompletionInput{Outcome: outcome, Note: event.Note})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domainerrors.ErrInvalidState),
		errors.Is(err, domainerrors.ErrNotFound),
		errors.Is(err, domainerrors.ErrStaleUpdate):
		logger.Info(ctx, "Ignoring completion from bot", zap.Error(err))
		return nil
	}
	return err
}

// HandleError moves the request to FAILED and records cause as the
// transport error. It never retries.
func (u *InteractionUsecase) HandleError(ctx context.Context, requestID uuid.UUID, cause error) error {
	logger.Error(ctx, "Interaction failed", zap.Error(cause))

	_, err := u.recordFailure(ctx, requestID, cause)
	return err
}

func (u *InteractionUsecase) recordFailure(ctx context.Context, requestID uuid.UUID, cause error) (*entities.VerificationRequest, error) {
	stored, err := mutateRequest(ctx, u.requestRepo, requestID, func(req *entities.VerificationRequest) error {
		if req.Status == entities.RequestStatusCompleted {
			return errNoChange
		}
		req.Status = entities.RequestStatusFailed
		req.MarkTransportFailed(cause.Error())
		req.Metadata.FailureReason = cause.Error()
		req.Metadata.InteractionStep = entities.StepFailed
		return nil
	})
	if err != nil {
		logger.Error(ctx, "Failed to record interaction failure", zap.Error(err))
		return nil, err
	}
	return stored, nil
}

func checkStepPrecondition(req *entities.VerificationRequest, target entities.InteractionStep) error {
	switch target {
	case entities.StepRegionSelection:
		if req.Metadata.Region == "" {
			return fmt.Errorf("region: %w", domainerrors.ErrMissingMetadata)
		}
	case entities.StepQuestionOne:
		if req.Metadata.QuestionOne == nil {
			return fmt.Errorf("questionOne: %w", domainerrors.ErrMissingMetadata)
		}
	case entities.StepQuestionTwo:
		if req.Metadata.QuestionTwo == nil {
			return fmt.Errorf("questionTwo: %w", domainerrors.ErrMissingMetadata)
		}
	}
	return nil
}

// promptAfter builds the prompt the operator sees once step is reached
func promptAfter(req *entities.VerificationRequest, step entities.InteractionStep) (entities.BotPrompt, error) {
	header := entities.CaptionIDPrefix + req.ID.String() + "\n"
	switch step {
	case entities.StepDocumentSent:
		if req.Metadata.Region == "" {
			return entities.BotPrompt{}, fmt.Errorf("region: %w", domainerrors.ErrMissingMetadata)
		}
		return entities.BotPrompt{
			Text: header + "Region: " + req.Metadata.Region + "\nConfirm the region to continue.",
			Buttons: [][]entities.PromptButton{{
				{Text: "Confirm " + req.Metadata.Region, Data: entities.CallbackData(entities.CallbackRegion, req.ID, req.Metadata.Region)},
			}},
		}, nil
	case entities.StepRegionSelection:
		return answerPrompt(req, header+"Question 1", entities.CallbackQuestionOne, req.Metadata.QuestionOne, "questionOne")
	case entities.StepQuestionOne:
		return answerPrompt(req, header+"Question 2", entities.CallbackQuestionTwo, req.Metadata.QuestionTwo, "questionTwo")
	case entities.StepQuestionTwo:
		return entities.BotPrompt{
			Text: header + "All answers confirmed. Submit the document for review.",
			Buttons: [][]entities.PromptButton{{
				{Text: "Submit for review", Data: entities.CallbackData(entities.CallbackSubmit, req.ID, "")},
			}},
		}, nil
	case entities.StepProcessing:
		return entities.BotPrompt{
			Text: header + "In review. Reply /complete <note> or /reject <note> to this document, or use the buttons.",
			Buttons: [][]entities.PromptButton{{
				{Text: "Complete", Data: entities.CallbackData(entities.CallbackComplete, req.ID, "")},
				{Text: "Reject", Data: entities.CallbackData(entities.CallbackReject, req.ID, "")},
			}},
		}, nil
	}
	return entities.BotPrompt{}, fmt.Errorf("no prompt after step %s: %w", step, domainerrors.ErrInvalidState)
}

func answerPrompt(req *entities.VerificationRequest, title, action string, answer *bool, key string) (entities.BotPrompt, error) {
	if answer == nil {
		return entities.BotPrompt{}, fmt.Errorf("%s: %w", key, domainerrors.ErrMissingMetadata)
	}
	value := yesNo(*answer)
	return entities.BotPrompt{
		Text: title + ": " + value + "\nConfirm the answer to continue.",
		Buttons: [][]entities.PromptButton{{
			{Text: "Confirm " + value, Data: entities.CallbackData(action, req.ID, value)},
		}},
	}, nil
}

func isTerminalStatus(s entities.RequestStatus) bool {
	return s == entities.RequestStatusCompleted || s == entities.RequestStatusFailed
}
