package entities

import (
	"testing"
	"time"
)

func TestInteractionStep_Order(t *testing.T) {
	order := []InteractionStep{StepDocumentSent, StepRegionSelection, StepQuestionOne, StepQuestionTwo, StepProcessing}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Fatalf("expected %s after %s", order[i], order[i-1])
		}
		prev, ok := order[i].Previous()
		if !ok || prev != order[i-1] {
			t.Fatalf("expected predecessor of %s to be %s, got %s", order[i], order[i-1], prev)
		}
	}
	if StepCompleted.Rank() != StepFailed.Rank() {
		t.Fatalf("terminal steps must share rank")
	}
	if _, ok := StepDocumentSent.Previous(); ok {
		t.Fatalf("DOCUMENT_SENT has no predecessor")
	}
	if _, ok := StepCompleted.Previous(); ok {
		t.Fatalf("COMPLETED is not reachable from the conversation")
	}
	if InteractionStep("BOGUS").Rank() != -1 {
		t.Fatalf("unknown step must rank -1")
	}
}

func TestBotEventKind_TargetStep(t *testing.T) {
	cases := map[BotEventKind]InteractionStep{
		BotEventRegion:      StepRegionSelection,
		BotEventQuestionOne: StepQuestionOne,
		BotEventQuestionTwo: StepQuestionTwo,
		BotEventSubmit:      StepProcessing,
	}
	for kind, want := range cases {
		got, ok := kind.TargetStep()
		if !ok || got != want {
			t.Fatalf("%s: expected %s got %s", kind, want, got)
		}
	}
	for _, kind := range []BotEventKind{BotEventComplete, BotEventReject, BotEventMessage} {
		if _, ok := kind.TargetStep(); ok {
			t.Fatalf("%s must not drive the conversation", kind)
		}
	}
}

func TestVerificationRequest_Helpers(t *testing.T) {
	r := &VerificationRequest{Status: RequestStatusProcessing, UpdatedAt: time.Now().Add(-2 * time.Hour)}
	if r.Step() != StepDocumentSent {
		t.Fatalf("empty step must default to DOCUMENT_SENT")
	}
	if r.HasFile() {
		t.Fatalf("no file key set")
	}
	if !r.IsStuck(time.Now(), time.Hour) {
		t.Fatalf("expected stuck request")
	}

	r.MarkTransportFailed("network down")
	if r.TelegramStatus != TelegramStatusFailed || r.TelegramError.String != "network down" {
		t.Fatalf("unexpected transport state %+v", r)
	}
	if r.Status != RequestStatusProcessing {
		t.Fatalf("status must not change on transport failure")
	}

	r.MarkSent(42)
	if r.TelegramStatus != TelegramStatusSent || r.TelegramError.Valid || r.TelegramMessageID.Int64 != 42 {
		t.Fatalf("unexpected sent state %+v", r)
	}
}

func TestChargeStatus_IsTerminal(t *testing.T) {
	if ChargeStatusPending.IsTerminal() || ChargeStatusUnknown.IsTerminal() {
		t.Fatalf("pending/unknown are not terminal")
	}
	if !ChargeStatusCompleted.IsTerminal() || !ChargeStatusFailed.IsTerminal() {
		t.Fatalf("completed/failed are terminal")
	}
}
