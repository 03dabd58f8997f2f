package entities

import "github.com/google/uuid"

// BotEventKind classifies an inbound update from the review channel
type BotEventKind string

const (
	BotEventRegion      BotEventKind = "REGION"
	BotEventQuestionOne BotEventKind = "QUESTION_ONE"
	BotEventQuestionTwo BotEventKind = "QUESTION_TWO"
	BotEventSubmit      BotEventKind = "SUBMIT"
	BotEventComplete    BotEventKind = "COMPLETE"
	BotEventReject      BotEventKind = "REJECT"
	BotEventMessage     BotEventKind = "MESSAGE"
)

// TargetStep returns the step a conversational event advances to
func (k BotEventKind) TargetStep() (InteractionStep, bool) {
	switch k {
	case BotEventRegion:
		return StepRegionSelection, true
	case BotEventQuestionOne:
		return StepQuestionOne, true
	case BotEventQuestionTwo:
		return StepQuestionTwo, true
	case BotEventSubmit:
		return StepProcessing, true
	}
	return "", false
}

// ParsedEvent is an inbound update correlated to a request id
type ParsedEvent struct {
	RequestID  uuid.UUID
	Kind       BotEventKind
	Value      string
	Note       string
	UpdateID   int64
	MessageID  int64
	CallbackID string
}

// PromptButton is one inline keyboard button
type PromptButton struct {
	Text string
	Data string
}

// BotPrompt is a message with inline buttons sent as a reply to the
// document message. Each inner slice is one keyboard row.
type BotPrompt struct {
	Text    string
	Buttons [][]PromptButton
}

// Callback actions carried in inline button data as <action>:<requestId>[:<value>]
const (
	CallbackRegion      = "region"
	CallbackQuestionOne = "q1"
	CallbackQuestionTwo = "q2"
	CallbackSubmit      = "submit"
	CallbackComplete    = "complete"
	CallbackReject      = "reject"
)

// CaptionIDPrefix starts the first line of every document caption
const CaptionIDPrefix = "ID:"

// CallbackData encodes button data for requestID
func CallbackData(action string, requestID uuid.UUID, value string) string {
	data := action + ":" + requestID.String()
	if value != "" {
		data += ":" + value
	}
	return data
}

// CorrelationCaption builds a caption whose first line is ID:<requestId>
func CorrelationCaption(requestID uuid.UUID, lines ...string) string {
	caption := CaptionIDPrefix + requestID.String()
	for _, line := range lines {
		if line != "" {
			caption += "\n" + line
		}
	}
	return caption
}
