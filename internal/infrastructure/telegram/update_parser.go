package telegram

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"docucheck.backend/internal/domain/entities"
	domainerrors "docucheck.backend/internal/domain/errors"
	"github.com/google/uuid"
)

var captionIDPattern = regexp.MustCompile(`(?i)\bID:\s*([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})\b`)

var callbackKinds = map[string]entities.BotEventKind{
	entities.CallbackRegion:      entities.BotEventRegion,
	entities.CallbackQuestionOne: entities.BotEventQuestionOne,
	entities.CallbackQuestionTwo: entities.BotEventQuestionTwo,
	entities.CallbackSubmit:      entities.BotEventSubmit,
	entities.CallbackComplete:    entities.BotEventComplete,
	entities.CallbackReject:      entities.BotEventReject,
}

var commandKinds = map[string]entities.BotEventKind{
	"/complete": entities.BotEventComplete,
	"/reject":   entities.BotEventReject,
}

// ParseUpdate extracts the correlated request and event kind from a raw
// update. Callback data is preferred; otherwise the request id is matched in
// the message caption or text, then in the message it replies to.
// ErrNoCorrelation is returned when no request id can be found.
func ParseUpdate(raw []byte) (*entities.ParsedEvent, error) {
	var update Update
	if err := json.Unmarshal(raw, &update); err != nil {
		return nil, fmt.Errorf("malformed update: %v: %w", err, domainerrors.ErrInvalidInput)
	}

	if cq := update.CallbackQuery; cq != nil {
		event, err := ParseCallbackData(cq.Data)
		if err != nil {
			return nil, err
		}
		event.UpdateID = update.UpdateID
		event.CallbackID = cq.ID
		if cq.Message != nil {
			event.MessageID = cq.Message.MessageID
		}
		return event, nil
	}

	msg := firstMessage(update)
	if msg == nil {
		return nil, domainerrors.ErrNoCorrelation
	}

	id, ok := ExtractRequestID(messageText(msg))
	if !ok && msg.ReplyToMessage != nil {
		id, ok = ExtractRequestID(messageText(msg.ReplyToMessage))
	}
	if !ok {
		return nil, domainerrors.ErrNoCorrelation
	}

	event := &entities.ParsedEvent{
		RequestID: id,
		Kind:      entities.BotEventMessage,
		UpdateID:  update.UpdateID,
		MessageID: msg.MessageID,
	}
	if kind, note, ok := parseCommand(messageText(msg)); ok {
		event.Kind = kind
		event.Note = note
	}
	return event, nil
}

// ParseCallbackData decodes <action>:<requestId>[:<value>]
func ParseCallbackData(data string) (*entities.ParsedEvent, error) {
	parts := strings.SplitN(strings.TrimSpace(data), ":", 3)
	if len(parts) < 2 {
		return nil, domainerrors.ErrNoCorrelation
	}
	kind, ok := callbackKinds[strings.ToLower(parts[0])]
	if !ok {
		return nil, domainerrors.ErrNoCorrelation
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, domainerrors.ErrNoCorrelation
	}

	event := &entities.ParsedEvent{RequestID: id, Kind: kind}
	if len(parts) == 3 {
		event.Value = parts[2]
	}
	return event, nil
}

// ExtractRequestID finds the first ID:<uuid> marker in text
func ExtractRequestID(text string) (uuid.UUID, bool) {
	match := captionIDPattern.FindStringSubmatch(text)
	if len(match) < 2 {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(match[1])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func firstMessage(update Update) *Message {
	for _, msg := range []*Message{update.Message, update.ChannelPost, update.EditedMessage, update.EditedChannelPost} {
		if msg != nil {
			return msg
		}
	}
	return nil
}

func messageText(msg *Message) string {
	if msg.Caption != "" && msg.Text != "" {
		return msg.Caption + "\n" + msg.Text
	}
	if msg.Caption != "" {
		return msg.Caption
	}
	return msg.Text
}

// parseCommand recognises /complete [note] and /reject [note], with an
// optional @botname suffix on the command.
func parseCommand(text string) (entities.BotEventKind, string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	cmd, rest := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i > 0 {
		cmd, rest = text[:i], text[i:]
	}
	cmd = strings.ToLower(cmd)
	if at := strings.Index(cmd, "@"); at > 0 {
		cmd = cmd[:at]
	}
	kind, ok := commandKinds[cmd]
	if !ok {
		return "", "", false
	}
	return kind, strings.TrimSpace(rest), true
}
