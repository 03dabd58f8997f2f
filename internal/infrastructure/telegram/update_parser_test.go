package telegram

import (
	"testing"

	"docucheck.backend/internal/domain/entities"
	domainerrors "docucheck.backend/internal/domain/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testID = "0190a0b2-6c1e-7d3f-9a4b-1c2d3e4f5a6b"

func TestExtractRequestID(t *testing.T) {
	want := uuid.MustParse(testID)
	cases := []struct {
		name string
		text string
		ok   bool
	}{
		{"first line", "ID:" + testID + "\nRegion: europe", true},
		{"space after colon", "ID: " + testID, true},
		{"lowercase marker", "id:" + testID, true},
		{"uppercase uuid", "ID:0190A0B2-6C1E-7D3F-9A4B-1C2D3E4F5A6B", true},
		{"embedded in sentence", "please review ID:" + testID + " asap", true},
		{"later line", "Region: europe\nID:" + testID, true},
		{"empty", "", false},
		{"no marker", testID, false},
		{"marker without id", "ID:", false},
		{"truncated uuid", "ID:0190a0b2-6c1e-7d3f-9a4b-1c2d3e4f5a6", false},
		{"overlong uuid", "ID:" + testID + "7", false},
		{"non hex", "ID:0190a0b2-6c1e-7d3f-9a4b-1c2d3e4f5z6b", false},
		{"missing dashes", "ID:0190a0b26c1e7d3f9a4b1c2d3e4f5a6b", false},
		{"glued prefix", "RequestID:" + testID, false},
		{"other marker", "Ref:" + testID, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractRequestID(tc.text)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, want, got)
			} else {
				assert.Equal(t, uuid.Nil, got)
			}
		})
	}
}

func TestExtractRequestID_FirstMatchWins(t *testing.T) {
	other := uuid.New()
	got, ok := ExtractRequestID("ID:" + testID + "\nID:" + other.String())
	require.True(t, ok)
	assert.Equal(t, uuid.MustParse(testID), got)
}

func TestParseCallbackData(t *testing.T) {
	want := uuid.MustParse(testID)
	cases := []struct {
		data  string
		kind  entities.BotEventKind
		value string
	}{
		{"region:" + testID + ":europe", entities.BotEventRegion, "europe"},
		{"q1:" + testID + ":yes", entities.BotEventQuestionOne, "yes"},
		{"q2:" + testID + ":no", entities.BotEventQuestionTwo, "no"},
		{"submit:" + testID, entities.BotEventSubmit, ""},
		{"complete:" + testID, entities.BotEventComplete, ""},
		{"REJECT:" + testID + ":duplicate:submission", entities.BotEventReject, "duplicate:submission"},
	}
	for _, tc := range cases {
		event, err := ParseCallbackData(tc.data)
		require.NoError(t, err, tc.data)
		assert.Equal(t, want, event.RequestID, tc.data)
		assert.Equal(t, tc.kind, event.Kind, tc.data)
		assert.Equal(t, tc.value, event.Value, tc.data)
	}

	for _, bad := range []string{"", "region", "region:", "region:not-a-uuid", "unknown:" + testID, ":" + testID} {
		_, err := ParseCallbackData(bad)
		assert.ErrorIs(t, err, domainerrors.ErrNoCorrelation, bad)
	}
}

func TestCallbackDataRoundTrip(t *testing.T) {
	id := uuid.New()
	event, err := ParseCallbackData(entities.CallbackData(entities.CallbackRegion, id, "asia"))
	require.NoError(t, err)
	assert.Equal(t, id, event.RequestID)
	assert.Equal(t, "asia", event.Value)

	got, ok := ExtractRequestID(entities.CorrelationCaption(id, "Region: asia", "", "File: a.pdf"))
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestParseUpdate_CallbackQuery(t *testing.T) {
	raw := `{"update_id":10,"callback_query":{"id":"cb-1","data":"q1:` + testID + `:yes","message":{"message_id":55,"chat":{"id":-100}}}}`
	event, err := ParseUpdate([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, entities.BotEventQuestionOne, event.Kind)
	assert.Equal(t, "yes", event.Value)
	assert.Equal(t, "cb-1", event.CallbackID)
	assert.Equal(t, int64(55), event.MessageID)
	assert.Equal(t, int64(10), event.UpdateID)
}

func TestParseUpdate_CallbackQueryWithBadData(t *testing.T) {
	raw := `{"update_id":11,"callback_query":{"id":"cb-2","data":"noise","message":{"message_id":55,"caption":"ID:` + testID + `"}}}`
	_, err := ParseUpdate([]byte(raw))
	require.ErrorIs(t, err, domainerrors.ErrNoCorrelation)
}

func TestParseUpdate_Messages(t *testing.T) {
	want := uuid.MustParse(testID)
	cases := []struct {
		name string
		raw  string
		kind entities.BotEventKind
		note string
	}{
		{
			name: "channel post caption",
			raw:  `{"update_id":1,"channel_post":{"message_id":7,"caption":"ID:` + testID + `\nRegion: europe"}}`,
			kind: entities.BotEventMessage,
		},
		{
			name: "plain message text",
			raw:  `{"update_id":2,"message":{"message_id":8,"text":"status of ID: ` + testID + `?"}}`,
			kind: entities.BotEventMessage,
		},
		{
			name: "complete command in reply",
			raw:  `{"update_id":3,"message":{"message_id":9,"text":"/complete similarity 12%","reply_to_message":{"message_id":7,"caption":"ID:` + testID + `"}}}`,
			kind: entities.BotEventComplete,
			note: "similarity 12%",
		},
		{
			name: "reject command with bot suffix and newline",
			raw:  `{"update_id":4,"message":{"message_id":10,"text":"/reject@docubot\nunreadable scan","reply_to_message":{"message_id":7,"caption":"ID:` + testID + `"}}}`,
			kind: entities.BotEventReject,
			note: "unreadable scan",
		},
		{
			name: "complete without note",
			raw:  `{"update_id":5,"message":{"message_id":11,"text":"/complete","reply_to_message":{"message_id":7,"text":"ID:` + testID + `"}}}`,
			kind: entities.BotEventComplete,
		},
		{
			name: "edited channel post",
			raw:  `{"update_id":6,"edited_channel_post":{"message_id":12,"caption":"ID:` + testID + `"}}`,
			kind: entities.BotEventMessage,
		},
		{
			name: "unknown command is a message",
			raw:  `{"update_id":7,"message":{"message_id":13,"text":"/start ID:` + testID + `"}}`,
			kind: entities.BotEventMessage,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			event, err := ParseUpdate([]byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, want, event.RequestID)
			assert.Equal(t, tc.kind, event.Kind)
			assert.Equal(t, tc.note, event.Note)
		})
	}
}

func TestParseUpdate_NoCorrelation(t *testing.T) {
	cases := map[string]string{
		"empty update":            `{"update_id":1}`,
		"text without id":         `{"update_id":2,"message":{"message_id":1,"text":"hello"}}`,
		"command without id":      `{"update_id":3,"message":{"message_id":1,"text":"/complete done"}}`,
		"reply to message no id":  `{"update_id":4,"message":{"message_id":1,"text":"ok","reply_to_message":{"message_id":2,"caption":"Region: europe"}}}`,
		"malformed id in caption": `{"update_id":5,"channel_post":{"message_id":1,"caption":"ID:1234"}}`,
	}
	for name, raw := range cases {
		_, err := ParseUpdate([]byte(raw))
		assert.ErrorIs(t, err, domainerrors.ErrNoCorrelation, name)
	}
}

func TestParseUpdate_Malformed(t *testing.T) {
	_, err := ParseUpdate([]byte(`{"update_id":`))
	require.ErrorIs(t, err, domainerrors.ErrInvalidInput)
}
