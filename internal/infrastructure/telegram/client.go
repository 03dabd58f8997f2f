package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"docucheck.backend/internal/domain/entities"
	domainerrors "docucheck.backend/internal/domain/errors"
)

const maxCaptionLength = 1024

// Client sends documents and prompts to the review chat through the Bot API
type Client struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
}

// NewClient creates a new Bot API client
func NewClient(baseURL, token, chatID string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: timeout},
	}
}

// SendDocument uploads content to the review chat and returns the message id
func (c *Client) SendDocument(ctx context.Context, content []byte, filename, caption string) (int64, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("chat_id", c.chatID); err != nil {
		return 0, err
	}
	if err := writer.WriteField("caption", truncateCaption(caption)); err != nil {
		return 0, err
	}
	part, err := writer.CreateFormFile("document", filename)
	if err != nil {
		return 0, err
	}
	if _, err := part.Write(content); err != nil {
		return 0, err
	}
	if err := writer.Close(); err != nil {
		return 0, err
	}

	var msg Message
	if err := c.call(ctx, "sendDocument", writer.FormDataContentType(), &buf, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// SendCallback replies to targetMessageID with the prompt and its buttons
func (c *Client) SendCallback(ctx context.Context, targetMessageID int64, prompt entities.BotPrompt) (int64, error) {
	req := sendMessageRequest{
		ChatID:           c.chatID,
		Text:             prompt.Text,
		ReplyToMessageID: targetMessageID,
	}
	if len(prompt.Buttons) > 0 {
		markup := &InlineKeyboardMarkup{}
		for _, row := range prompt.Buttons {
			buttons := make([]InlineKeyboardButton, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, InlineKeyboardButton{Text: b.Text, CallbackData: b.Data})
			}
			markup.InlineKeyboard = append(markup.InlineKeyboard, buttons)
		}
		req.ReplyMarkup = markup
	}

	body, err := json.Marshal(req)
	if err != nil {
		return 0, err
	}

	var msg Message
	if err := c.call(ctx, "sendMessage", "application/json", bytes.NewReader(body), &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// AnswerCallback acknowledges a button press so the client stops spinning
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if callbackID == "" {
		return nil
	}
	body, err := json.Marshal(answerCallbackRequest{CallbackQueryID: callbackID, Text: text})
	if err != nil {
		return err
	}
	return c.call(ctx, "answerCallbackQuery", "application/json", bytes.NewReader(body), nil)
}

// ReceiveInbound parses a raw webhook update
func (c *Client) ReceiveInbound(raw []byte) (*entities.ParsedEvent, error) {
	return ParseUpdate(raw)
}

func (c *Client) call(ctx context.Context, method, contentType string, body io.Reader, out interface{}) error {
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		// the url carries the token, keep it out of the error text
		return fmt.Errorf("telegram %s: request failed: %w", method, domainerrors.ErrTransportUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return fmt.Errorf("telegram %s: status %d: %w", method, resp.StatusCode, domainerrors.ErrTransportUnavailable)
	}

	var env apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env); err != nil {
		return fmt.Errorf("telegram %s: decode response: %v: %w", method, err, domainerrors.ErrTransportUnavailable)
	}
	if !env.OK {
		return fmt.Errorf("telegram %s: %d %s", method, env.ErrorCode, env.Description)
	}
	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("telegram %s: decode result: %w", method, err)
		}
	}
	return nil
}

func truncateCaption(caption string) string {
	if utf8.RuneCountInString(caption) <= maxCaptionLength {
		return caption
	}
	runes := []rune(caption)
	return string(runes[:maxCaptionLength])
}
