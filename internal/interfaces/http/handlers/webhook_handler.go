package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domainerrors "docucheck.backend/internal/domain/errors"
	"docucheck.backend/internal/interfaces/http/response"
)

const (
	PaymentSignatureHeader = "X-Signature"
	BotSecretHeader        = "X-Telegram-Bot-Api-Secret-Token"

	maxWebhookBodyBytes = 1 << 20
)

// WebhookHandler handles processor and bot callbacks
type WebhookHandler struct {
	webhooks webhookService
	timeout  time.Duration
}

// NewWebhookHandler creates a new webhook handler. Downstream work for one
// callback is bounded by timeout.
func NewWebhookHandler(webhooks webhookService, timeout time.Duration) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks, timeout: timeout}
}

// HandlePaymentWebhook handles processor charge events
// POST /api/v1/webhooks/payment
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	body, ok := h.readBody(c)
	if !ok {
		return
	}

	ctx, cancel := h.downstreamContext(c)
	defer cancel()

	if err := h.webhooks.HandlePaymentWebhook(ctx, body, c.GetHeader(PaymentSignatureHeader)); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// HandleBotWebhook handles Telegram updates
// POST /api/v1/webhooks/bot
func (h *WebhookHandler) HandleBotWebhook(c *gin.Context) {
	body, ok := h.readBody(c)
	if !ok {
		return
	}

	ctx, cancel := h.downstreamContext(c)
	defer cancel()

	if err := h.webhooks.HandleBotWebhook(ctx, body, c.GetHeader(BotSecretHeader)); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Signatures are computed over the exact bytes, so the body is read raw.
func (h *WebhookHandler) readBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("could not read request body"))
		return nil, false
	}
	return body, true
}

// The provider may hang up before processing ends; the work must still
// finish, but never for longer than the timeout.
func (h *WebhookHandler) downstreamContext(c *gin.Context) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(c.Request.Context())
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}
