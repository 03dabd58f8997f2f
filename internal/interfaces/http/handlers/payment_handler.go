package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrors "docucheck.backend/internal/domain/errors"
	"docucheck.backend/internal/interfaces/http/middleware"
	"docucheck.backend/internal/interfaces/http/response"
	"docucheck.backend/internal/usecases"
)

// PaymentHandler handles charge creation and status lookups
type PaymentHandler struct {
	charges chargeService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(charges chargeService) *PaymentHandler {
	return &PaymentHandler{charges: charges}
}

// CreateCharge opens a hosted checkout
// POST /api/v1/payments/charges
func (h *PaymentHandler) CreateCharge(c *gin.Context) {
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		response.PublicError(c, domainerrors.Unauthorized("unauthorized"))
		return
	}

	var input usecases.CreateChargeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.PublicError(c, domainerrors.BadRequest(err.Error()))
		return
	}

	charge, err := h.charges.CreateCharge(c.Request.Context(), ownerID, input)
	if err != nil {
		response.PublicError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"chargeId":  charge.ID,
		"hostedUrl": charge.HostedURL,
	})
}

// GetCharge returns the caller's charge status
// GET /api/v1/payments/charges/:id
func (h *PaymentHandler) GetCharge(c *gin.Context) {
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		response.PublicError(c, domainerrors.Unauthorized("unauthorized"))
		return
	}

	charge, err := h.charges.GetCharge(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		response.PublicError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"status":   charge.Status,
		"amount":   charge.Amount,
		"currency": charge.Currency,
	})
}
