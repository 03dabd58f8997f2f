package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docucheck.backend/internal/domain/entities"
	domainerrors "docucheck.backend/internal/domain/errors"
	"docucheck.backend/internal/interfaces/http/response"
	"docucheck.backend/internal/usecases"
)

// AdminHandler serves operator endpoints
type AdminHandler struct {
	admin adminService
	retry retryService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(admin adminService, retry retryService) *AdminHandler {
	return &AdminHandler{admin: admin, retry: retry}
}

// ListRequests lists verification requests
// GET /api/v1/admin/requests
func (h *AdminHandler) ListRequests(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	requests, meta, err := h.admin.List(c.Request.Context(), usecases.ListRequestsInput{
		Page:           page,
		Limit:          limit,
		Status:         entities.RequestStatus(c.Query("status")),
		TelegramStatus: entities.TelegramStatus(c.Query("telegramStatus")),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"items":      requests,
		"pagination": meta,
	})
}

// GetRequest returns one request with its transport error
// GET /api/v1/admin/requests/:id
func (h *AdminHandler) GetRequest(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}
	req, err := h.admin.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, req)
}

// DeleteRequest removes the stored document and then the record
// DELETE /api/v1/admin/requests/:id
func (h *AdminHandler) DeleteRequest(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}
	if err := h.admin.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// RetryRequest resends the document to the review channel
// POST /api/v1/admin/requests/:id/retry
func (h *AdminHandler) RetryRequest(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}
	req, err := h.retry.Retry(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, req)
}

// CompleteRequest records the reviewer verdict
// POST /api/v1/admin/requests/:id/complete
func (h *AdminHandler) CompleteRequest(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}
	var input usecases.CompletionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}
	req, err := h.admin.Complete(c.Request.Context(), id, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, req)
}

// GetFileURL returns a short-lived download link
// GET /api/v1/admin/requests/:id/file
func (h *AdminHandler) GetFileURL(c *gin.Context) {
	id, ok := requestIDParam(c)
	if !ok {
		return
	}
	url, err := h.admin.FileURL(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"url": url})
}

// GetSystemHealth summarizes dependency and backlog health
// GET /api/v1/admin/system/health
func (h *AdminHandler) GetSystemHealth(c *gin.Context) {
	report := h.admin.Health(c.Request.Context())
	status := http.StatusOK
	if report.Status == usecases.HealthUnhealthy {
		status = http.StatusServiceUnavailable
	}
	response.Success(c, status, report)
}

func requestIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid request ID"))
		return uuid.Nil, false
	}
	return id, true
}
