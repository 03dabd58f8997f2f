package handlers

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainerrors "docucheck.backend/internal/domain/errors"
	"docucheck.backend/internal/interfaces/http/middleware"
	"docucheck.backend/internal/interfaces/http/response"
	"docucheck.backend/internal/usecases"
)

// DocumentHandler handles user document submissions
type DocumentHandler struct {
	documents      documentService
	maxUploadBytes int64
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documents documentService, maxUploadBytes int64) *DocumentHandler {
	return &DocumentHandler{documents: documents, maxUploadBytes: maxUploadBytes}
}

// SubmitDocument accepts a document and its review answers
// POST /api/v1/documents
func (h *DocumentHandler) SubmitDocument(c *gin.Context) {
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		response.PublicError(c, domainerrors.Unauthorized("unauthorized"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.PublicError(c, domainerrors.BadRequest("file is required"))
		return
	}
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		response.PublicError(c, domainerrors.BadRequest("file exceeds the maximum upload size"))
		return
	}
	content, err := readUpload(fileHeader)
	if err != nil {
		response.PublicError(c, domainerrors.BadRequest("could not read uploaded file"))
		return
	}

	questionOne, err := formBool(c, "questionOne")
	if err != nil {
		response.PublicError(c, err)
		return
	}
	questionTwo, err := formBool(c, "questionTwo")
	if err != nil {
		response.PublicError(c, err)
		return
	}

	req, err := h.documents.Submit(c.Request.Context(), usecases.SubmitDocumentInput{
		OwnerID:     ownerID,
		FileName:    fileHeader.Filename,
		MimeType:    detectMimeType(fileHeader, content),
		Content:     content,
		Region:      c.PostForm("region"),
		QuestionOne: questionOne,
		QuestionTwo: questionTwo,
		ChargeID:    strings.TrimSpace(c.PostForm("chargeId")),
	})
	if err != nil {
		response.PublicError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, usecases.ToDocumentView(req))
}

// GetDocument returns the coarse status of the caller's request
// GET /api/v1/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		response.PublicError(c, domainerrors.Unauthorized("unauthorized"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.PublicError(c, domainerrors.BadRequest("invalid request ID"))
		return
	}

	view, err := h.documents.GetForOwner(c.Request.Context(), ownerID, id)
	if err != nil {
		response.PublicError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// detectMimeType trusts a specific client type and sniffs otherwise
func detectMimeType(fh *multipart.FileHeader, content []byte) string {
	declared := fh.Header.Get("Content-Type")
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mimetype.Detect(content).String()
}

func formBool(c *gin.Context, field string) (*bool, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return nil, nil
	}
	switch strings.ToLower(raw) {
	case "yes":
		raw = "true"
	case "no":
		raw = "false"
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, domainerrors.BadRequest(field + " must be a boolean")
	}
	return &v, nil
}
