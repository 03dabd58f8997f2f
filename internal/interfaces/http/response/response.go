package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrors "docucheck.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response with the full message
func Error(c *gin.Context, err error) {
	appErr := domainerrors.FromDomain(err)
	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}

// PublicError is Error for end-user endpoints. Server-side failures are
// reported with a generic message only.
func PublicError(c *gin.Context, err error) {
	appErr := domainerrors.FromDomain(err)
	message := appErr.Message
	if appErr.Status >= http.StatusInternalServerError {
		message = http.StatusText(appErr.Status)
	}
	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": message,
	})
}

// ErrorWithError sends an error response with a specific status and message
func ErrorWithError(c *gin.Context, status int, code string, message string) {
	c.JSON(status, gin.H{
		"code":    code,
		"message": message,
	})
}

// Abort writes an error response and stops the handler chain
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}
