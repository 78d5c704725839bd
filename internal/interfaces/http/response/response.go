package response

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainerrors "cryptovest.backend/internal/domain/errors"
	"cryptovest.backend/pkg/logger"
	"cryptovest.backend/pkg/utils"
)

// captureException is swapped in tests.
var captureException = func(err error) {
	sentry.CaptureException(err)
}

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Paginated sends a list with its pagination block
func Paginated(c *gin.Context, items interface{}, meta utils.PaginationMeta) {
	c.JSON(http.StatusOK, gin.H{
		"items":      items,
		"pagination": meta,
	})
}

// Error maps err onto the error envelope. Server errors are logged and reported.
func Error(c *gin.Context, err error) {
	appErr := domainerrors.FromError(err)

	if appErr.Status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		captureException(err)
	}

	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
		"error":   appErr.Message,
	})
}

// ErrorWithError sends an error response with a specific status and message
func ErrorWithError(c *gin.Context, status int, code string, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"code":    code,
		"message": message,
		"error":   message,
	})
}
