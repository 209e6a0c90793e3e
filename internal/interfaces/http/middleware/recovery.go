package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/RxMatch-Intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

// Recovery converts panics into masked 500 responses with a structured log
// entry instead of gin's plain-text default.
func Recovery(logger logging.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("handler panicked",
			logging.String("path", c.Request.URL.Path),
			logging.Any("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"code":    apperrors.ErrCodeInternal.String(),
			"message": "internal server error",
		})
	})
}
