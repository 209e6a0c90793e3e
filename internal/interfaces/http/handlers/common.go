package handlers

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/turtacn/RxMatch-Intelligence/pkg/errors"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeAppError renders an error with the HTTP status its code maps to.
// Internal failures are masked so callers never see infrastructure detail.
func writeAppError(c *gin.Context, err error) {
	code := apperrors.GetCode(err)
	status := apperrors.HTTPStatusForCode(code)

	message := err.Error()
	if !apperrors.IsClientError(code) {
		message = "internal server error"
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:    code.String(),
		Message: message,
	})
}
