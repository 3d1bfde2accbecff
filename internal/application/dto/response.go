package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/errors"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// clientMessages maps error codes to the canned messages clients see.
// Internal error messages (which may distinguish reuse from expiry, or
// carry store detail) must never reach a response body.
var clientMessages = map[constants.ErrorCode]string{
	constants.ErrCodeInvalidRequest:     "invalid request",
	constants.ErrCodeInvalidCredentials: "invalid credentials",
	constants.ErrCodeInvalidToken:       "invalid or expired token",
	constants.ErrCodeAccountInactive:    "account is inactive",
	constants.ErrCodeInternal:           "internal error",
	constants.ErrCodeServiceUnavailable: "service temporarily unavailable",
}

// SendError writes the uniform error envelope for the given error.
func SendError(c *gin.Context, err error) {
	code := errors.CodeOf(err)
	message, ok := clientMessages[code]
	if !ok {
		code = constants.ErrCodeInternal
		message = clientMessages[constants.ErrCodeInternal]
	}
	c.AbortWithStatusJSON(errors.HTTPStatusOf(err), ErrorResponse{
		Error:   string(code),
		Message: message,
	})
}

// SendSuccess writes a JSON payload with the given status.
func SendSuccess(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}
