package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vovakirdan/wireroom-server/internal/core"
	"github.com/vovakirdan/wireroom-server/internal/store"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) (int, string) {
	var ce *core.CoreError
	if errors.As(err, &ce) {
		switch ce.Code {
		case core.ErrCodeNotFound:
			return http.StatusNotFound, ce.Message
		case core.ErrCodeValidation, core.ErrCodeBadRequest:
			return http.StatusBadRequest, ce.Message
		case core.ErrCodePermissionDenied:
			return http.StatusForbidden, ce.Message
		}
	}
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound, "room not found"
	}
	return http.StatusInternalServerError, "internal server error"
}

func healthHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
