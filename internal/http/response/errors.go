package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/coursetrack-backend/internal/domain/aggregates"
)

// StatusForCode maps aggregate error codes onto HTTP statuses.
func StatusForCode(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeValidation:
		return http.StatusBadRequest
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodeConflict:
		return http.StatusConflict
	case domainagg.CodePreconditionFailed:
		return http.StatusPreconditionFailed
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondAggregateError writes the error envelope for a service error. Internal
// failures never leak their cause to the client.
func RespondAggregateError(c *gin.Context, err error) {
	var aggErr *domainagg.Error
	if !errors.As(err, &aggErr) {
		RespondError(c, http.StatusInternalServerError, string(domainagg.CodeInternal), errors.New("internal error"))
		return
	}
	status := StatusForCode(aggErr.Code)
	msg := aggErr.Message
	if msg == "" || status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	RespondError(c, status, string(aggErr.Code), errors.New(msg))
}
