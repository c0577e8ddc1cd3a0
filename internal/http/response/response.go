package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursetrack-backend/internal/platform/ctxutil"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	// TraceID matches the X-Trace-Id header and the access log line.
	TraceID string `json:"traceId,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	apiErr := APIError{Message: msg, Code: code}
	if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
		apiErr.TraceID = td.TraceID
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: apiErr})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
