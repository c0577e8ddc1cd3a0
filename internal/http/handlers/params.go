package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/http/response"
)

// parseUUID answers 400 itself when raw is not a non-nil UUID.
func parseUUID(c *gin.Context, raw, field string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "validation", fmt.Errorf("invalid %s", field))
		return uuid.Nil, false
	}
	return id, true
}
