package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/http/response"
	"github.com/yungbote/coursetrack-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
	"github.com/yungbote/coursetrack-backend/internal/services"
)

var errUnauthorized = errors.New("missing or invalid token")

type AuthMiddleware struct {
	log      *logger.Logger
	identity services.IdentityService
}

func NewAuthMiddleware(log *logger.Logger, identity services.IdentityService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), identity: identity}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearer(c)
		if tokenString == "" {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthorized)
			return
		}
		ctx, err := am.identity.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Debug("token rejected", "error", err)
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errUnauthorized)
			return
		}
		c.Request = c.Request.WithContext(ctx)
		rd := ctxutil.GetRequestData(ctx)
		if rd == nil || rd.UserID == uuid.Nil {
			response.RespondError(c, http.StatusForbidden, "forbidden", nil)
			return
		}
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
