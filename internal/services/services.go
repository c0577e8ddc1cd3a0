package services

import (
	"context"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/coursetrack-backend/internal/domain/aggregates"
	"github.com/yungbote/coursetrack-backend/internal/platform/ctxutil"
)

// requireUser reads the authenticated caller placed on ctx by the auth
// middleware.
func requireUser(ctx context.Context, op string) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, domainagg.NewError(domainagg.CodePreconditionFailed, op, "request has no authenticated user", nil)
	}
	return rd.UserID, nil
}
