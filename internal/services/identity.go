package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// IdentityService extracts the caller from bearer tokens minted by the
// external auth service (HS256, subject = user id).
type IdentityService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	// IssueToken mints a token for local tooling and tests.
	IssueToken(userID uuid.UUID, ttl time.Duration) (string, error)
}

type identityService struct {
	log    *logger.Logger
	secret []byte
}

func NewIdentityService(log *logger.Logger, secret string) (IdentityService, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("missing JWT_SECRET_KEY")
	}
	return &identityService{log: log.With("service", "IdentityService"), secret: []byte(secret)}, nil
}

func (s *identityService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if strings.TrimSpace(tokenString) == "" {
		return ctx, ErrInvalidToken
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return ctx, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return ctx, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: userID}), nil
}

func (s *identityService) IssueToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	if userID == uuid.Nil {
		return "", fmt.Errorf("user id required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString(s.secret)
}
