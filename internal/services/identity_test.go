package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

func TestIdentityRoundTrip(t *testing.T) {
	svc, err := NewIdentityService(logger.Nop(), "secret")
	if err != nil {
		t.Fatalf("NewIdentityService: %v", err)
	}
	user := uuid.New()
	tok, err := svc.IssueToken(user, time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	ctx, err := svc.SetContextFromToken(context.Background(), tok)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	if got := ctxutil.UserID(ctx); got != user {
		t.Fatalf("want user %s, got %s", user, got)
	}
}

func TestIdentityRejectsBadTokens(t *testing.T) {
	svc, _ := NewIdentityService(logger.Nop(), "secret")
	other, _ := NewIdentityService(logger.Nop(), "other-secret")
	foreign, _ := other.IssueToken(uuid.New(), time.Minute)
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte("secret"))
	notUUID, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "alice"}).SignedString([]byte("secret"))

	for name, tok := range map[string]string{
		"empty":    "",
		"garbage":  "a.b.c",
		"foreign":  foreign,
		"expired":  expired,
		"not_uuid": notUUID,
	} {
		if _, err := svc.SetContextFromToken(context.Background(), tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: want ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestIdentityRequiresSecret(t *testing.T) {
	if _, err := NewIdentityService(logger.Nop(), " "); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
