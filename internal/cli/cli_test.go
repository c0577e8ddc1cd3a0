package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/coursetrack-backend/internal/domain/aggregates"
	"github.com/yungbote/coursetrack-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
	"github.com/yungbote/coursetrack-backend/internal/services"
)

type fakeReconcile struct {
	userCalls []uuid.UUID
	dryRun    bool
	summary   services.ReconcileSummary
	err       error
}

func (f *fakeReconcile) ReconcileUser(_ context.Context, userID uuid.UUID, _ []uuid.UUID, dryRun bool) (domainagg.ReconcileResult, error) {
	f.userCalls = append(f.userCalls, userID)
	f.dryRun = dryRun
	if f.err != nil {
		return domainagg.ReconcileResult{}, f.err
	}
	return domainagg.ReconcileResult{
		UserID:  userID,
		Checked: 3,
		Created: 1,
		DryRun:  dryRun,
		Drift:   []domainagg.DriftEntry{{NodeID: uuid.New(), Kind: "course", Cached: false, Live: true}},
	}, nil
}

func (f *fakeReconcile) ReconcileMe(context.Context, bool) (domainagg.ReconcileResult, error) {
	return domainagg.ReconcileResult{}, errors.New("not used")
}

func (f *fakeReconcile) ReconcileAll(_ context.Context, dryRun bool) (services.ReconcileSummary, error) {
	f.dryRun = dryRun
	s := f.summary
	s.DryRun = dryRun
	return s, f.err
}

func TestRootCommandHasSubcommands(t *testing.T) {
	root := NewRootCommand("test")
	for _, name := range []string{"serve", "migrate", "reconcile", "token"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == nil || cmd.Name() != name {
			t.Fatalf("subcommand %q not registered: %v", name, err)
		}
	}
	rc, _, _ := root.Find([]string{"reconcile"})
	for _, flag := range []string{"user", "dry-run", "json"} {
		if rc.Flags().Lookup(flag) == nil {
			t.Fatalf("reconcile missing --%s", flag)
		}
	}
}

func TestRunReconcileSingleUser(t *testing.T) {
	svc := &fakeReconcile{}
	userID := uuid.New()
	var out bytes.Buffer
	if err := runReconcile(context.Background(), &out, svc, userID, true, false); err != nil {
		t.Fatalf("runReconcile: %v", err)
	}
	if len(svc.userCalls) != 1 || svc.userCalls[0] != userID || !svc.dryRun {
		t.Fatalf("unexpected calls: %+v dry=%t", svc.userCalls, svc.dryRun)
	}
	got := out.String()
	if !strings.Contains(got, "checked=3 created=1") || !strings.Contains(got, "cached=false live=true") {
		t.Fatalf("unexpected output:\n%s", got)
	}
}

func TestRunReconcileAllJSONReportsFailures(t *testing.T) {
	svc := &fakeReconcile{summary: services.ReconcileSummary{Users: 5, Failed: 2, Removed: 1}}
	var out bytes.Buffer
	err := runReconcile(context.Background(), &out, svc, uuid.Nil, false, true)
	if err == nil || !strings.Contains(err.Error(), "2 user(s)") {
		t.Fatalf("expected failure count error, got %v", err)
	}
	var sum services.ReconcileSummary
	if jerr := json.Unmarshal(out.Bytes(), &sum); jerr != nil {
		t.Fatalf("decode output: %v\n%s", jerr, out.String())
	}
	if sum.Users != 5 || sum.Removed != 1 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestTokenCommandMintsVerifiableToken(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "cli-test-secret")
	userID := uuid.New()

	root := NewRootCommand("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"token", "--user", userID.String()})
	if err := root.Execute(); err != nil {
		t.Fatalf("token: %v", err)
	}

	identity, err := services.NewIdentityService(logger.Nop(), "cli-test-secret")
	if err != nil {
		t.Fatalf("identity: %v", err)
	}
	ctx, err := identity.SetContextFromToken(context.Background(), strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("minted token rejected: %v", err)
	}
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID != userID {
		t.Fatalf("request data = %+v, want user %s", rd, userID)
	}
}

func TestTokenCommandRejectsBadUser(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "cli-test-secret")
	root := NewRootCommand("test")
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"token", "--user", "nope"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error for invalid user id")
	}
}
