package aggregates

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/coursetrack-backend/internal/domain/aggregates"
	"github.com/yungbote/coursetrack-backend/internal/platform/dbctx"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
	Lock   ScopeLock
	Retry  RetryPolicy
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	d.Retry = d.Retry.withDefaults()
	return d
}

// RetryPolicy bounds how often a write that lost a race is re-run.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 4
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 5 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 100 * time.Millisecond
	}
	return p
}

// backoff returns a full-jitter delay for the given 1-based attempt.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt-1)
	if d <= 0 || d > p.MaxDelay {
		d = p.MaxDelay
	}
	return time.Duration(rand.Int63n(int64(d) + 1))
}

var tracer = otel.Tracer("github.com/yungbote/coursetrack-backend/internal/data/aggregates")

func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}
	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(attribute.String("aggregate.op", op)))
	defer span.End()

	err := deps.Runner.InTx(ctx, fn)
	mapped := MapError(op, err)

	status := "success"
	if mapped != nil {
		status = aggregateErrorStatus(mapped)
		span.RecordError(mapped)
		span.SetStatus(otelcodes.Error, status)
		if domainagg.IsCode(mapped, domainagg.CodeConflict) {
			deps.Hooks.IncConflict(op)
		}
		if domainagg.IsCode(mapped, domainagg.CodeRetryable) {
			deps.Hooks.IncRetry(op)
		}
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

// executeWriteWithRetry re-runs the whole transaction while it fails with a
// conflict or retryable code. It returns the number of attempts made. When
// attempts run out the last error is reported as retryable.
func executeWriteWithRetry(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) (int, error) {
	deps = deps.withDefaults()
	policy := deps.Retry
	for attempt := 1; ; attempt++ {
		err := executeWrite(ctx, deps, op, fn)
		if err == nil {
			return attempt, nil
		}
		if !domainagg.IsTransient(err) {
			return attempt, err
		}
		if attempt >= policy.MaxAttempts {
			return attempt, domainagg.NewError(
				domainagg.CodeRetryable,
				op,
				fmt.Sprintf("gave up after %d attempts", attempt),
				err,
			)
		}
		deps.Log.Debug("retrying aggregate write", "op", op, "attempt", attempt, "error", err)
		t := time.NewTimer(policy.backoff(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return attempt, MapError(op, ctx.Err())
		case <-t.C:
		}
	}
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domainagg.CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(domainagg.CodeOf(MapError("aggregate.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}
