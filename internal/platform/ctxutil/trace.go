package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type traceDataKey struct{}

// TraceData correlates one request across logs, spans and error bodies.
type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	td, _ := ctx.Value(traceDataKey{}).(*TraceData)
	return td
}

// LogFields returns the correlation key/value pairs present on ctx, ready to
// append to a logger call.
func LogFields(ctx context.Context) []interface{} {
	var kv []interface{}
	if td := GetTraceData(ctx); td != nil {
		if td.TraceID != "" {
			kv = append(kv, "trace_id", td.TraceID)
		}
		if td.RequestID != "" {
			kv = append(kv, "request_id", td.RequestID)
		}
	}
	if id := UserID(ctx); id != uuid.Nil {
		kv = append(kv, "user_id", id.String())
	}
	return kv
}
