package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiErrors   *Counter

	aggOps       *CounterVec
	aggLatency   *HistogramVec
	aggConflicts *CounterVec
	aggRetries   *CounterVec
	aggDegraded  *CounterVec

	toggles          *CounterVec
	reconcileRuns    *CounterVec
	reconcileRepairs *CounterVec
	reconcileQueue   *Gauge

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge
}

// Counter is a label-less CounterVec.
type Counter = CounterVec

func NewCounter(name, help string) *Counter {
	return NewCounterVec(name, help, nil)
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Init builds the process-wide metrics set. It returns nil when disabled and
// every method on a nil *Metrics is a no-op.
func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

func Current() *Metrics {
	return instance
}

// New returns a fresh, unshared metrics set.
func New() *Metrics {
	ops := []string{"op", "status"}
	return &Metrics{
		apiRequests: NewCounterVec("ct_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"ct_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		),
		apiInflight: NewGauge("ct_api_inflight_requests", "In-flight API requests."),
		apiErrors:   NewCounter("ct_api_requests_5xx_total", "API requests answered with a 5xx status."),

		aggOps:       NewCounterVec("ct_aggregate_operations_total", "Aggregate write operations by op/status.", ops),
		aggLatency:   NewHistogramVec("ct_aggregate_operation_duration_seconds", "Aggregate write latency by op/status.", ops, nil),
		aggConflicts: NewCounterVec("ct_aggregate_conflicts_total", "Aggregate attempts that lost a race.", []string{"op"}),
		aggRetries:   NewCounterVec("ct_aggregate_retries_total", "Aggregate attempts retried after a transient error.", []string{"op"}),
		aggDegraded:  NewCounterVec("ct_aggregate_degraded_total", "Aggregate writes committed with a rolled back cascade.", []string{"op"}),

		toggles:          NewCounterVec("ct_toggles_total", "Toggles by ledger and resulting state.", []string{"ledger", "state"}),
		reconcileRuns:    NewCounterVec("ct_reconcile_runs_total", "Reconcile passes by mode/status.", []string{"mode", "status"}),
		reconcileRepairs: NewCounterVec("ct_reconcile_repairs_total", "Done marks written by reconciliation.", []string{"action"}),
		reconcileQueue:   NewGauge("ct_reconcile_queue_depth", "Tasks drained from the reconcile queue on the last tick."),

		dbStats:   NewGaugeVec("ct_db_pool", "database/sql pool stats.", []string{"stat"}),
		redisUp:   NewGauge("ct_redis_up", "1 when the last redis ping succeeded."),
		redisPing: NewGauge("ct_redis_ping_seconds", "Latency of the last redis ping."),
	}
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	all := []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiErrors,
		m.aggOps, m.aggLatency, m.aggConflicts, m.aggRetries, m.aggDegraded,
		m.toggles, m.reconcileRuns, m.reconcileRepairs, m.reconcileQueue,
		m.dbStats, m.redisUp, m.redisPing,
	}
	for _, pw := range all {
		if err := pw.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	if isServerErrorStatus(status) {
		m.apiErrors.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggOps.Inc(op, status)
	m.aggLatency.Observe(dur.Seconds(), op, status)
}

func (m *Metrics) IncAggregateConflict(op string) {
	if m == nil {
		return
	}
	m.aggConflicts.Inc(op)
}

func (m *Metrics) IncAggregateRetry(op string) {
	if m == nil {
		return
	}
	m.aggRetries.Inc(op)
}

func (m *Metrics) IncAggregateDegraded(op string) {
	if m == nil {
		return
	}
	m.aggDegraded.Inc(op)
}

// IncToggle counts a toggle on a ledger ("leaf", "favorite.<kind>").
func (m *Metrics) IncToggle(ledger string, on bool) {
	if m == nil {
		return
	}
	state := "off"
	if on {
		state = "on"
	}
	m.toggles.Inc(ledger, state)
}

func (m *Metrics) ObserveReconcile(dryRun bool, status string, created, removed int) {
	if m == nil {
		return
	}
	mode := "repair"
	if dryRun {
		mode = "audit"
	}
	m.reconcileRuns.Inc(mode, status)
	if dryRun {
		return
	}
	m.reconcileRepairs.Add(float64(created), "created")
	m.reconcileRepairs.Add(float64(removed), "removed")
}

func (m *Metrics) SetReconcileQueueDepth(n int) {
	if m == nil {
		return
	}
	m.reconcileQueue.Set(float64(n))
}

// StartDBCollector samples the gorm pool stats every interval.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.Set(float64(stats.OpenConnections), "open_connections")
				m.dbStats.Set(float64(stats.InUse), "in_use")
				m.dbStats.Set(float64(stats.Idle), "idle")
				m.dbStats.Set(float64(stats.WaitCount), "wait_count")
				m.dbStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.dbStats.Set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

// StartRedisCollector pings rdb every interval. The client is owned by the
// caller.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb *redis.Client, interval time.Duration) {
	if m == nil || rdb == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

func isServerErrorStatus(status string) bool {
	status = strings.TrimSpace(status)
	return len(status) == 3 && status[0] == '5'
}
