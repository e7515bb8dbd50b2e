package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	CurrentBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "optionscope_sync_current_block",
		Help: "The last block committed by the syncer",
	}, []string{"network"})

	ChainHead = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "optionscope_sync_chain_head",
		Help: "The latest block number reported by the node",
	}, []string{"network"})

	BlocksCommitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optionscope_sync_blocks_committed_total",
		Help: "Total number of blocks committed",
	}, []string{"network", "mode"})

	BlockRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optionscope_sync_block_retries_total",
		Help: "Total number of failed block attempts that were retried",
	}, []string{"network", "mode"})

	BlockDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optionscope_sync_block_duration_seconds",
		Help:    "Time from first attempt to commit of a block",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"network"})

	CacheRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optionscope_cache_refresh_total",
		Help: "Cache refreshes by operation and outcome",
	}, []string{"network", "operation", "outcome"})

	RosterSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "optionscope_cache_roster_records",
		Help: "Number of non-expired option records held by the cache",
	}, []string{"network"})

	TradeHistorySize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "optionscope_cache_trade_history_entries",
		Help: "Number of trade history entries held by the cache",
	}, []string{"network"})

	EventsPulled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optionscope_events_pulled_total",
		Help: "New events persisted from the external indexer",
	}, []string{"network", "protocol"})

	SnapshotsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optionscope_snapshots_published_total",
		Help: "Snapshots handed to the serving layer by outcome",
	}, []string{"network", "outcome"})
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

// Outcome maps an error onto an outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

// Serve exposes /metrics on addr until ctx is done. An empty addr disables it.
func Serve(ctx context.Context, addr string, logger *zap.Logger) {
	if addr == "" {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		logger.Info("metrics listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
}
