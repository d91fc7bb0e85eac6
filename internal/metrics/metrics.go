// Package metrics holds the assistant's prometheus collectors and the
// /metrics endpoint.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Executions counts executed intents by kind and outcome ("ok", "fail", "unsupported").
	Executions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pilot_intent_executions_total",
		Help: "The total number of executed intents",
	}, []string{"kind", "outcome"})

	// ExecutionDuration tracks handler latency per kind.
	ExecutionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pilot_intent_duration_seconds",
		Help:    "The duration of intent handlers",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	// HandlerPanics counts handlers that panicked and were recovered.
	HandlerPanics = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pilot_handler_panics_total",
		Help: "The total number of recovered handler panics",
	}, []string{"kind"})

	// AFKActive is 1 while an AFK session runs.
	AFKActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pilot_afk_active",
		Help: "Whether an AFK session is running",
	})

	// AFKMoves counts movement patterns performed by the AFK loop.
	AFKMoves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pilot_afk_moves_total",
		Help: "The total number of AFK movement patterns performed",
	}, []string{"pattern"})

	// ChatMessages counts messages typed into game chat.
	ChatMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pilot_chat_messages_total",
		Help: "The total number of chat messages typed",
	})

	// Utterances counts classified utterances by outcome.
	Utterances = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pilot_utterances_total",
		Help: "The total number of handled utterances",
	}, []string{"outcome"})
)

// Serve runs the metrics endpoint until ctx is done.
func Serve(ctx context.Context, addr string, lg *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		lg.Info("Starting metrics server", "addr", addr, "path", "/metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("Metrics server failed", "err", err)
		}
	}()
}
