// Package dispatch routes classified intents to their handlers and runs
// batches in their resolved order.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pilot/internal/action"
	"pilot/internal/intent"
	"pilot/internal/metrics"
)

// Unsupported is the reply for intents with no handler.
const Unsupported = "Sorry, I don't know how to do that."

// Table resolves an intent kind to its handler.
type Table interface {
	Lookup(k intent.Kind) (action.Handler, bool)
}

// Observer is told when each intent starts and what it returned.
type Observer interface {
	Started(in intent.Intent)
	Finished(in intent.Intent, res action.Result)
}

type Executor struct {
	table    Table
	lg       *slog.Logger
	observer Observer
}

type Option func(*Executor)

func WithLogger(lg *slog.Logger) Option {
	return func(e *Executor) { e.lg = lg }
}

func WithObserver(o Observer) Option {
	return func(e *Executor) { e.observer = o }
}

func New(t Table, opts ...Option) *Executor {
	e := &Executor{table: t, lg: slog.Default()}
	for _, o := range opts {
		o(e)
	}
	e.lg = e.lg.With("component", "dispatch")
	return e
}

// Execute runs the handler for in. It never panics and always returns a
// Result; unknown kinds get the Unsupported reply without side effects.
func (e *Executor) Execute(ctx context.Context, in intent.Intent) (res action.Result) {
	lg := e.lg.With("intent", in.Kind)
	if e.observer != nil {
		e.observer.Started(in)
	}

	h, ok := e.table.Lookup(in.Kind)
	if !ok {
		lg.Warn("Unsupported intent")
		metrics.Executions.WithLabelValues(string(intent.Unknown), "unsupported").Inc()
		res = action.Fail(Unsupported)
		e.notify(in, res)
		return res
	}

	if missing := in.Missing(h.Requires...); len(missing) > 0 {
		lg.Warn("Intent is missing fields", "missing", missing)
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			lg.Error("Handler panicked", "panic", r)
			metrics.HandlerPanics.WithLabelValues(string(in.Kind)).Inc()
			res = action.Fail("Something went wrong while running %s: %v", in.Kind, r)
		}

		metrics.ExecutionDuration.WithLabelValues(string(in.Kind)).Observe(time.Since(start).Seconds())
		metrics.Executions.WithLabelValues(string(in.Kind), outcome(res)).Inc()
		lg.Info("Executed intent", "ok", res.OK, "message", res.Message, "took", time.Since(start))
		e.notify(in, res)
	}()

	return h.Fn(ctx, in)
}

// ExecuteBatch runs every intent of b sequentially in resolved order. The
// results are in execution order; a failure does not stop the batch.
func (e *Executor) ExecuteBatch(ctx context.Context, b intent.Batch) []action.Result {
	order := b.ResolveOrder()
	results := make([]action.Result, 0, len(order))

	e.lg.Info("Executing batch", "size", len(order), "order", fmt.Sprint(order))
	for _, idx := range order {
		if err := ctx.Err(); err != nil {
			results = append(results, action.Fail("Cancelled before %s ran.", b.Intents[idx].Kind))
			continue
		}
		results = append(results, e.Execute(ctx, b.Intents[idx]))
	}
	return results
}

// Summary joins the messages of results into one spoken line.
func Summary(results []action.Result) string {
	msgs := make([]string, 0, len(results))
	for _, r := range results {
		if r.Message != "" {
			msgs = append(msgs, r.Message)
		}
	}
	return strings.Join(msgs, " ")
}

func (e *Executor) notify(in intent.Intent, res action.Result) {
	if e.observer != nil {
		e.observer.Finished(in, res)
	}
}

func outcome(r action.Result) string {
	if r.OK {
		return "ok"
	}
	return "fail"
}
