// Package assistant handles one utterance end to end: classify it, announce
// what will happen, run the actions and report back.
package assistant

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"pilot/internal/action"
	"pilot/internal/dispatch"
	"pilot/internal/events"
	"pilot/internal/intent"
	"pilot/internal/metrics"
)

const (
	sourcePilot  = "pilot"
	sourceSystem = "system"

	publishTimeout = 2 * time.Second

	busyMessage = "Sorry, I was still busy with the last command."
)

type Classifier interface {
	Classify(ctx context.Context, utterance string) (intent.Batch, error)
}

type Executor interface {
	ExecuteBatch(ctx context.Context, b intent.Batch) []action.Result
}

type Speaker interface {
	SayAsync(text string)
}

// Reply is what one utterance produced.
type Reply struct {
	Description string          `json:"description,omitempty"`
	Results     []action.Result `json:"results"`
	// Message is the feedback spoken after the actions ran.
	Message string `json:"message"`
}

// Assistant handles one utterance at a time. Concurrent Handle calls wait
// their turn.
type Assistant struct {
	nlu   Classifier
	exec  Executor
	voice Speaker
	sink  events.Sink
	lg    *slog.Logger

	turn chan struct{}
}

func New(nlu Classifier, exec Executor, voice Speaker, sink events.Sink, lg *slog.Logger) *Assistant {
	if sink == nil {
		sink = events.Multi{}
	}
	if lg == nil {
		lg = slog.Default()
	}
	return &Assistant{
		nlu:   nlu,
		exec:  exec,
		voice: voice,
		sink:  sink,
		lg:    lg.With("component", "assistant"),
		turn:  make(chan struct{}, 1),
	}
}

// Handle classifies utterance and runs what it asks for. Speech is queued,
// never awaited.
func (a *Assistant) Handle(ctx context.Context, utterance string) Reply {
	utterance = strings.TrimSpace(utterance)

	if !a.wait(ctx) {
		a.lg.Warn("Dropped utterance while busy", "text", utterance, "err", ctx.Err())
		res := action.Fail(busyMessage)
		return Reply{Results: []action.Result{res}, Message: res.Message}
	}
	defer func() { <-a.turn }()

	a.lg.Info("Handling utterance", "text", utterance)

	b, err := a.classify(ctx, utterance)
	if err != nil {
		a.lg.Warn("Failed to classify", "err", err)
		metrics.Utterances.WithLabelValues("unclassified").Inc()

		res := action.Fail(dispatch.Unsupported)
		a.publish(events.New(events.ActionResult, sourceSystem, res.Message).WithOK(false))
		a.say(res.Message)
		return Reply{Results: []action.Result{res}, Message: res.Message}
	}

	desc := description(b)
	if desc != "" {
		a.publish(events.New(events.PilotResponse, sourcePilot, desc).WithIntent(b.Intents[0].Kind))
		a.say(desc)
	}

	results := a.exec.ExecuteBatch(ctx, b)
	msg := dispatch.Summary(results)
	a.say(msg)

	metrics.Utterances.WithLabelValues(outcome(results)).Inc()
	return Reply{Description: desc, Results: results, Message: msg}
}

// wait takes the turn, preferring a free turn over a finished ctx.
func (a *Assistant) wait(ctx context.Context) bool {
	select {
	case a.turn <- struct{}{}:
		return true
	default:
	}
	select {
	case a.turn <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (a *Assistant) classify(ctx context.Context, utterance string) (intent.Batch, error) {
	if utterance == "" {
		return intent.Batch{}, intent.ErrEmpty
	}
	return a.nlu.Classify(ctx, utterance)
}

func (a *Assistant) say(text string) {
	if a.voice != nil && text != "" {
		a.voice.SayAsync(text)
	}
}

func (a *Assistant) publish(e events.Event) {
	publish(a.sink, a.lg, e)
}

func publish(sink events.Sink, lg *slog.Logger, e events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := sink.Publish(ctx, e); err != nil {
		lg.Debug("Failed to publish event", "type", e.Type, "err", err)
	}
}

// Reporter turns every executed intent into action_start and action_result
// events. It plugs into the executor as its observer.
type Reporter struct {
	sink events.Sink
	lg   *slog.Logger
}

func NewReporter(sink events.Sink, lg *slog.Logger) *Reporter {
	if sink == nil {
		sink = events.Multi{}
	}
	if lg == nil {
		lg = slog.Default()
	}
	return &Reporter{sink: sink, lg: lg}
}

func (r *Reporter) Started(in intent.Intent) {
	publish(r.sink, r.lg, events.New(events.ActionStart, sourcePilot, "Executing: "+string(in.Kind)).WithIntent(in.Kind))
}

func (r *Reporter) Finished(in intent.Intent, res action.Result) {
	publish(r.sink, r.lg, events.New(events.ActionResult, sourceSystem, res.Message).WithIntent(in.Kind).WithOK(res.OK))
}

func description(b intent.Batch) string {
	if b.Description != "" {
		return b.Description
	}
	for _, in := range b.Intents {
		if in.Description != "" {
			return in.Description
		}
	}
	return ""
}

func outcome(results []action.Result) string {
	for _, r := range results {
		if !r.OK {
			return "fail"
		}
	}
	return "ok"
}
