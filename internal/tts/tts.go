// Package tts speaks the assistant's replies.
package tts

import (
	"context"
	"log/slog"
	"time"
)

type Speaker interface {
	Say(ctx context.Context, text string) error
}

// Nop discards everything. Used when no voice is configured.
type Nop struct{}

func (Nop) Say(context.Context, string) error { return nil }

// Ducker lowers other audio streams while the assistant talks.
type Ducker interface {
	DuckOthers(ctx context.Context, factor float64, duration time.Duration) error
	UnduckOthers(ctx context.Context, duration time.Duration) error
}

const (
	duckFactor = 0.3
	duckFade   = 200 * time.Millisecond
	queueSize  = 16
	sayTimeout = 60 * time.Second
)

// Voice serializes speech from many callers onto one speaker. SayAsync never
// blocks; lines beyond the queue are dropped.
type Voice struct {
	sp    Speaker
	duck  Ducker
	lg    *slog.Logger
	queue chan string
}

func NewVoice(sp Speaker, duck Ducker, lg *slog.Logger) *Voice {
	if sp == nil {
		sp = Nop{}
	}
	if lg == nil {
		lg = slog.Default()
	}
	return &Voice{sp: sp, duck: duck, lg: lg.With("component", "tts"), queue: make(chan string, queueSize)}
}

// Run drains the queue until ctx is done.
func (v *Voice) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-v.queue:
			if err := v.Say(ctx, text); err != nil {
				v.lg.Error("Failed to voice out", "err", err)
			}
		}
	}
}

// Say speaks text synchronously, ducking other streams around it.
func (v *Voice) Say(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, sayTimeout)
	defer cancel()

	if v.duck != nil {
		if err := v.duck.DuckOthers(ctx, duckFactor, duckFade); err != nil {
			v.lg.Debug("Failed to duck", "err", err)
		}
		defer func() {
			if err := v.duck.UnduckOthers(context.WithoutCancel(ctx), duckFade); err != nil {
				v.lg.Debug("Failed to unduck", "err", err)
			}
		}()
	}

	v.lg.Info("Speaking", "text", text)
	return v.sp.Say(ctx, text)
}

// SayAsync queues text for Run.
func (v *Voice) SayAsync(text string) {
	if text == "" {
		return
	}
	select {
	case v.queue <- text:
	default:
		v.lg.Warn("Speech queue full, dropping line", "text", text)
	}
}
