// Package listen turns microphone audio into commands: record an utterance,
// transcribe it and keep what follows the wake word.
package listen

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"
)

const DefaultWakeWord = "pilot"

var ErrNoCommand = errors.New("no command in utterance")

type Recorder interface {
	RecordAuto(ctx context.Context) ([]float32, error)
}

// Transcribe converts 16 kHz mono PCM to text.
type Transcribe func(ctx context.Context, pcm []float32) (string, error)

// whisper marks non-speech as [BLANK_AUDIO], (music), *coughs* and so on
var annotationRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)|\*[^*]*\*`)

// Clean drops whisper's non-speech annotations and collapses whitespace.
func Clean(text string) string {
	return strings.Join(strings.Fields(annotationRe.ReplaceAllString(text, " ")), " ")
}

// ExtractCommand returns what was said after the first occurrence of wake,
// matched case-insensitively and on word boundaries. Surrounding punctuation
// is stripped.
func ExtractCommand(text, wake string) (string, bool) {
	if wake == "" {
		wake = DefaultWakeWord
	}
	wake = strings.ToLower(wake)

	words := strings.Fields(text)
	for i, w := range words {
		if strings.ToLower(strings.TrimFunc(w, isPunct)) != wake {
			continue
		}
		cmd := strings.TrimFunc(strings.Join(words[i+1:], " "), isPunct)
		if cmd == "" {
			return "", false
		}
		return cmd, true
	}
	return "", false
}

func isPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r)
}

type Listener struct {
	rec        Recorder
	transcribe Transcribe
	wake       string
	backoff    time.Duration
	lg         *slog.Logger
}

func New(rec Recorder, transcribe Transcribe, wake string, lg *slog.Logger) *Listener {
	if wake == "" {
		wake = DefaultWakeWord
	}
	if lg == nil {
		lg = slog.Default()
	}
	return &Listener{
		rec:        rec,
		transcribe: transcribe,
		wake:       wake,
		backoff:    time.Second,
		lg:         lg.With("component", "listen"),
	}
}

// Once records a single utterance and returns its text without requiring
// the wake word. Used for push-to-talk.
func (l *Listener) Once(ctx context.Context) (string, error) {
	pcm, err := l.rec.RecordAuto(ctx)
	if err != nil {
		return "", err
	}
	l.lg.Debug("Recorded", "samples", len(pcm))

	text, err := l.transcribe(ctx, pcm)
	if err != nil {
		return "", err
	}
	text = Clean(text)
	if text == "" {
		return "", ErrNoCommand
	}
	l.lg.Info("Transcribed", "text", text)
	return text, nil
}

// Next listens until an utterance carries the wake word and returns the
// command that follows it.
func (l *Listener) Next(ctx context.Context) (string, error) {
	for {
		text, err := l.Once(ctx)
		switch {
		case ctx.Err() != nil:
			return "", ctx.Err()
		case err == nil:
			if cmd, ok := ExtractCommand(text, l.wake); ok {
				l.lg.Info("Command found", "command", cmd)
				return cmd, nil
			}
			l.lg.Debug("No wake word, listening again", "text", text)
		case errors.Is(err, ErrNoCommand):
		default:
			l.lg.Warn("Failed to listen", "err", err)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(l.backoff):
			}
		}
	}
}

// Run sends every command heard to out until ctx is done.
func (l *Listener) Run(ctx context.Context, out chan<- string) error {
	for {
		cmd, err := l.Next(ctx)
		if err != nil {
			return err
		}
		select {
		case out <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
