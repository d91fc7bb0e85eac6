package input

import (
	"context"
	"time"
)

// Key names follow robotgo's naming.
const (
	KeyEnter      = "enter"
	KeyShift      = "shift"
	KeyAudioPlay  = "audio_play"
	KeyAudioPause = "audio_pause"
	KeyAudioNext  = "audio_next"
	KeyAudioPrev  = "audio_prev"
)

const (
	// SettleDelay follows every synthesized event.
	SettleDelay = 100 * time.Millisecond
	// TapHold is how long a tapped key stays down.
	TapHold = 50 * time.Millisecond
)

// Synthesizer injects keyboard and mouse events into the OS. Every call
// blocks for a short settle delay. Implementations serialize calls.
type Synthesizer interface {
	PressKey(key string) error
	PressCombination(keys ...string) error
	HoldKey(key string, d time.Duration) error
	TypeChar(r rune) error
	Click(button string, count int) error
	Scroll(dy int) error
	Drag(dx, dy int) error
	MoveTo(x, y int) error
}

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
