// Package robot implements desktop access on top of robotgo: input
// injection, screen grabs and process lookup.
package robot

import (
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-vgo/robotgo"

	"pilot/internal/input"

	_ "github.com/go-vgo/robotgo/base" // robotgo C sources
	_ "github.com/go-vgo/robotgo/key"  // robotgo C sources
)

// Synth is an input.Synthesizer that drives the real keyboard and mouse.
type Synth struct {
	mu     sync.Mutex
	lg     *slog.Logger
	settle time.Duration
}

var _ input.Synthesizer = (*Synth)(nil)

func NewSynth(lg *slog.Logger) *Synth {
	if lg == nil {
		lg = slog.Default()
	}
	return &Synth{lg: lg.With("component", "input"), settle: input.SettleDelay}
}

// do runs fn under the lock. A panic from the native layer is turned into an
// error so the caller's loop keeps going.
func (s *Synth) do(op string, fn func() error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", op, r)
		}
		if err != nil {
			s.lg.Error("Input injection failed", "op", op, "err", err)
		}
	}()

	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	time.Sleep(s.settle)
	return nil
}

func (s *Synth) PressKey(key string) error {
	return s.do("press "+key, func() error {
		if err := robotgo.KeyToggle(key, "down"); err != nil {
			return err
		}
		time.Sleep(input.TapHold)
		return robotgo.KeyToggle(key, "up")
	})
}

// PressCombination presses keys in order and releases them in reverse.
func (s *Synth) PressCombination(keys ...string) error {
	return s.do("combo "+strings.Join(keys, "+"), func() error {
		for _, k := range keys {
			if err := robotgo.KeyToggle(k, "down"); err != nil {
				return err
			}
			time.Sleep(input.TapHold)
		}
		for i := len(keys) - 1; i >= 0; i-- {
			if err := robotgo.KeyToggle(keys[i], "up"); err != nil {
				return err
			}
			time.Sleep(input.TapHold)
		}
		return nil
	})
}

func (s *Synth) HoldKey(key string, d time.Duration) error {
	return s.do("hold "+key, func() error {
		if err := robotgo.KeyToggle(key, "down"); err != nil {
			return err
		}
		time.Sleep(d)
		return robotgo.KeyToggle(key, "up")
	})
}

func (s *Synth) TypeChar(r rune) error {
	return s.do("type", func() error {
		robotgo.TypeStr(string(r))
		return nil
	})
}

func (s *Synth) Click(button string, count int) error {
	if button == "" {
		button = "left"
	}
	return s.do("click "+button, func() error {
		for i := 0; i < count; i++ {
			robotgo.Click(button, false)
		}
		return nil
	})
}

func (s *Synth) Scroll(dy int) error {
	return s.do("scroll", func() error {
		robotgo.Scroll(0, dy)
		return nil
	})
}

func (s *Synth) Drag(dx, dy int) error {
	return s.do("drag", func() error {
		if err := robotgo.Toggle("left"); err != nil {
			return err
		}
		robotgo.MoveRelative(dx, dy)
		return robotgo.Toggle("left", "up")
	})
}

func (s *Synth) MoveTo(x, y int) error {
	return s.do("move", func() error {
		robotgo.Move(x, y)
		return nil
	})
}

// Screen grabs the primary display and reports the focused window title.
type Screen struct{}

func (Screen) Grab() (image.Image, error) {
	img, err := robotgo.CaptureImg()
	if err != nil {
		return nil, fmt.Errorf("capture screen: %w", err)
	}
	return img, nil
}

func (Screen) ActiveTitle() string {
	return robotgo.GetTitle()
}

// Processes finds and kills processes by name.
type Processes struct{}

// KillByName kills every process whose name contains name, case-insensitively.
// It returns the number of processes killed.
func (Processes) KillByName(name string) (int, error) {
	procs, err := robotgo.Process()
	if err != nil {
		return 0, fmt.Errorf("list processes: %w", err)
	}

	needle := strings.ToLower(name)
	killed := 0
	for _, p := range procs {
		if !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		if err := robotgo.Kill(p.Pid); err != nil {
			continue
		}
		killed++
	}
	return killed, nil
}
