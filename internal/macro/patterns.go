package macro

import (
	"context"
	"time"
)

const (
	circleHold = 200 * time.Millisecond
	circleGap  = 100 * time.Millisecond
)

var wasd = []string{"w", "a", "s", "d"}

type pattern struct {
	name string
	run  func(ctx context.Context, m *Manager) error
}

func tap(key string) func(context.Context, *Manager) error {
	return func(_ context.Context, m *Manager) error {
		return m.synth.PressKey(key)
	}
}

func diagonal(keys ...string) func(context.Context, *Manager) error {
	return func(_ context.Context, m *Manager) error {
		return m.synth.PressCombination(keys...)
	}
}

// circle walks clockwise: w, d, s, a.
func circle(ctx context.Context, m *Manager) error {
	for _, k := range []string{"w", "d", "s", "a"} {
		if err := m.synth.HoldKey(k, circleHold); err != nil {
			return err
		}
		if err := m.sleep(ctx, circleGap); err != nil {
			return err
		}
	}
	return nil
}

func randomTap(_ context.Context, m *Manager) error {
	return m.synth.PressKey(pick(m.rnd, wasd))
}

var palette = []pattern{
	{"forward", tap("w")},
	{"backward", tap("s")},
	{"left", tap("a")},
	{"right", tap("d")},
	{"forward_left", diagonal("w", "a")},
	{"forward_right", diagonal("w", "d")},
	{"backward_left", diagonal("s", "a")},
	{"backward_right", diagonal("s", "d")},
	{"circle", circle},
	{"random", randomTap},
}
