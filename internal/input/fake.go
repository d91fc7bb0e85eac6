package input

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Fake records synthesized events instead of injecting them. Used by tests
// and by the daemon's --dry-run mode.
type Fake struct {
	mu     sync.Mutex
	events []string
	// Fail makes every call return an error when set.
	Fail error
}

func NewFake() *Fake { return &Fake{} }

func (f *Fake) record(format string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Fail != nil {
		return f.Fail
	}
	f.events = append(f.events, fmt.Sprintf(format, args...))
	return nil
}

func (f *Fake) PressKey(key string) error {
	return f.record("key:%s", key)
}

func (f *Fake) PressCombination(keys ...string) error {
	return f.record("combo:%s", strings.Join(keys, "+"))
}

func (f *Fake) HoldKey(key string, d time.Duration) error {
	return f.record("hold:%s:%s", key, d)
}

func (f *Fake) TypeChar(r rune) error {
	return f.record("char:%c", r)
}

func (f *Fake) Click(button string, count int) error {
	return f.record("click:%s:%d", button, count)
}

func (f *Fake) Scroll(dy int) error {
	return f.record("scroll:%d", dy)
}

func (f *Fake) Drag(dx, dy int) error {
	return f.record("drag:%d,%d", dx, dy)
}

func (f *Fake) MoveTo(x, y int) error {
	return f.record("move:%d,%d", x, y)
}

// Events returns a copy of everything recorded so far.
func (f *Fake) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

// Typed joins every recorded character.
func (f *Fake) Typed() string {
	var sb strings.Builder
	for _, e := range f.Events() {
		if c, ok := strings.CutPrefix(e, "char:"); ok {
			sb.WriteString(c)
		}
	}
	return sb.String()
}

func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}
