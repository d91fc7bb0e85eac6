package macro

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pilot/internal/input"
	"pilot/internal/metrics"
)

const (
	DefaultAFKDuration = 30 * time.Minute
	DefaultAFKInterval = 30 * time.Second
	DefaultCharDelay   = 50 * time.Millisecond
	DefaultSpamCount   = 5
	DefaultSpamPause   = time.Second

	chatPause   = 100 * time.Millisecond
	teamChatKey = "u"
)

// Session is a snapshot of the AFK loop's state.
type Session struct {
	Running   bool          `json:"running"`
	Duration  time.Duration `json:"duration"`
	Interval  time.Duration `json:"interval"`
	StartedAt time.Time     `json:"started_at"`
	Moves     int           `json:"moves"`
}

type session struct {
	cfg    Session
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager owns the AFK background loop and the chat helpers. At most one AFK
// session runs at a time.
type Manager struct {
	synth       input.Synthesizer
	pool        *Pool
	rnd         *Rand
	sleep       input.Sleeper
	lg          *slog.Logger
	stopTimeout time.Duration
	now         func() time.Time

	mu      sync.Mutex
	current *session
}

type Option func(*Manager)

func WithRand(r *Rand) Option {
	return func(m *Manager) { m.rnd = r }
}

func WithSleeper(s input.Sleeper) Option {
	return func(m *Manager) { m.sleep = s }
}

func WithLogger(lg *slog.Logger) Option {
	return func(m *Manager) { m.lg = lg }
}

// WithStopTimeout bounds how long StopAFK waits for the loop to exit.
func WithStopTimeout(d time.Duration) Option {
	return func(m *Manager) { m.stopTimeout = d }
}

func NewManager(synth input.Synthesizer, pool *Pool, opts ...Option) *Manager {
	m := &Manager{
		synth:       synth,
		pool:        pool,
		sleep:       input.Sleep,
		lg:          slog.Default(),
		stopTimeout: time.Second,
		now:         time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	if m.rnd == nil {
		m.rnd = NewTimeRand()
	}
	if m.pool == nil {
		m.pool = NewPool()
	}
	m.lg = m.lg.With("component", "macro")
	return m
}

func (m *Manager) Pool() *Pool { return m.pool }

// AFK starts the background movement loop. It returns false and leaves the
// running session untouched if one is already active.
func (m *Manager) AFK(duration, interval time.Duration) bool {
	if duration <= 0 {
		duration = DefaultAFKDuration
	}
	if interval <= 0 {
		interval = DefaultAFKInterval
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.lg.Info("AFK macro is already running",
			"duration", m.current.cfg.Duration, "interval", m.current.cfg.Interval)
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	s := &session{
		cfg: Session{
			Running:   true,
			Duration:  duration,
			Interval:  interval,
			StartedAt: m.now(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	m.current = s
	metrics.AFKActive.Set(1)

	go m.loop(ctx, s)

	m.lg.Info("AFK macro started", "duration", duration, "interval", interval)
	return true
}

// StopAFK cancels the running session and waits a bounded time for the loop
// to exit. It returns false when nothing was running.
func (m *Manager) StopAFK() bool {
	m.mu.Lock()
	s := m.current
	m.current = nil
	m.mu.Unlock()

	if s == nil {
		m.lg.Debug("AFK macro not running")
		return false
	}

	metrics.AFKActive.Set(0)
	s.cancel()

	t := time.NewTimer(m.stopTimeout)
	defer t.Stop()

	select {
	case <-s.done:
	case <-t.C:
		m.lg.Warn("AFK loop still busy after stop", "timeout", m.stopTimeout)
	}

	m.lg.Info("AFK macro stopped")
	return true
}

// Status reports the current session. Running is false when idle.
func (m *Manager) Status() Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return Session{}
	}
	return m.current.cfg
}

func (m *Manager) loop(ctx context.Context, s *session) {
	defer close(s.done)
	defer m.finish(s)

	for {
		if err := m.sleep(ctx, s.cfg.Interval); err != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}

		p := pick(m.rnd, palette)
		if err := p.run(ctx, m); err != nil {
			m.lg.Debug("AFK movement failed", "pattern", p.name, "err", err)
		}
		metrics.AFKMoves.WithLabelValues(p.name).Inc()

		m.mu.Lock()
		if m.current == s {
			s.cfg.Moves++
		}
		m.mu.Unlock()
	}
}

// finish clears the session on natural expiry, unless it was already
// replaced or stopped.
func (m *Manager) finish(s *session) {
	s.cancel()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == s {
		m.current = nil
		metrics.AFKActive.Set(0)
		m.lg.Info("AFK macro finished", "moves", s.cfg.Moves)
	}
}

// TypeInChat opens the game chat (team chat with "u", all chat with enter),
// types message one character at a time and sends it.
func (m *Manager) TypeInChat(ctx context.Context, message string, delay time.Duration, teamChat bool) error {
	if message == "" {
		return ErrEmptyMessage
	}

	open := input.KeyEnter
	if teamChat {
		open = teamChatKey
	}
	if err := m.synth.PressKey(open); err != nil {
		return fmt.Errorf("open chat: %w", err)
	}
	if err := m.sleep(ctx, chatPause); err != nil {
		return err
	}

	for _, r := range message {
		if err := m.synth.TypeChar(r); err != nil {
			return fmt.Errorf("type %q: %w", r, err)
		}
		if err := m.sleep(ctx, delay); err != nil {
			return err
		}
	}

	if err := m.sleep(ctx, chatPause); err != nil {
		return err
	}
	if err := m.synth.PressKey(input.KeyEnter); err != nil {
		return fmt.Errorf("send chat: %w", err)
	}

	metrics.ChatMessages.Inc()
	m.lg.Info("Typed in chat", "team", teamChat, "message", message)
	return nil
}

// SpamChat sends message count times through all chat, pausing interval
// between sends but not after the last one.
func (m *Manager) SpamChat(ctx context.Context, message string, count int, interval time.Duration) error {
	m.lg.Info("Spamming chat", "message", message, "count", count)

	for i := 0; i < count; i++ {
		if err := m.TypeInChat(ctx, message, DefaultCharDelay, false); err != nil {
			return err
		}
		if i < count-1 {
			if err := m.sleep(ctx, interval); err != nil {
				return err
			}
		}
	}
	return nil
}

// GenerateAIMessage builds a templated chat line for the game situation.
func (m *Manager) GenerateAIMessage(situation string) string {
	return Generate(m.pool, m.rnd, situation)
}

// TypeAIMessage generates a message for situation and types it.
func (m *Manager) TypeAIMessage(ctx context.Context, situation string, teamChat bool) (string, error) {
	msg := m.GenerateAIMessage(situation)
	return msg, m.TypeInChat(ctx, msg, DefaultCharDelay, teamChat)
}

// AddChatMessage adds a custom phrase to the chat pool.
func (m *Manager) AddChatMessage(message string) error {
	if err := m.pool.Add(message); err != nil {
		return err
	}
	m.lg.Info("Added chat message", "message", message)
	return nil
}
