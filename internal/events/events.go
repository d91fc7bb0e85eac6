// Package events publishes what the assistant is doing to overlays and
// other listeners.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"pilot/internal/intent"
)

type Type string

const (
	PilotResponse Type = "pilot_response"
	ActionStart   Type = "action_start"
	ActionResult  Type = "action_result"
)

type Event struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	Text      string      `json:"text"`
	Intent    intent.Kind `json:"intent,omitempty"`
	OK        *bool       `json:"ok,omitempty"`
	Source    string      `json:"source"`
	Timestamp time.Time   `json:"timestamp"`
}

func New(t Type, source, text string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Text:      text,
		Source:    source,
		Timestamp: time.Now(),
	}
}

func (e Event) WithIntent(k intent.Kind) Event {
	e.Intent = k
	return e
}

func (e Event) WithOK(ok bool) Event {
	e.OK = &ok
	return e
}

type Sink interface {
	Publish(ctx context.Context, e Event) error
}

// Multi fans an event out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Log writes events to a logger.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Publish(_ context.Context, e Event) error {
	lg := l.Logger
	if lg == nil {
		lg = slog.Default()
	}
	lg.Info("Event", "type", e.Type, "intent", e.Intent, "text", e.Text)
	return nil
}

// Redis publishes JSON events on a pub/sub channel.
type Redis struct {
	client  redis.UniversalClient
	channel string
}

func NewRedis(client redis.UniversalClient, channel string) *Redis {
	return &Redis{client: client, channel: channel}
}

func (r *Redis) Publish(ctx context.Context, e Event) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, raw).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", r.channel, err)
	}
	return nil
}

// Bus writes events to a websocket endpoint, dialing on first use and
// again after a failed write.
type Bus struct {
	url    string
	dialer *ws.Dialer

	mu   sync.Mutex
	conn *ws.Conn
}

func NewBus(url string) *Bus {
	return &Bus{url: url, dialer: ws.DefaultDialer}
}

func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		conn, _, err := b.dialer.DialContext(ctx, b.url, nil)
		if err != nil {
			return fmt.Errorf("dial event bus: %w", err)
		}
		b.conn = conn
	}

	if dl, ok := ctx.Deadline(); ok {
		_ = b.conn.SetWriteDeadline(dl)
	}
	if err := b.conn.WriteJSON(e); err != nil {
		b.conn.Close()
		b.conn = nil
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.conn = nil
	return err
}
