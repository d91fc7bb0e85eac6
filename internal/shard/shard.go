// Package shard connects the assistant to a message bus so other machines
// can send it commands, as text or as recorded audio.
package shard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"pilot/internal/assistant"
	"pilot/pkg/audioconv"
)

const (
	KindCommand = "command"
	KindResult  = "result"
	KindPing    = "ping"
	KindPong    = "pong"

	DefaultName = "pilot"
	maxAudio    = 60 * audioconv.TargetRate
)

var ErrNoTranscriber = errors.New("audio command but no transcriber configured")

type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
	Audio   []byte `json:"audio,omitempty"`
	OK      *bool  `json:"ok,omitempty"`
}

type Handler interface {
	Handle(ctx context.Context, utterance string) assistant.Reply
}

// Transcribe converts 16 kHz mono PCM to text.
type Transcribe func(ctx context.Context, pcm []float32) (string, error)

type Config struct {
	URL       string
	Name      string
	Reconnect time.Duration
}

type Shard struct {
	cfg        Config
	handler    Handler
	transcribe Transcribe
	lg         *slog.Logger

	wmu  sync.Mutex
	conn *ws.Conn
}

func New(cfg Config, h Handler, transcribe Transcribe, lg *slog.Logger) *Shard {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Reconnect <= 0 {
		cfg.Reconnect = time.Second
	}
	if lg == nil {
		lg = slog.Default()
	}
	return &Shard{cfg: cfg, handler: h, transcribe: transcribe, lg: lg.With("component", "shard", "name", cfg.Name)}
}

// Run keeps a bus connection open, reconnecting after failures, until ctx
// is done.
func (s *Shard) Run(ctx context.Context) error {
	for {
		conn, _, err := ws.DefaultDialer.DialContext(ctx, s.cfg.URL, nil)
		if err != nil {
			s.lg.Warn("Failed to dial bus", "url", s.cfg.URL, "err", err)
		} else {
			s.lg.Info("Connected to bus", "url", s.cfg.URL)
			err = s.serve(ctx, conn)
			if ctx.Err() == nil {
				s.lg.Warn("Bus connection lost", "err", err)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.cfg.Reconnect):
		}
	}
}

func (s *Shard) serve(ctx context.Context, conn *ws.Conn) error {
	s.wmu.Lock()
	s.conn = conn
	s.wmu.Unlock()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if isClosed(err) {
				return nil
			}
			return err
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.lg.Warn("Bad bus message", "err", err)
			continue
		}
		if msg.To != "" && msg.To != s.cfg.Name {
			continue
		}

		switch msg.Kind {
		case KindPing:
			s.reply(msg, KindPong, "", true)
		case KindCommand:
			go s.command(ctx, msg)
		default:
			s.lg.Debug("Ignoring bus message", "kind", msg.Kind, "from", msg.From)
		}
	}
}

func (s *Shard) command(ctx context.Context, msg Message) {
	text, err := s.text(ctx, msg)
	if err != nil {
		s.lg.Error("Failed to read command", "from", msg.From, "err", err)
		s.reply(msg, KindResult, "Sorry, I couldn't understand that audio.", false)
		return
	}

	r := s.handler.Handle(ctx, text)
	ok := len(r.Results) > 0
	for _, res := range r.Results {
		ok = ok && res.OK
	}
	s.reply(msg, KindResult, r.Message, ok)
}

func (s *Shard) text(ctx context.Context, msg Message) (string, error) {
	if len(msg.Audio) == 0 {
		return msg.Content, nil
	}
	if s.transcribe == nil {
		return "", ErrNoTranscriber
	}
	pcm, err := audioconv.Decode(msg.Audio, audioconv.Options{MaxSamples: maxAudio})
	if err != nil {
		return "", err
	}
	text, err := s.transcribe(ctx, pcm)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	s.lg.Info("Transcribed", "text", text)
	return text, nil
}

func (s *Shard) reply(to Message, kind, content string, ok bool) {
	out := Message{From: s.cfg.Name, To: to.From, Kind: kind, Content: content, OK: &ok}

	s.wmu.Lock()
	defer s.wmu.Unlock()
	if s.conn == nil {
		return
	}
	if err := s.conn.WriteJSON(out); err != nil {
		s.lg.Error("Failed to send response", "err", err)
	}
}

func isClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
