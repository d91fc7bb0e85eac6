// Package ipc is the local control channel between pilot-ctl and the
// daemon: one JSON request and one JSON reply per unix socket connection.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"time"
)

const (
	CmdTrigger = "trigger"
	CmdSay     = "say"
	CmdAFK     = "afk"
	CmdStopAFK = "stop_afk"
	CmdStatus  = "status"

	ioTimeout = 5 * time.Second
)

func DefaultSocketPath() string {
	return filepath.Join(os.TempDir(), "pilot.sock")
}

type ControlMessage struct {
	Cmd  string            `json:"cmd"`
	Text string            `json:"text,omitempty"`
	Args map[string]string `json:"args,omitempty"`
}

type Reply struct {
	OK      bool           `json:"ok"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

type Handler func(ctx context.Context, msg ControlMessage) Reply

type Server struct {
	path    string
	handler Handler
	lg      *slog.Logger
	ln      net.Listener
}

// Listen binds the socket, replacing a stale one left by a previous run.
func Listen(path string, handler Handler, lg *slog.Logger) (*Server, error) {
	if path == "" {
		path = DefaultSocketPath()
	}
	if lg == nil {
		lg = slog.Default()
	}
	_ = os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	return &Server{path: path, handler: handler, lg: lg.With("component", "ipc"), ln: ln}, nil
}

func (s *Server) Path() string { return s.path }

// Serve accepts connections until ctx is done, then removes the socket.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.ln.Close()
	}()
	defer os.Remove(s.path)

	s.lg.Info("Listening for control commands", "socket", s.path)
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.lg.Warn("Failed to accept", "err", err)
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(ioTimeout))

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		s.lg.Warn("Bad control message", "err", err)
		_ = json.NewEncoder(conn).Encode(Reply{Message: "bad request: " + err.Error()})
		return
	}
	s.lg.Debug("Control message", "cmd", msg.Cmd)

	reply := s.handler(ctx, msg)

	_ = conn.SetWriteDeadline(time.Now().Add(ioTimeout))
	if err := json.NewEncoder(conn).Encode(reply); err != nil {
		s.lg.Warn("Failed to reply", "cmd", msg.Cmd, "err", err)
	}
}

// Send delivers msg to the daemon at path and waits for its reply.
func Send(ctx context.Context, path string, msg ControlMessage) (Reply, error) {
	if path == "" {
		path = DefaultSocketPath()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return Reply{}, fmt.Errorf("pilot-daemon not running: %w", err)
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		return Reply{}, fmt.Errorf("send %s: %w", msg.Cmd, err)
	}

	var reply Reply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return Reply{}, fmt.Errorf("read reply: %w", err)
	}
	return reply, nil
}
