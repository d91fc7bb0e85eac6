// Package obs talks to OBS Studio over obs-websocket (protocol v5) to save
// replay-buffer clips.
package obs

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

const (
	opHello           = 0
	opIdentify        = 1
	opIdentified      = 2
	opRequest         = 6
	opRequestResponse = 7

	rpcVersion = 1

	DefaultURL = "ws://localhost:4455"
)

var (
	ErrAuthRequired = errors.New("obs requires a password")
	ErrRequest      = errors.New("obs request failed")
)

type message struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d"`
}

type hello struct {
	RPCVersion     int `json:"rpcVersion"`
	Authentication *struct {
		Challenge string `json:"challenge"`
		Salt      string `json:"salt"`
	} `json:"authentication,omitempty"`
}

type identify struct {
	RPCVersion         int    `json:"rpcVersion"`
	Authentication     string `json:"authentication,omitempty"`
	EventSubscriptions int    `json:"eventSubscriptions"`
}

type request struct {
	RequestType string `json:"requestType"`
	RequestID   string `json:"requestId"`
	RequestData any    `json:"requestData,omitempty"`
}

type response struct {
	RequestType   string `json:"requestType"`
	RequestID     string `json:"requestId"`
	RequestStatus struct {
		Result  bool   `json:"result"`
		Code    int    `json:"code"`
		Comment string `json:"comment"`
	} `json:"requestStatus"`
	ResponseData json.RawMessage `json:"responseData"`
}

// authResponse computes the obs-websocket authentication string.
func authResponse(password, salt, challenge string) string {
	secret := sha256.Sum256([]byte(password + salt))
	secretB64 := base64.StdEncoding.EncodeToString(secret[:])
	auth := sha256.Sum256([]byte(secretB64 + challenge))
	return base64.StdEncoding.EncodeToString(auth[:])
}

type Client struct {
	url      string
	password string
	timeout  time.Duration
	lg       *slog.Logger
}

func NewClient(url, password string, lg *slog.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	if lg == nil {
		lg = slog.Default()
	}
	return &Client{url: url, password: password, timeout: 5 * time.Second, lg: lg.With("component", "obs")}
}

// SaveReplay asks OBS to write the replay buffer to disk.
func (c *Client) SaveReplay(ctx context.Context) error {
	_, err := c.Call(ctx, "SaveReplayBuffer", nil)
	return err
}

// Call connects, identifies and performs a single request.
func (c *Client) Call(ctx context.Context, requestType string, data any) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, _, err := ws.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial obs: %w", err)
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(dl)
		conn.SetWriteDeadline(dl)
	}

	if err := c.identify(conn); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	if err := send(conn, opRequest, request{RequestType: requestType, RequestID: id, RequestData: data}); err != nil {
		return nil, err
	}

	for {
		msg, err := recv(conn)
		if err != nil {
			return nil, err
		}
		if msg.Op != opRequestResponse {
			continue
		}

		var resp response
		if err := json.Unmarshal(msg.D, &resp); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		if resp.RequestID != id {
			continue
		}
		if !resp.RequestStatus.Result {
			return nil, fmt.Errorf("%w: %s (code %d): %s", ErrRequest, requestType, resp.RequestStatus.Code, resp.RequestStatus.Comment)
		}

		c.lg.Info("OBS request done", "request", requestType)
		return resp.ResponseData, nil
	}
}

func (c *Client) identify(conn *ws.Conn) error {
	msg, err := recv(conn)
	if err != nil {
		return err
	}
	if msg.Op != opHello {
		return fmt.Errorf("expected hello, got op %d", msg.Op)
	}

	var h hello
	if err := json.Unmarshal(msg.D, &h); err != nil {
		return fmt.Errorf("decode hello: %w", err)
	}

	id := identify{RPCVersion: rpcVersion}
	if h.Authentication != nil {
		if c.password == "" {
			return ErrAuthRequired
		}
		id.Authentication = authResponse(c.password, h.Authentication.Salt, h.Authentication.Challenge)
	}
	if err := send(conn, opIdentify, id); err != nil {
		return err
	}

	msg, err = recv(conn)
	if err != nil {
		return err
	}
	if msg.Op != opIdentified {
		return fmt.Errorf("identify rejected (op %d)", msg.Op)
	}
	return nil
}

func send(conn *ws.Conn, op int, d any) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := conn.WriteJSON(message{Op: op, D: raw}); err != nil {
		return fmt.Errorf("write op %d: %w", op, err)
	}
	return nil
}

func recv(conn *ws.Conn) (message, error) {
	var msg message
	if err := conn.ReadJSON(&msg); err != nil {
		return message{}, fmt.Errorf("read obs message: %w", err)
	}
	return msg, nil
}
