package obs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOBS speaks just enough obs-websocket to identify and answer requests.
func fakeOBS(t *testing.T, password string, ok bool) string {
	t.Helper()
	const salt, challenge = "salty", "chally"
	up := ws.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		h := map[string]any{"rpcVersion": 1, "obsWebSocketVersion": "5.4.0"}
		if password != "" {
			h["authentication"] = map[string]string{"salt": salt, "challenge": challenge}
		}
		mustSend(t, conn, opHello, h)

		var msg message
		if conn.ReadJSON(&msg) != nil {
			return
		}
		var id identify
		require.NoError(t, json.Unmarshal(msg.D, &id))
		if password != "" && id.Authentication != authResponse(password, salt, challenge) {
			conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(4009, "Authentication failed"))
			return
		}
		mustSend(t, conn, opIdentified, map[string]int{"negotiatedRpcVersion": 1})

		if conn.ReadJSON(&msg) != nil {
			return
		}
		var req request
		require.NoError(t, json.Unmarshal(msg.D, &req))

		// an unrelated event first, then an answer to some other request
		mustSend(t, conn, 5, map[string]string{"eventType": "ReplayBufferSaved"})
		mustSend(t, conn, opRequestResponse, map[string]any{
			"requestType": req.RequestType, "requestId": "other",
			"requestStatus": map[string]any{"result": true, "code": 100},
		})
		status := map[string]any{"result": ok, "code": 100}
		if !ok {
			status["code"] = 501
			status["comment"] = "Replay buffer is not active."
		}
		mustSend(t, conn, opRequestResponse, map[string]any{
			"requestType": req.RequestType, "requestId": req.RequestID, "requestStatus": status,
		})
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func mustSend(t *testing.T, conn *ws.Conn, op int, d any) {
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(message{Op: op, D: raw}))
}

func TestAuthResponse(t *testing.T) {
	// reference value from the obs-websocket protocol docs procedure
	got := authResponse("supersecretpassword", "lM1GncleQOaCu9lT1yeUZhFYnqhsLLP1G5lAGo3ixaI=", "+IxH4CnCiqpX1rM9scsNynZzbOe4KhDeYcTNS3PDaeY=")
	assert.Equal(t, "1Ct943GAT+6YQUUX47Ia/ncufilbe6+oD6lY+5kaCu4=", got)
}

func TestClient_SaveReplay(t *testing.T) {
	url := fakeOBS(t, "", true)
	c := NewClient(url, "", nil)
	require.NoError(t, c.SaveReplay(context.Background()))
}

func TestClient_SaveReplayWithAuth(t *testing.T) {
	url := fakeOBS(t, "hunter2", true)
	c := NewClient(url, "hunter2", nil)
	require.NoError(t, c.SaveReplay(context.Background()))
}

func TestClient_AuthRequired(t *testing.T) {
	url := fakeOBS(t, "hunter2", true)
	c := NewClient(url, "", nil)
	assert.ErrorIs(t, c.SaveReplay(context.Background()), ErrAuthRequired)
}

func TestClient_WrongPassword(t *testing.T) {
	url := fakeOBS(t, "hunter2", true)
	c := NewClient(url, "nope", nil)
	assert.Error(t, c.SaveReplay(context.Background()))
}

func TestClient_RequestFailed(t *testing.T) {
	url := fakeOBS(t, "", false)
	c := NewClient(url, "", nil)
	err := c.SaveReplay(context.Background())
	require.ErrorIs(t, err, ErrRequest)
	assert.Contains(t, err.Error(), "Replay buffer is not active.")
}

func TestClient_Unreachable(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1", "", nil)
	assert.Error(t, c.SaveReplay(context.Background()))
}
