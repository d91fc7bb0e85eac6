package nlu

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pilot/internal/intent"
)

// fakeCompletions answers every chat completion with content and records
// the last request body.
func fakeCompletions(t *testing.T, status int, content string) (*Classifier, *map[string]any) {
	t.Helper()
	var last map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &last))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "gpt-5-nano",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)

	client := openai.NewClient(
		option.WithBaseURL(srv.URL),
		option.WithAPIKey("test"),
		option.WithMaxRetries(0),
	)
	lg := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClassifier(client, "", lg), &last
}

func TestClassify_Single(t *testing.T) {
	c, last := fakeCompletions(t, http.StatusOK,
		`{"intent":"open_app","description":"On it.","app_name":"spotify"}`)

	b, err := c.Classify(context.Background(), "open spotify")
	require.NoError(t, err)
	require.Len(t, b.Intents, 1)
	assert.Equal(t, intent.OpenApp, b.Intents[0].Kind)
	assert.Equal(t, "spotify", b.Intents[0].AppName)
	assert.Equal(t, "On it.", b.Description)

	assert.Equal(t, string(DefaultModel), (*last)["model"])
	format, _ := (*last)["response_format"].(map[string]any)
	assert.Equal(t, "json_object", format["type"])
}

func TestClassify_Multi(t *testing.T) {
	c, _ := fakeCompletions(t, http.StatusOK, `{
		"actions": [
			{"intent":"open_app","app_name":"discord"},
			{"intent":"media_pause"}
		],
		"overall_description": "Pausing and opening Discord.",
		"execution_order": [1, 0]
	}`)

	b, err := c.Classify(context.Background(), "pause and open discord")
	require.NoError(t, err)
	assert.Equal(t, []intent.Kind{intent.MediaPause, intent.OpenApp},
		[]intent.Kind{b.Ordered()[0].Kind, b.Ordered()[1].Kind})
}

func TestClassify_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
		target  error
	}{
		{"api error", http.StatusBadRequest, "", nil},
		{"empty content", http.StatusOK, "", ErrEmptyContent},
		{"not json", http.StatusOK, "sure thing!", nil},
		{"no intent", http.StatusOK, `{"description":"hm"}`, intent.ErrEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := fakeCompletions(t, tt.status, tt.content)
			_, err := c.Classify(context.Background(), "hello")
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestSystemPrompt_ListsEveryKind(t *testing.T) {
	p := SystemPrompt()
	for _, k := range intent.Kinds() {
		assert.Contains(t, p, string(k))
	}
}
