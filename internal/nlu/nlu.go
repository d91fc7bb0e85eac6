package nlu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"

	"pilot/internal/intent"
)

const DefaultModel = openai.ChatModelGPT5Nano

var (
	ErrNoChoices    = errors.New("no choices in response")
	ErrEmptyContent = errors.New("empty message content")
)

const promptHeader = `
You are Pilot, a helpful desktop assistant. Your ONLY job is to map the user's
request to one or more actions and their parameters.

GENERAL RULES:
1. Output ONLY JSON. No markdown.
2. Do NOT answer the question yourself.
3. The "description" field is what you say back to the user. Keep it brief,
   you can have a little fun with it.
4. Be mindful of speech-to-text errors ("modify" might be "spotify").
5. If nothing fits, use the intent "unknown".

OUTPUT FORMAT (one action):
{
  "intent": "<action>",
  "description": "<spoken reply>",
  "app_name": "<for open_app / close_app>",
  "text_message": "<for chat intents>",
  "website_name": "<for open_website>",
  "search_query": "<for search_web>"
}

OUTPUT FORMAT (several actions in one request):
{
  "actions": [ <one action object per step> ],
  "overall_description": "<spoken reply for the whole request>",
  "execution_order": [ <0-based indices into actions> ]
}

RULES:
- For media: use media_play, media_pause, media_next, media_previous.
- For apps: use open_app or close_app with app_name. Steam games are apps too.
- For web: use open_website with website_name or search_web with search_query.
- For game chat: type_chat and spam_chat with text_message; type_ai_message
  with the game situation (clutch, win, loss, team) in text_message;
  add_chat_message with the phrase to remember in text_message.
- afk starts the anti-idle macro, move_around is a short one, stop_afk ends it.
`

// SystemPrompt lists every action the assistant supports.
func SystemPrompt() string {
	kinds := intent.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return promptHeader + "\nAVAILABLE ACTIONS: " + strings.Join(names, ", ") + "\n"
}

type Classifier struct {
	client openai.Client
	model  shared.ChatModel
	lg     *slog.Logger
}

func NewClassifier(client openai.Client, model string, lg *slog.Logger) *Classifier {
	if model == "" {
		model = DefaultModel
	}
	if lg == nil {
		lg = slog.Default()
	}
	return &Classifier{client: client, model: model, lg: lg.With("component", "nlu")}
}

// Classify turns an utterance into a batch of intents.
func (c *Classifier) Classify(ctx context.Context, utterance string) (intent.Batch, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(SystemPrompt()),
			openai.UserMessage(utterance),
		},
		Model: c.model,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return intent.Batch{}, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return intent.Batch{}, ErrNoChoices
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return intent.Batch{}, ErrEmptyContent
	}

	c.lg.Debug("Classified", "data", content)

	b, err := intent.Parse([]byte(content))
	if err != nil {
		return intent.Batch{}, fmt.Errorf("parse NLU result: %w (raw: %s)", err, content)
	}
	return b, nil
}
