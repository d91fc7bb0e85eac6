// Package action maps every intent kind to the handler that carries it out.
package action

import (
	"context"
	"fmt"
	"time"

	"pilot/internal/intent"
	"pilot/internal/steam"
)

// Result is what every handler reports back: whether it worked and what to
// tell the user.
type Result struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func Ok(format string, args ...any) Result {
	return Result{OK: true, Message: fmt.Sprintf(format, args...)}
}

func Fail(format string, args ...any) Result {
	return Result{OK: false, Message: fmt.Sprintf(format, args...)}
}

// Func carries out one intent. It must report failures through Result.
type Func func(ctx context.Context, in intent.Intent) Result

type Handler struct {
	// Requires lists the intent fields the handler reads.
	Requires []intent.Field
	Fn       Func
}

// Collaborator contracts. Each is a thin OS-facing service.

type Apps interface {
	Open(ctx context.Context, name string) error
	Close(ctx context.Context, name string) error
}

type Games interface {
	Games() ([]steam.Game, error)
	Launch(name string) (steam.Game, error)
}

type Browser interface {
	OpenWebsite(name string) (string, error)
	Search(query string) (string, error)
}

type Capturer interface {
	Screenshot(ctx context.Context) (string, error)
	Picture(ctx context.Context) (string, error)
}

type Clipper interface {
	SaveReplay(ctx context.Context) error
}

type Keys interface {
	PressKey(key string) error
}

type Macros interface {
	AFK(duration, interval time.Duration) bool
	StopAFK() bool
	TypeInChat(ctx context.Context, message string, delay time.Duration, teamChat bool) error
	SpamChat(ctx context.Context, message string, count int, interval time.Duration) error
	TypeAIMessage(ctx context.Context, situation string, teamChat bool) (string, error)
	AddChatMessage(message string) error
}

// Deps are the collaborators handlers call into. A nil collaborator makes its
// handlers answer that the feature is unavailable.
type Deps struct {
	Apps     Apps
	Games    Games
	Browser  Browser
	Capturer Capturer
	Clipper  Clipper
	Keys     Keys
	Macros   Macros
}

// Registry is the closed table of supported intents.
type Registry struct {
	handlers map[intent.Kind]Handler
}

// Lookup returns the handler for k.
func (r *Registry) Lookup(k intent.Kind) (Handler, bool) {
	h, ok := r.handlers[k]
	return h, ok
}

// Kinds lists registered kinds in stable order.
func (r *Registry) Kinds() []intent.Kind {
	var out []intent.Kind
	for _, k := range intent.Kinds() {
		if _, ok := r.handlers[k]; ok {
			out = append(out, k)
		}
	}
	return out
}
