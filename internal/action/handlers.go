package action

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pilot/internal/apps"
	"pilot/internal/input"
	"pilot/internal/intent"
	"pilot/internal/steam"
)

// Settings tunes the macro-backed handlers.
type Settings struct {
	AFKDuration  time.Duration
	AFKInterval  time.Duration
	MoveDuration time.Duration
	MoveInterval time.Duration
	CharDelay    time.Duration
	SpamCount    int
	SpamInterval time.Duration
	TeamChat     bool
	AISituation  string
}

func DefaultSettings() Settings {
	return Settings{
		AFKDuration:  30 * time.Minute,
		AFKInterval:  30 * time.Second,
		MoveDuration: time.Minute,
		MoveInterval: time.Second,
		CharDelay:    50 * time.Millisecond,
		SpamCount:    5,
		SpamInterval: time.Second,
		TeamChat:     true,
		AISituation:  "general",
	}
}

const unavailable = "Sorry, that isn't available right now."

// NewRegistry builds the handler table over deps.
func NewRegistry(d Deps, s Settings) *Registry {
	h := &handlers{d: d, s: s}

	return &Registry{handlers: map[intent.Kind]Handler{
		intent.OpenApp:        {Requires: []intent.Field{intent.FieldAppName}, Fn: h.openApp},
		intent.CloseApp:       {Requires: []intent.Field{intent.FieldAppName}, Fn: h.closeApp},
		intent.Screenshot:     {Fn: h.screenshot},
		intent.TakePicture:    {Fn: h.takePicture},
		intent.MediaPlay:      {Fn: h.mediaKey(input.KeyAudioPlay, "Media resumed", "Failed to play media")},
		intent.MediaPause:     {Fn: h.mediaKey(input.KeyAudioPause, "Media paused", "Failed to pause media")},
		intent.MediaNext:      {Fn: h.mediaKey(input.KeyAudioNext, "Skipped to next track", "Failed to skip track")},
		intent.MediaPrevious:  {Fn: h.mediaKey(input.KeyAudioPrev, "Skipped to previous track", "Failed to go to previous track")},
		intent.AFK:            {Fn: h.afk},
		intent.StopAFK:        {Fn: h.stopAFK},
		intent.MoveAround:     {Fn: h.moveAround},
		intent.TypeChat:       {Requires: []intent.Field{intent.FieldTextMessage}, Fn: h.typeChat},
		intent.SpamChat:       {Requires: []intent.Field{intent.FieldTextMessage}, Fn: h.spamChat},
		intent.TypeAIMessage:  {Fn: h.typeAIMessage},
		intent.AddChatMessage: {Requires: []intent.Field{intent.FieldTextMessage}, Fn: h.addChatMessage},
		intent.OpenWebsite:    {Requires: []intent.Field{intent.FieldWebsiteName}, Fn: h.openWebsite},
		intent.SearchWeb:      {Requires: []intent.Field{intent.FieldSearchQuery}, Fn: h.searchWeb},
		intent.ListSteamGames: {Fn: h.listSteamGames},
		intent.Clip:           {Fn: h.clip},
	}}
}

type handlers struct {
	d Deps
	s Settings
}

func (h *handlers) openApp(ctx context.Context, in intent.Intent) Result {
	name := strings.TrimSpace(in.AppName)
	if name == "" {
		return Fail("Which application should I open?")
	}

	if h.d.Games != nil {
		g, err := h.d.Games.Launch(name)
		switch {
		case err == nil:
			return Ok("Launched %s on Steam.", g.Name)
		case errors.Is(err, steam.ErrGameNotFound), errors.Is(err, steam.ErrNotInstalled):
		default:
			return Fail("Failed to launch %s.", name)
		}
	}

	if h.d.Apps == nil {
		return Fail(unavailable)
	}
	if err := h.d.Apps.Open(ctx, name); err != nil {
		return Fail("Sorry, I couldn't find an application named %s to open.", name)
	}
	return Ok("Opening %s.", name)
}

func (h *handlers) closeApp(ctx context.Context, in intent.Intent) Result {
	name := strings.TrimSpace(in.AppName)
	if name == "" {
		return Fail("Which application should I close?")
	}
	if h.d.Apps == nil {
		return Fail(unavailable)
	}

	err := h.d.Apps.Close(ctx, name)
	switch {
	case err == nil:
		return Ok("Closed %s.", name)
	case errors.Is(err, apps.ErrNotRunning):
		return Fail("%s wasn't running, so I couldn't close it.", name)
	default:
		return Fail("Sorry, I couldn't close %s.", name)
	}
}

func (h *handlers) screenshot(ctx context.Context, _ intent.Intent) Result {
	if h.d.Capturer == nil {
		return Fail(unavailable)
	}
	if _, err := h.d.Capturer.Screenshot(ctx); err != nil {
		return Fail("Sorry, I couldn't take a screenshot.")
	}
	return Ok("Screenshot saved.")
}

func (h *handlers) takePicture(ctx context.Context, _ intent.Intent) Result {
	if h.d.Capturer == nil {
		return Fail(unavailable)
	}
	if _, err := h.d.Capturer.Picture(ctx); err != nil {
		return Fail("Sorry, I couldn't access the camera.")
	}
	return Ok("Picture saved.")
}

func (h *handlers) mediaKey(key, done, failed string) Func {
	return func(_ context.Context, _ intent.Intent) Result {
		if h.d.Keys == nil {
			return Fail(unavailable)
		}
		if err := h.d.Keys.PressKey(key); err != nil {
			return Fail("%s: %v", failed, err)
		}
		return Ok("%s", done)
	}
}

func (h *handlers) afk(_ context.Context, _ intent.Intent) Result {
	if h.d.Macros == nil {
		return Fail(unavailable)
	}
	if !h.d.Macros.AFK(h.s.AFKDuration, h.s.AFKInterval) {
		return Ok("AFK mode is already running.")
	}
	return Ok("AFK mode on for %s.", humanDuration(h.s.AFKDuration))
}

func (h *handlers) stopAFK(_ context.Context, _ intent.Intent) Result {
	if h.d.Macros == nil {
		return Fail(unavailable)
	}
	if !h.d.Macros.StopAFK() {
		return Ok("AFK mode wasn't running.")
	}
	return Ok("AFK mode stopped.")
}

func (h *handlers) moveAround(_ context.Context, _ intent.Intent) Result {
	if h.d.Macros == nil {
		return Fail(unavailable)
	}
	if !h.d.Macros.AFK(h.s.MoveDuration, h.s.MoveInterval) {
		return Ok("I'm already moving around.")
	}
	return Ok("Moving around for %s.", humanDuration(h.s.MoveDuration))
}

func (h *handlers) typeChat(ctx context.Context, in intent.Intent) Result {
	if in.TextMessage == "" {
		return Fail("I need a message to type.")
	}
	if h.d.Macros == nil {
		return Fail(unavailable)
	}
	if err := h.d.Macros.TypeInChat(ctx, in.TextMessage, h.s.CharDelay, h.s.TeamChat); err != nil {
		return Fail("Sorry, I couldn't type that.")
	}
	return Ok("Typed: %s", in.TextMessage)
}

func (h *handlers) spamChat(ctx context.Context, in intent.Intent) Result {
	if in.TextMessage == "" {
		return Fail("I need a message to spam.")
	}
	if h.d.Macros == nil {
		return Fail(unavailable)
	}
	if err := h.d.Macros.SpamChat(ctx, in.TextMessage, h.s.SpamCount, h.s.SpamInterval); err != nil {
		return Fail("Sorry, I stopped spamming early.")
	}
	return Ok("Sent %s %d times.", in.TextMessage, h.s.SpamCount)
}

// typeAIMessage reads the game situation ("clutch", "win", ...) from the
// message field.
func (h *handlers) typeAIMessage(ctx context.Context, in intent.Intent) Result {
	if h.d.Macros == nil {
		return Fail(unavailable)
	}
	situation := strings.TrimSpace(in.TextMessage)
	if situation == "" {
		situation = h.s.AISituation
	}
	msg, err := h.d.Macros.TypeAIMessage(ctx, situation, h.s.TeamChat)
	if err != nil {
		return Fail("Sorry, I couldn't type that.")
	}
	return Ok("Typed: %s", msg)
}

func (h *handlers) addChatMessage(_ context.Context, in intent.Intent) Result {
	msg := strings.TrimSpace(in.TextMessage)
	if msg == "" {
		return Fail("I need a message to add.")
	}
	if h.d.Macros == nil {
		return Fail(unavailable)
	}
	if err := h.d.Macros.AddChatMessage(msg); err != nil {
		return Fail("Sorry, I couldn't save that message.")
	}
	return Ok("Added %q to the chat messages.", msg)
}

func (h *handlers) openWebsite(_ context.Context, in intent.Intent) Result {
	if strings.TrimSpace(in.WebsiteName) == "" {
		return Fail("Which website should I open?")
	}
	if h.d.Browser == nil {
		return Fail(unavailable)
	}
	u, err := h.d.Browser.OpenWebsite(in.WebsiteName)
	if err != nil {
		return Fail("Sorry, I couldn't open that website.")
	}
	return Ok("Opening %s.", u)
}

func (h *handlers) searchWeb(_ context.Context, in intent.Intent) Result {
	if strings.TrimSpace(in.SearchQuery) == "" {
		return Fail("What should I search for?")
	}
	if h.d.Browser == nil {
		return Fail(unavailable)
	}
	if _, err := h.d.Browser.Search(in.SearchQuery); err != nil {
		return Fail("Sorry, I ran into an error trying to search for that.")
	}
	return Ok("Searching for %s.", in.SearchQuery)
}

func (h *handlers) listSteamGames(_ context.Context, _ intent.Intent) Result {
	if h.d.Games == nil {
		return Fail(unavailable)
	}
	games, err := h.d.Games.Games()
	if err != nil && !errors.Is(err, steam.ErrNotInstalled) {
		return Fail("Sorry, I couldn't read the Steam library.")
	}
	return Result{OK: len(games) > 0, Message: steam.FormatList(games)}
}

func (h *handlers) clip(ctx context.Context, _ intent.Intent) Result {
	if h.d.Clipper == nil {
		return Fail(unavailable)
	}
	if err := h.d.Clipper.SaveReplay(ctx); err != nil {
		return Fail("Sorry, I couldn't save a clip.")
	}
	return Ok("Clip saved.")
}

func humanDuration(d time.Duration) string {
	switch {
	case d == time.Minute:
		return "a minute"
	case d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
