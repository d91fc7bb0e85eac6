package action

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pilot/internal/apps"
	"pilot/internal/input"
	"pilot/internal/intent"
	"pilot/internal/macro"
	"pilot/internal/steam"
)

type fakeApps struct {
	installed map[string]bool
	running   map[string]bool
	opened    []string
}

func (f *fakeApps) Open(_ context.Context, name string) error {
	if !f.installed[name] {
		return apps.ErrNotFound
	}
	f.opened = append(f.opened, name)
	return nil
}

func (f *fakeApps) Close(_ context.Context, name string) error {
	if !f.running[name] {
		return apps.ErrNotRunning
	}
	return nil
}

type fakeGames struct {
	games []steam.Game
	err   error
}

func (f fakeGames) Games() ([]steam.Game, error) { return f.games, f.err }

func (f fakeGames) Launch(name string) (steam.Game, error) {
	if f.err != nil {
		return steam.Game{}, f.err
	}
	for _, g := range f.games {
		if strings.EqualFold(g.Name, name) {
			return g, nil
		}
	}
	return steam.Game{}, steam.ErrGameNotFound
}

type fakeBrowser struct{ fail bool }

func (f fakeBrowser) OpenWebsite(name string) (string, error) {
	if f.fail {
		return "", errors.New("no browser")
	}
	return "https://" + name + ".com", nil
}

func (f fakeBrowser) Search(q string) (string, error) {
	if f.fail {
		return "", errors.New("no browser")
	}
	return "https://www.google.com/search?q=" + q, nil
}

type fakeCapturer struct{ fail bool }

func (f fakeCapturer) Screenshot(context.Context) (string, error) {
	if f.fail {
		return "", errors.New("no display")
	}
	return "/tmp/s.png", nil
}

func (f fakeCapturer) Picture(context.Context) (string, error) {
	if f.fail {
		return "", errors.New("no camera")
	}
	return "/tmp/p.png", nil
}

type fakeClipper struct{ err error }

func (f fakeClipper) SaveReplay(context.Context) error { return f.err }

// pauseLog records the chat pauses a manager asked for.
type pauseLog struct {
	mu  sync.Mutex
	got []time.Duration
}

func (p *pauseLog) count(d time.Duration) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, x := range p.got {
		if x == d {
			n++
		}
	}
	return n
}

func quietManager(synth input.Synthesizer, pauses *pauseLog) *macro.Manager {
	// AFK sessions carry a deadline and park until they end; chat pauses
	// are recorded and skipped
	sleep := func(ctx context.Context, d time.Duration) error {
		if _, ok := ctx.Deadline(); ok && d >= time.Second {
			<-ctx.Done()
			return ctx.Err()
		}
		pauses.mu.Lock()
		pauses.got = append(pauses.got, d)
		pauses.mu.Unlock()
		return ctx.Err()
	}
	return macro.NewManager(synth, macro.NewPool(),
		macro.WithRand(macro.NewRand(5)),
		macro.WithSleeper(sleep),
		macro.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func newTestRegistry(t *testing.T) (*Registry, *input.Fake, *fakeApps, *macro.Manager) {
	r, synth, a, mgr, _ := newPausedRegistry(t)
	return r, synth, a, mgr
}

func newPausedRegistry(t *testing.T) (*Registry, *input.Fake, *fakeApps, *macro.Manager, *pauseLog) {
	t.Helper()
	synth := input.NewFake()
	pauses := &pauseLog{}
	mgr := quietManager(synth, pauses)
	t.Cleanup(func() { mgr.StopAFK() })

	a := &fakeApps{
		installed: map[string]bool{"notepad": true},
		running:   map[string]bool{"spotify": true},
	}
	d := Deps{
		Apps:     a,
		Games:    fakeGames{games: []steam.Game{{Name: "Dota 2", AppID: "570"}}},
		Browser:  fakeBrowser{},
		Capturer: fakeCapturer{},
		Clipper:  fakeClipper{},
		Keys:     synth,
		Macros:   mgr,
	}
	return NewRegistry(d, DefaultSettings()), synth, a, mgr, pauses
}

func run(t *testing.T, r *Registry, in intent.Intent) Result {
	t.Helper()
	h, ok := r.Lookup(in.Kind)
	require.True(t, ok, "no handler for %s", in.Kind)
	return h.Fn(context.Background(), in)
}

func TestRegistry_CoversEveryKind(t *testing.T) {
	r, _, _, _ := newTestRegistry(t)
	assert.Equal(t, intent.Kinds(), r.Kinds())

	_, ok := r.Lookup(intent.Unknown)
	assert.False(t, ok)
}

func TestHandlers_OpenApp(t *testing.T) {
	r, _, a, _ := newTestRegistry(t)

	res := run(t, r, intent.Intent{Kind: intent.OpenApp, AppName: "notepad"})
	assert.True(t, res.OK)
	assert.Contains(t, res.Message, "notepad")
	assert.Equal(t, []string{"notepad"}, a.opened)

	res = run(t, r, intent.Intent{Kind: intent.OpenApp, AppName: "dota 2"})
	assert.True(t, res.OK)
	assert.Equal(t, "Launched Dota 2 on Steam.", res.Message)

	res = run(t, r, intent.Intent{Kind: intent.OpenApp, AppName: "photoshop"})
	assert.False(t, res.OK)
	assert.Equal(t, "Sorry, I couldn't find an application named photoshop to open.", res.Message)

	res = run(t, r, intent.Intent{Kind: intent.OpenApp})
	assert.False(t, res.OK)
}

func TestHandlers_CloseApp(t *testing.T) {
	r, _, _, _ := newTestRegistry(t)

	res := run(t, r, intent.Intent{Kind: intent.CloseApp, AppName: "spotify"})
	assert.True(t, res.OK)

	res = run(t, r, intent.Intent{Kind: intent.CloseApp, AppName: "discord"})
	assert.False(t, res.OK)
	assert.Equal(t, "discord wasn't running, so I couldn't close it.", res.Message)
}

func TestHandlers_Media(t *testing.T) {
	r, synth, _, _ := newTestRegistry(t)

	tests := []struct {
		kind intent.Kind
		key  string
		msg  string
	}{
		{intent.MediaPlay, input.KeyAudioPlay, "Media resumed"},
		{intent.MediaPause, input.KeyAudioPause, "Media paused"},
		{intent.MediaNext, input.KeyAudioNext, "Skipped to next track"},
		{intent.MediaPrevious, input.KeyAudioPrev, "Skipped to previous track"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			synth.Reset()
			res := run(t, r, intent.Intent{Kind: tt.kind})
			assert.Equal(t, Result{OK: true, Message: tt.msg}, res)
			assert.Equal(t, []string{"key:" + tt.key}, synth.Events())
		})
	}

	synth.Fail = errors.New("no display")
	res := run(t, r, intent.Intent{Kind: intent.MediaPlay})
	assert.False(t, res.OK)
	assert.True(t, strings.HasPrefix(res.Message, "Failed to play media"))
}

func TestHandlers_AFKLifecycle(t *testing.T) {
	r, _, _, mgr := newTestRegistry(t)

	res := run(t, r, intent.Intent{Kind: intent.AFK})
	assert.Equal(t, "AFK mode on for 30 minutes.", res.Message)
	assert.Equal(t, 30*time.Minute, mgr.Status().Duration)

	res = run(t, r, intent.Intent{Kind: intent.MoveAround})
	assert.Equal(t, "I'm already moving around.", res.Message)
	assert.Equal(t, 30*time.Minute, mgr.Status().Duration)

	res = run(t, r, intent.Intent{Kind: intent.StopAFK})
	assert.Equal(t, "AFK mode stopped.", res.Message)

	res = run(t, r, intent.Intent{Kind: intent.StopAFK})
	assert.Equal(t, "AFK mode wasn't running.", res.Message)

	res = run(t, r, intent.Intent{Kind: intent.MoveAround})
	assert.Equal(t, "Moving around for a minute.", res.Message)
	assert.Equal(t, time.Second, mgr.Status().Interval)
}

func TestHandlers_Chat(t *testing.T) {
	r, synth, _, mgr, pauses := newPausedRegistry(t)

	res := run(t, r, intent.Intent{Kind: intent.TypeChat, TextMessage: "nice"})
	assert.True(t, res.OK)
	assert.Equal(t, "key:u", synth.Events()[0])
	assert.Equal(t, "nice", synth.Typed())

	synth.Reset()
	res = run(t, r, intent.Intent{Kind: intent.SpamChat, TextMessage: "gg"})
	assert.Equal(t, "Sent gg 5 times.", res.Message)
	assert.Equal(t, strings.Repeat("gg", 5), synth.Typed())
	assert.Equal(t, 4, pauses.count(DefaultSettings().SpamInterval))

	res = run(t, r, intent.Intent{Kind: intent.TypeChat})
	assert.False(t, res.OK)
	assert.Equal(t, "I need a message to type.", res.Message)

	synth.Reset()
	res = run(t, r, intent.Intent{Kind: intent.TypeAIMessage, TextMessage: "clutch"})
	assert.True(t, res.OK)
	assert.True(t, strings.HasPrefix(synth.Typed(), "Clutch time! "))

	res = run(t, r, intent.Intent{Kind: intent.AddChatMessage, TextMessage: "clean ace"})
	assert.True(t, res.OK)
	assert.Contains(t, mgr.Pool().General(), "clean ace")

	res = run(t, r, intent.Intent{Kind: intent.AddChatMessage, TextMessage: " "})
	assert.False(t, res.OK)
}

func TestHandlers_Web(t *testing.T) {
	r, _, _, _ := newTestRegistry(t)

	res := run(t, r, intent.Intent{Kind: intent.OpenWebsite, WebsiteName: "reddit"})
	assert.True(t, res.OK)
	res = run(t, r, intent.Intent{Kind: intent.SearchWeb, SearchQuery: "weather"})
	assert.Equal(t, "Searching for weather.", res.Message)

	res = run(t, r, intent.Intent{Kind: intent.SearchWeb})
	assert.False(t, res.OK)
}

func TestHandlers_CaptureAndClip(t *testing.T) {
	r, _, _, _ := newTestRegistry(t)

	assert.Equal(t, Ok("Screenshot saved."), run(t, r, intent.Intent{Kind: intent.Screenshot}))
	assert.Equal(t, Ok("Picture saved."), run(t, r, intent.Intent{Kind: intent.TakePicture}))
	assert.Equal(t, Ok("Clip saved."), run(t, r, intent.Intent{Kind: intent.Clip}))
}

func TestHandlers_ListSteamGames(t *testing.T) {
	r, _, _, _ := newTestRegistry(t)
	res := run(t, r, intent.Intent{Kind: intent.ListSteamGames})
	assert.Equal(t, "Found 1 Steam games:\n1. Dota 2", res.Message)

	r = NewRegistry(Deps{Games: fakeGames{err: steam.ErrNotInstalled}}, DefaultSettings())
	res = run(t, r, intent.Intent{Kind: intent.ListSteamGames})
	assert.False(t, res.OK)
	assert.True(t, strings.HasPrefix(res.Message, "No Steam games found."))
}

func TestHandlers_MissingCollaborators(t *testing.T) {
	r := NewRegistry(Deps{}, DefaultSettings())
	for _, k := range r.Kinds() {
		t.Run(string(k), func(t *testing.T) {
			in := intent.Intent{Kind: k, AppName: "x", TextMessage: "x", WebsiteName: "x", SearchQuery: "x"}
			var res Result
			assert.NotPanics(t, func() { res = run(t, r, in) })
			assert.False(t, res.OK)
			assert.NotEmpty(t, res.Message)
		})
	}
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "a minute", humanDuration(time.Minute))
	assert.Equal(t, "30 minutes", humanDuration(30*time.Minute))
	assert.Equal(t, "2 hours", humanDuration(2*time.Hour))
	assert.Equal(t, "1 hour", humanDuration(time.Hour))
	assert.Equal(t, "1.5s", humanDuration(1500*time.Millisecond))
}
