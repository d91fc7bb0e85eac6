package apps

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner succeeds only for commands listed in ok.
type fakeRunner struct {
	ok    map[string]bool
	calls []string
}

func (f *fakeRunner) exec(name string, args ...string) error {
	line := strings.TrimSpace(name + " " + strings.Join(args, " "))
	f.calls = append(f.calls, line)
	if f.ok[line] {
		return nil
	}
	return errors.New("exit status 1")
}

func (f *fakeRunner) Start(_ context.Context, name string, args ...string) error {
	return f.exec(name, args...)
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) error {
	return f.exec(name, args...)
}

type fakeKiller struct {
	killed map[string]int
}

func (f fakeKiller) KillByName(name string) (int, error) {
	return f.killed[name], nil
}

func newLauncher(goos string, r Runner, open URLOpener, k Killer) *Launcher {
	lg := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLauncher(r, open, k, lg).ForOS(goos)
}

func TestLauncher_OpenLinuxTable(t *testing.T) {
	r := &fakeRunner{ok: map[string]bool{"libreoffice --writer": true}}
	l := newLauncher("linux", r, nil, nil)

	require.NoError(t, l.Open(context.Background(), "Writer"))
	assert.Equal(t, []string{"libreoffice --writer"}, r.calls)
}

func TestLauncher_OpenLinuxVariation(t *testing.T) {
	r := &fakeRunner{ok: map[string]bool{"obs-studio": true}}
	l := newLauncher("linux", r, nil, nil)

	require.NoError(t, l.Open(context.Background(), "obs studio"))
	assert.Equal(t, []string{"obs studio", "obs-studio"}, r.calls)
}

func TestLauncher_OpenURIScheme(t *testing.T) {
	var opened string
	r := &fakeRunner{}
	l := newLauncher("linux", r, func(u string) error { opened = u; return nil }, nil)

	require.NoError(t, l.Open(context.Background(), "Spotify"))
	assert.Equal(t, "spotify:", opened)
	assert.Empty(t, r.calls)
}

func TestLauncher_OpenNotFound(t *testing.T) {
	tests := []struct {
		goos string
		app  string
	}{
		{"linux", "notepad"},
		{"darwin", "notepad"},
		{"windows", "notepad"},
		{"plan9", "notepad"},
		{"linux", "  "},
	}
	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.app, func(t *testing.T) {
			l := newLauncher(tt.goos, &fakeRunner{}, nil, nil)
			assert.ErrorIs(t, l.Open(context.Background(), tt.app), ErrNotFound)
		})
	}
}

func TestLauncher_OpenDarwin(t *testing.T) {
	r := &fakeRunner{ok: map[string]bool{"open -a Notes": true}}
	l := newLauncher("darwin", r, nil, nil)
	require.NoError(t, l.Open(context.Background(), "Notes"))
}

func TestLauncher_OpenWindowsSystemApp(t *testing.T) {
	r := &fakeRunner{ok: map[string]bool{"notepad.exe": true}}
	l := newLauncher("windows", r, nil, nil)
	require.NoError(t, l.Open(context.Background(), "notepad"))
	assert.Equal(t, []string{"notepad.exe"}, r.calls)
}

func TestLauncher_CloseLinux(t *testing.T) {
	r := &fakeRunner{ok: map[string]bool{"pkill -9 -f code": true}}
	l := newLauncher("linux", r, nil, nil)

	require.NoError(t, l.Close(context.Background(), "VSCode"))
	assert.Equal(t, []string{"pkill -f code", "pkill -9 -f code"}, r.calls)
}

func TestLauncher_CloseFallsBackToKiller(t *testing.T) {
	l := newLauncher("linux", &fakeRunner{}, nil, fakeKiller{killed: map[string]int{"steam": 2}})
	require.NoError(t, l.Close(context.Background(), "steam"))
}

func TestLauncher_CloseNotRunning(t *testing.T) {
	l := newLauncher("windows", &fakeRunner{}, nil, fakeKiller{})
	assert.ErrorIs(t, l.Close(context.Background(), "Obscure Tool"), ErrNotRunning)
}

func TestLauncher_CloseWindowsGuess(t *testing.T) {
	r := &fakeRunner{ok: map[string]bool{"taskkill /F /IM obscuretool.exe": true}}
	l := newLauncher("windows", r, nil, nil)
	require.NoError(t, l.Close(context.Background(), "Obscure Tool"))
}

func TestVariations(t *testing.T) {
	assert.Equal(t, []string{"notepad"}, variations("notepad"))
	assert.Equal(t, []string{"text editor", "text-editor", "text_editor", "texteditor"}, variations("text editor"))
}
