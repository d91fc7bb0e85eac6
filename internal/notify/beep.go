// Package notify tells the user the assistant is listening: a short beep
// and a desktop notification.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"

	"pilot/internal/audio"
)

// Commander runs an external notification command.
type Commander func(ctx context.Context, name string, args ...string) error

func execCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

type Notifier struct {
	beepPath string
	run      Commander
	play     func(ctx context.Context, path string) error
	lg       *slog.Logger
}

func New(beepPath string, lg *slog.Logger) *Notifier {
	if lg == nil {
		lg = slog.Default()
	}
	return &Notifier{
		beepPath: beepPath,
		run:      execCommand,
		play:     playFile,
		lg:       lg.With("component", "notify"),
	}
}

func playFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open beep: %w", err)
	}
	return audio.PlayMP3(ctx, f)
}

// Beep plays the listening cue. A missing file is reported, not fatal.
func (n *Notifier) Beep(ctx context.Context) error {
	if n.beepPath == "" {
		return nil
	}
	return n.play(ctx, n.beepPath)
}

// Notify shows msg as a desktop notification. On sway it goes through
// swaymsg, elsewhere on linux through notify-send.
func (n *Notifier) Notify(ctx context.Context, msg string) error {
	name, args := notifyCommand(runtime.GOOS, os.Getenv("SWAYSOCK") != "", msg)
	if name == "" {
		n.lg.Debug("No notifier for platform", "os", runtime.GOOS)
		return nil
	}
	if err := n.run(ctx, name, args...); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Listening runs the beep and the notification, logging failures.
func (n *Notifier) Listening(ctx context.Context) {
	if err := n.Beep(ctx); err != nil {
		n.lg.Warn("Failed to beep", "err", err)
	}
	if err := n.Notify(ctx, "Listening..."); err != nil {
		n.lg.Warn("Failed to notify", "err", err)
	}
}

func notifyCommand(goos string, sway bool, msg string) (string, []string) {
	switch {
	case goos == "linux" && sway:
		return "swaymsg", []string{"exec", fmt.Sprintf("notify-send 'Pilot' '%s'", msg)}
	case goos == "linux":
		return "notify-send", []string{"Pilot", msg}
	case goos == "darwin":
		return "osascript", []string{"-e", fmt.Sprintf("display notification %q with title \"Pilot\"", msg)}
	default:
		return "", nil
	}
}
