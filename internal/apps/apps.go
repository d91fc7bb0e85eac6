// Package apps launches and closes desktop applications by their spoken
// name.
package apps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
)

var (
	ErrNotFound   = errors.New("application not found")
	ErrNotRunning = errors.New("application not running")
)

// Runner executes OS commands.
type Runner interface {
	// Start launches a command without waiting for it.
	Start(ctx context.Context, name string, args ...string) error
	// Run waits for the command and fails on a non-zero exit.
	Run(ctx context.Context, name string, args ...string) error
}

// Killer terminates processes by name.
type Killer interface {
	KillByName(name string) (int, error)
}

// URLOpener hands a URL to the OS default handler.
type URLOpener func(url string) error

type ExecRunner struct{}

func (ExecRunner) Start(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(context.WithoutCancel(ctx), name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

var uriSchemes = map[string]string{
	"spotify": "spotify:",
	"discord": "discord://",
	"steam":   "steam://",
}

var linuxApps = map[string]string{
	"firefox":            "firefox",
	"chrome":             "google-chrome",
	"google chrome":      "google-chrome",
	"chromium":           "chromium-browser",
	"file manager":       "nautilus",
	"files":              "nautilus",
	"nautilus":           "nautilus",
	"terminal":           "gnome-terminal",
	"calculator":         "gnome-calculator",
	"text editor":        "gedit",
	"gedit":              "gedit",
	"code":               "code",
	"vscode":             "code",
	"visual studio code": "code",
	"gimp":               "gimp",
	"libreoffice":        "libreoffice",
	"writer":             "libreoffice --writer",
	"calc":               "libreoffice --calc",
	"impress":            "libreoffice --impress",
	"thunderbird":        "thunderbird",
	"vlc":                "vlc",
	"system monitor":     "gnome-system-monitor",
	"settings":           "gnome-control-center",
	"software":           "gnome-software",
	"notepad":            "gedit",
}

var linuxProcesses = map[string]string{
	"firefox":            "firefox",
	"chrome":             "chrome",
	"google chrome":      "chrome",
	"chromium":           "chromium",
	"file manager":       "nautilus",
	"files":              "nautilus",
	"nautilus":           "nautilus",
	"terminal":           "gnome-terminal",
	"calculator":         "gnome-calculator",
	"text editor":        "gedit",
	"gedit":              "gedit",
	"code":               "code",
	"vscode":             "code",
	"visual studio code": "code",
	"gimp":               "gimp",
	"libreoffice":        "libreoffice",
	"writer":             "libreoffice",
	"calc":               "libreoffice",
	"impress":            "libreoffice",
	"thunderbird":        "thunderbird",
	"vlc":                "vlc",
	"system monitor":     "gnome-system-monitor",
	"settings":           "gnome-control-center",
	"software":           "gnome-software",
	"discord":            "discord",
	"slack":              "slack",
	"spotify":            "spotify",
}

var windowsApps = map[string]string{
	"file explorer":   "explorer.exe",
	"explorer":        "explorer.exe",
	"task manager":    "Taskmgr.exe",
	"calculator":      "calc.exe",
	"notepad":         "notepad.exe",
	"paint":           "mspaint.exe",
	"command prompt":  "cmd.exe",
	"cmd":             "cmd.exe",
	"powershell":      "powershell.exe",
	"registry editor": "regedit.exe",
	"regedit":         "regedit.exe",
	"control panel":   "control.exe",
}

var windowsProcesses = map[string]string{
	"chrome":             "chrome.exe",
	"google chrome":      "chrome.exe",
	"firefox":            "firefox.exe",
	"edge":               "msedge.exe",
	"microsoft edge":     "msedge.exe",
	"vscode":             "Code.exe",
	"visual studio code": "Code.exe",
	"visual studio":      "devenv.exe",
	"word":               "WINWORD.EXE",
	"excel":              "EXCEL.EXE",
	"powerpoint":         "POWERPNT.EXE",
	"outlook":            "OUTLOOK.EXE",
	"discord":            "Discord.exe",
	"slack":              "slack.exe",
	"teams":              "ms-teams.exe",
	"spotify":            "Spotify.exe",
	"steam":              "steam.exe",
	"file explorer":      "explorer.exe",
	"explorer":           "explorer.exe",
	"task manager":       "Taskmgr.exe",
	"notepad":            "notepad.exe",
	"paint":              "mspaint.exe",
	"command prompt":     "cmd.exe",
	"powershell":         "powershell.exe",
	"calculator":         "CalculatorApp.exe",
	"snipping tool":      "SnippingTool.exe",
}

// Launcher opens and closes applications using per-OS strategies.
type Launcher struct {
	goos   string
	run    Runner
	open   URLOpener
	killer Killer
	lg     *slog.Logger
}

func NewLauncher(run Runner, open URLOpener, killer Killer, lg *slog.Logger) *Launcher {
	if lg == nil {
		lg = slog.Default()
	}
	return &Launcher{
		goos:   runtime.GOOS,
		run:    run,
		open:   open,
		killer: killer,
		lg:     lg.With("component", "apps"),
	}
}

// ForOS makes the launcher behave as on goos.
func (l *Launcher) ForOS(goos string) *Launcher {
	l.goos = goos
	return l
}

func variations(name string) []string {
	out := []string{name}
	for _, v := range []string{
		strings.ReplaceAll(name, " ", "-"),
		strings.ReplaceAll(name, " ", "_"),
		strings.ReplaceAll(name, " ", ""),
	} {
		if v != out[len(out)-1] && v != name {
			out = append(out, v)
		}
	}
	return out
}

// Open launches the application called name. It returns ErrNotFound when
// every strategy fails.
func (l *Launcher) Open(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNotFound
	}
	lower := strings.ToLower(name)

	if uri, ok := uriSchemes[lower]; ok && l.open != nil {
		err := l.open(uri)
		if err == nil {
			l.lg.Info("Opened app via protocol", "app", name, "uri", uri)
			return nil
		}
		l.lg.Warn("Protocol launch failed", "app", name, "err", err)
	}

	var attempts [][]string
	switch l.goos {
	case "linux":
		if cmd, ok := linuxApps[lower]; ok {
			attempts = append(attempts, strings.Fields(cmd))
		}
		for _, v := range variations(lower) {
			attempts = append(attempts, []string{v})
		}
		attempts = append(attempts, []string{"gtk-launch", strings.ReplaceAll(lower, " ", "-")})
	case "darwin":
		attempts = append(attempts, []string{"open", "-a", name})
		for _, v := range variations(lower)[1:] {
			attempts = append(attempts, []string{"open", "-a", v})
		}
	case "windows":
		if exe, ok := windowsApps[lower]; ok {
			attempts = append(attempts, []string{exe})
		}
		attempts = append(attempts,
			[]string{"cmd", "/c", "start", "", strings.ReplaceAll(lower, " ", "")},
			[]string{"cmd", "/c", "start", "", name})
	default:
		return fmt.Errorf("opening apps on %s: %w", l.goos, ErrNotFound)
	}

	for _, a := range attempts {
		var err error
		if l.goos == "linux" {
			err = l.run.Start(ctx, a[0], a[1:]...)
		} else {
			err = l.run.Run(ctx, a[0], a[1:]...)
		}
		if err == nil {
			l.lg.Info("Launched app", "app", name, "cmd", strings.Join(a, " "))
			return nil
		}
		l.lg.Debug("Launch attempt failed", "app", name, "cmd", strings.Join(a, " "), "err", err)
	}

	return ErrNotFound
}

// Close terminates the application called name. It returns ErrNotRunning
// when nothing could be closed.
func (l *Launcher) Close(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNotRunning
	}
	lower := strings.ToLower(name)

	var attempts [][]string
	var procs []string
	switch l.goos {
	case "linux":
		if p, ok := linuxProcesses[lower]; ok {
			procs = []string{p}
		} else {
			procs = variations(lower)
		}
		for _, p := range procs {
			attempts = append(attempts, []string{"pkill", "-f", p})
		}
		for _, p := range procs {
			attempts = append(attempts, []string{"pkill", "-9", "-f", p})
		}
		for _, p := range procs {
			attempts = append(attempts, []string{"killall", p})
		}
	case "darwin":
		procs = []string{name}
		attempts = append(attempts,
			[]string{"osascript", "-e", fmt.Sprintf("quit app %q", name)},
			[]string{"pkill", "-f", name})
	case "windows":
		p, ok := windowsProcesses[lower]
		if !ok {
			p = strings.ReplaceAll(lower, " ", "") + ".exe"
		}
		procs = []string{strings.TrimSuffix(p, ".exe")}
		attempts = append(attempts, []string{"taskkill", "/F", "/IM", p})
	default:
		return fmt.Errorf("closing apps on %s: %w", l.goos, ErrNotRunning)
	}

	for _, a := range attempts {
		if err := l.run.Run(ctx, a[0], a[1:]...); err == nil {
			l.lg.Info("Closed app", "app", name, "cmd", strings.Join(a, " "))
			return nil
		}
	}

	if l.killer != nil {
		for _, p := range procs {
			n, err := l.killer.KillByName(p)
			if err != nil {
				l.lg.Debug("Process kill failed", "app", name, "err", err)
				continue
			}
			if n > 0 {
				l.lg.Info("Killed app processes", "app", name, "count", n)
				return nil
			}
		}
	}

	return ErrNotRunning
}
