// Package capture stores screenshots and webcam pictures under a captures
// directory.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // camera frames
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const stampLayout = "2006-01-02_15-04-05"

var unsafeChars = regexp.MustCompile(`[\\/*?:"<>|]`)

// Screen grabs the display and names the focused window.
type Screen interface {
	Grab() (image.Image, error)
	ActiveTitle() string
}

// Camera returns one encoded frame (JPEG or PNG).
type Camera interface {
	Frame(ctx context.Context) ([]byte, error)
}

// ScreenshotName builds the file name for a screenshot taken at t while
// title had focus.
func ScreenshotName(t time.Time, title string) string {
	clean := unsafeChars.ReplaceAllString(strings.TrimSpace(title), "")
	clean = strings.ReplaceAll(clean, " ", "_")
	if clean == "" {
		clean = "unknown"
	}
	return fmt.Sprintf("screenshot_%s_%s.png", t.Format(stampLayout), clean)
}

// PictureName builds the file name for a webcam picture taken at t.
func PictureName(t time.Time) string {
	return fmt.Sprintf("picture_%s.png", t.Format(stampLayout))
}

type Capturer struct {
	dir    string
	screen Screen
	camera Camera
	now    func() time.Time
	lg     *slog.Logger
}

func New(dir string, screen Screen, camera Camera, lg *slog.Logger) *Capturer {
	if lg == nil {
		lg = slog.Default()
	}
	return &Capturer{
		dir:    dir,
		screen: screen,
		camera: camera,
		now:    time.Now,
		lg:     lg.With("component", "capture"),
	}
}

// Screenshot grabs the screen and returns the saved file path.
func (c *Capturer) Screenshot(_ context.Context) (string, error) {
	if c.screen == nil {
		return "", fmt.Errorf("no screen available")
	}
	img, err := c.screen.Grab()
	if err != nil {
		return "", err
	}

	path := filepath.Join(c.dir, "screenshots", ScreenshotName(c.now(), c.screen.ActiveTitle()))
	if err := writePNG(path, img); err != nil {
		return "", err
	}
	c.lg.Info("Screenshot saved", "path", path)
	return path, nil
}

// Picture takes a webcam frame and returns the saved file path.
func (c *Capturer) Picture(ctx context.Context) (string, error) {
	if c.camera == nil {
		return "", fmt.Errorf("no camera available")
	}
	data, err := c.camera.Frame(ctx)
	if err != nil {
		return "", err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode frame: %w", err)
	}

	path := filepath.Join(c.dir, "pictures", PictureName(c.now()))
	if err := writePNG(path, img); err != nil {
		return "", err
	}
	c.lg.Info("Picture saved", "path", path)
	return path, nil
}

func writePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create capture dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
