package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScreen struct {
	title string
	err   error
}

func (f fakeScreen) Grab() (image.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.White)
	return img, nil
}

func (f fakeScreen) ActiveTitle() string { return f.title }

type fakeCamera struct{ data []byte }

func (f fakeCamera) Frame(context.Context) ([]byte, error) { return f.data, nil }

func fixedNow() time.Time {
	return time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC)
}

func TestScreenshotName(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Counter-Strike 2", "screenshot_2025-03-09_14-05-07_Counter-Strike_2.png"},
		{`C:\Games\app.exe: "main"`, "screenshot_2025-03-09_14-05-07_CGamesapp.exe_main.png"},
		{"", "screenshot_2025-03-09_14-05-07_unknown.png"},
	}
	for _, tt := range tests {
		if got := ScreenshotName(fixedNow(), tt.title); got != tt.want {
			t.Errorf("ScreenshotName(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestPictureName(t *testing.T) {
	assert.Equal(t, "picture_2025-03-09_14-05-07.png", PictureName(fixedNow()))
}

func TestCapturer_Screenshot(t *testing.T) {
	dir := t.TempDir()
	c := New(dir, fakeScreen{title: "Dota 2"}, nil, nil)
	c.now = fixedNow

	path, err := c.Screenshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "screenshots", "screenshot_2025-03-09_14-05-07_Dota_2.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestCapturer_ScreenshotError(t *testing.T) {
	c := New(t.TempDir(), fakeScreen{err: errors.New("no display")}, nil, nil)
	_, err := c.Screenshot(context.Background())
	assert.Error(t, err)
}

func TestCapturer_Picture(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8)), nil))

	dir := t.TempDir()
	c := New(dir, nil, fakeCamera{data: buf.Bytes()}, nil)
	c.now = fixedNow

	path, err := c.Picture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "pictures", "picture_2025-03-09_14-05-07.png"), path)
	assert.FileExists(t, path)
}

func TestCapturer_PictureGarbage(t *testing.T) {
	c := New(t.TempDir(), nil, fakeCamera{data: []byte("not an image")}, nil)
	_, err := c.Picture(context.Background())
	assert.Error(t, err)
}

func TestCapturer_NoDevices(t *testing.T) {
	c := New(t.TempDir(), nil, nil, nil)
	_, err := c.Screenshot(context.Background())
	assert.Error(t, err)
	_, err = c.Picture(context.Background())
	assert.Error(t, err)
}

func TestFFmpegCamera_Args(t *testing.T) {
	args, err := FFmpegCamera{DeviceID: 2}.args("linux")
	require.NoError(t, err)
	assert.Contains(t, args, "/dev/video2")
	assert.Contains(t, args, "v4l2")

	args, err = FFmpegCamera{Device: "video=Integrated Webcam"}.args("windows")
	require.NoError(t, err)
	assert.Contains(t, args, "video=Integrated Webcam")

	_, err = FFmpegCamera{}.args("plan9")
	assert.Error(t, err)
}
