package capture

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// FFmpegCamera grabs a single JPEG frame from a webcam through ffmpeg.
type FFmpegCamera struct {
	DeviceID int
	// Device overrides the platform's default input name.
	Device string
}

func (c FFmpegCamera) args(goos string) ([]string, error) {
	var format, device string
	switch goos {
	case "darwin":
		format, device = "avfoundation", fmt.Sprintf("%d", c.DeviceID)
	case "linux":
		format, device = "v4l2", fmt.Sprintf("/dev/video%d", c.DeviceID)
	case "windows":
		format, device = "dshow", "video=USB Camera"
	default:
		return nil, fmt.Errorf("unsupported operating system: %s", goos)
	}
	if c.Device != "" {
		device = c.Device
	}

	return []string{
		"-loglevel", "error",
		"-f", format,
		"-video_size", "640x480",
		"-i", device,
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "2",
		"-",
	}, nil
}

func (c FFmpegCamera) Frame(ctx context.Context) ([]byte, error) {
	args, err := c.args(runtime.GOOS)
	if err != nil {
		return nil, err
	}

	out, err := exec.CommandContext(ctx, "ffmpeg", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to capture image: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no image data captured")
	}
	return out, nil
}
