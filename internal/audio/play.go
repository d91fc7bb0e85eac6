package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

// OutputRate is the rate the speaker is opened at; every stream is
// resampled to it.
const OutputRate beep.SampleRate = 44100

var (
	speakerOnce sync.Once
	speakerErr  error
	// playback is serialized so clips never overlap
	playMu sync.Mutex
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(OutputRate, OutputRate.N(time.Second/10))
	})
	return speakerErr
}

// PlayMP3 decodes and plays r until it ends or ctx is done. r is closed.
func PlayMP3(ctx context.Context, r io.ReadCloser) error {
	streamer, format, err := mp3.Decode(r)
	if err != nil {
		r.Close()
		return fmt.Errorf("decode mp3: %w", err)
	}
	defer streamer.Close()

	if err := initSpeaker(); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}

	playMu.Lock()
	defer playMu.Unlock()

	var src beep.Streamer = streamer
	if format.SampleRate != OutputRate {
		src = beep.Resample(4, format.SampleRate, OutputRate, streamer)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(src, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}
