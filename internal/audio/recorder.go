package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	SampleRate = 16000
	frameSize  = 320 // 20ms
	frameDur   = 20 * time.Millisecond
)

var ErrNoSpeech = errors.New("no speech recorded")

// VAD holds the energy-based endpointing thresholds.
type VAD struct {
	Threshold float64       // frame RMS above this counts as speech
	Silence   time.Duration // trailing silence that ends an utterance
	MaxLength time.Duration
}

func DefaultVAD() VAD {
	return VAD{Threshold: 0.015, Silence: 600 * time.Millisecond, MaxLength: 10 * time.Second}
}

// endpointer decides frame by frame what to keep and when the utterance
// is over.
type endpointer struct {
	vad      VAD
	speaking bool
	silent   time.Duration
}

// feed reports whether the frame belongs to the utterance and whether the
// utterance just ended.
func (e *endpointer) feed(frame []float32) (keep, done bool) {
	if frameRMS(frame) > e.vad.Threshold {
		e.speaking = true
		e.silent = 0
		return true, false
	}
	if !e.speaking {
		return false, false
	}
	e.silent += frameDur
	if e.silent >= e.vad.Silence {
		return false, true
	}
	return true, false
}

type Recorder struct {
	vad VAD
}

func NewRecorder(vad VAD) *Recorder {
	if vad.Threshold <= 0 {
		vad.Threshold = DefaultVAD().Threshold
	}
	if vad.Silence <= 0 {
		vad.Silence = DefaultVAD().Silence
	}
	if vad.MaxLength <= 0 {
		vad.MaxLength = DefaultVAD().MaxLength
	}
	return &Recorder{vad: vad}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// RecordAuto records from the default input until the speaker goes quiet,
// MaxLength passes or ctx is done.
func (r *Recorder) RecordAuto(ctx context.Context) ([]float32, error) {
	buf := make([]float32, frameSize)
	out := make([]float32, 0, SampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start input stream: %w", err)
	}
	defer stream.Stop()

	ep := endpointer{vad: r.vad}
	maxFrames := int(r.vad.MaxLength / frameDur)

	for i := 0; i < maxFrames; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("read input stream: %w", err)
		}

		keep, done := ep.feed(buf)
		if keep {
			out = append(out, buf...)
		}
		if done {
			break
		}
	}

	if len(out) == 0 {
		return nil, ErrNoSpeech
	}
	return out, nil
}

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
