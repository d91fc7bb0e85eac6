package audioconv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		ext  string
		want string
	}{
		{"riff", []byte("RIFF...."), "", "wav"},
		{"ogg", []byte("OggS"), "", "ogg"},
		{"id3", []byte("ID3\x04"), "", "mp3"},
		{"mpeg frame", []byte{0xFF, 0xFB, 0x90, 0x00}, "", "mp3"},
		{"by extension", []byte("????"), ".opus", "ogg"},
		{"unknown", []byte("????"), ".flac", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.head, tt.ext))
		})
	}
}

func TestDecode_Unsupported(t *testing.T) {
	_, err := Decode([]byte("fLaC-not-really"), Options{})
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestDecodeFile_WAV(t *testing.T) {
	// one second of stereo 48 kHz, left full scale, right silent
	const rate = 48000
	data := make([]int, rate*2)
	for i := 0; i < len(data); i += 2 {
		data[i] = 16384
	}

	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := wav.NewEncoder(f, rate, 16, 2, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	pcm, err := DecodeFile(path, Options{})
	require.NoError(t, err)
	assert.Len(t, pcm, TargetRate)
	assert.InDelta(t, 0.25, pcm[100], 1e-3)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	pcm, err = Decode(raw, Options{MaxSamples: 1000})
	require.NoError(t, err)
	assert.Len(t, pcm, 1000)
}

func TestDownmix(t *testing.T) {
	assert.Equal(t, []float32{0.5, 0}, downmix([]float32{1, 0, 0.5, -0.5}, 2))
	in := []float32{1, 2}
	assert.Equal(t, in, downmix(in, 1))
}

func TestResampleLinear(t *testing.T) {
	in := []float32{0, 1, 2, 3}
	assert.Equal(t, in, resampleLinear(in, 16000, 16000))
	assert.Equal(t, []float32{0, 0.5, 1, 1.5, 2, 2.5, 3, 3}, resampleLinear(in, 8000, 16000))
	assert.Len(t, resampleLinear(make([]float32, 48000), 48000, 16000), 16000)
	assert.Empty(t, resampleLinear(nil, 8000, 16000))
}

func TestSampleScaling(t *testing.T) {
	assert.Equal(t, []float32{0.5, -1}, int16sToFloat32([]int16{16384, -32768}))
	assert.Equal(t, []float32{1, -1}, intsToFloat32([]int{1 << 20, -(1 << 20)}, 16))
}
