package waveform

import (
	"context"
	"encoding/binary"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStereoWAV пишет PCM 16 бит стерео с постоянными значениями каналов.
func writeStereoWAV(t *testing.T, name string, sampleRate, frames int, left, right int16) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	dataSize := uint32(frames * 4)
	le := binary.LittleEndian
	f.Write([]byte("RIFF"))
	binary.Write(f, le, 36+dataSize)
	f.Write([]byte("WAVEfmt "))
	binary.Write(f, le, uint32(16))
	binary.Write(f, le, uint16(1))
	binary.Write(f, le, uint16(2))
	binary.Write(f, le, uint32(sampleRate))
	binary.Write(f, le, uint32(sampleRate*4))
	binary.Write(f, le, uint16(4))
	binary.Write(f, le, uint16(16))
	f.Write([]byte("data"))
	binary.Write(f, le, dataSize)
	for i := 0; i < frames; i++ {
		binary.Write(f, le, left)
		binary.Write(f, le, right)
	}
	return path
}

func TestSamples_WAV(t *testing.T) {
	path := writeStereoWAV(t, "tone.wav", 1000, 1000, 16384, -8192)
	e := NewExtractor("", nil)

	left, err := e.Samples(context.Background(), path, 0)
	require.NoError(t, err)
	require.Len(t, left, 100)
	for _, v := range left {
		assert.InDelta(t, 0.5, v, 1e-9)
	}

	right, err := e.Samples(context.Background(), path, 1)
	require.NoError(t, err)
	require.Len(t, right, 100)
	assert.InDelta(t, 0.25, right[0], 1e-9)
}

func TestSamples_PartialWindow(t *testing.T) {
	// 1005 кадров: последнее окно неполное, но учитывается
	path := writeStereoWAV(t, "tail.wav", 1000, 1005, 100, 100)
	got, err := NewExtractor("", nil).Samples(context.Background(), path, 0)
	require.NoError(t, err)
	assert.Len(t, got, 101)
}

func TestSamples_BadChannel(t *testing.T) {
	_, err := NewExtractor("", nil).Samples(context.Background(), "x.wav", 2)
	assert.ErrorIs(t, err, ErrChannel)
}

func TestSamples_MissingFile(t *testing.T) {
	e := NewExtractor(filepath.Join(t.TempDir(), "no-ffmpeg"), nil)
	_, err := e.Samples(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), 0)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSamples_UnknownFormatWithoutFFmpeg(t *testing.T) {
	src := filepath.Join(t.TempDir(), "clip.ogg")
	require.NoError(t, os.WriteFile(src, []byte("not audio"), 0o600))

	e := NewExtractor(filepath.Join(t.TempDir(), "no-ffmpeg"), nil)
	_, err := e.Samples(context.Background(), src, 0)
	assert.Error(t, err)
}

func TestSamples_Cancelled(t *testing.T) {
	path := writeStereoWAV(t, "tone.wav", 1000, 1000, 1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExtractor("", nil).Samples(ctx, path, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSamples_FFmpeg(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH, skipping test")
	}
	src := filepath.Join(t.TempDir(), "tone.flac")
	cmd := exec.Command("ffmpeg", "-y", "-f", "lavfi", "-i", "sine=frequency=440:duration=1", src)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to create test audio: %v\noutput: %s", err, out)
	}

	got, err := NewExtractor("", nil).Samples(context.Background(), src, 0)
	require.NoError(t, err)
	assert.InDelta(t, 100, len(got), 2)
	for _, v := range got {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestResample(t *testing.T) {
	tests := []struct {
		name    string
		src     []float64
		buckets int
		want    []float64
	}{
		{"empty", nil, 4, nil},
		{"no buckets", []float64{1, 2}, 0, nil},
		{"same size", []float64{0.1, 0.2}, 2, []float64{0.1, 0.2}},
		{"stretch", []float64{0.1, 0.2}, 5, []float64{0.1, 0.1, 0.1, 0.2, 0.2}},
		{"stretch single", []float64{0.7}, 3, []float64{0.7, 0.7, 0.7}},
		{"pairs", []float64{0, 1, 0.5, 0.5, 1, 1}, 3, []float64{0.5, 0.5, 1}},
		{"uneven", []float64{1, 1, 1, 0, 0}, 2, []float64{1, 1.0 / 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resample(tt.src, tt.buckets)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-9)
			}
		})
	}
}

func TestResample_Copies(t *testing.T) {
	src := []float64{0.3, 0.4}
	got := Resample(src, 2)
	got[0] = 1
	assert.Equal(t, 0.3, src[0])

	got = Resample(src, 10)
	require.Len(t, got, 10)
	got[0] = 1
	assert.Equal(t, 0.3, src[0])
}
