// Package waveform строит огибающую амплитуды файла для отображения на шкале.
package waveform

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/go-mp3"
	"github.com/youpy/go-wav"
)

// Window — длительность одного значения огибающей.
const Window = 10 * time.Millisecond

// С этой частотой ffmpeg отдаёт PCM для огибающей.
const pipeRate = 8000

// ErrChannel возвращается для номера канала вне {0, 1}.
var ErrChannel = errors.New("waveform: channel must be 0 or 1")

// Extractor читает файл и возвращает пиковую амплитуду каждого окна в диапазоне [0, 1].
type Extractor struct {
	ffmpeg string
	log    *slog.Logger
}

// NewExtractor создаёт извлекатель. Пустой ffmpegPath означает поиск в PATH.
func NewExtractor(ffmpegPath string, log *slog.Logger) *Extractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{ffmpeg: ffmpegPath, log: log}
}

// Samples возвращает огибающую канала channel: одно значение на Window.
// mp3 и PCM wav читаются напрямую, остальное (и URL) через ffmpeg.
func (e *Extractor) Samples(ctx context.Context, path string, channel int) ([]float64, error) {
	if channel < 0 || channel > 1 {
		return nil, fmt.Errorf("%w: %d", ErrChannel, channel)
	}

	var (
		out []float64
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		out, err = e.fromMP3(ctx, path, channel)
	case ".wav":
		out, err = e.fromWAV(ctx, path, channel)
	default:
		err = errors.ErrUnsupported
	}
	if err != nil && !isLocalFailure(err) {
		e.log.Debug("direct decoding failed, using ffmpeg", slog.String("path", path), slog.Any("error", err))
		out, err = e.fromFFmpeg(ctx, path, channel)
	}
	if err != nil {
		return nil, fmt.Errorf("waveform %s: %w", path, err)
	}

	e.log.Debug("waveform extracted", slog.String("path", path), slog.Int("points", len(out)))
	return out, nil
}

// isLocalFailure отделяет ошибки, которые ffmpeg не исправит.
func isLocalFailure(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (e *Extractor) fromMP3(ctx context.Context, path string, channel int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, err
	}
	// go-mp3 всегда отдаёт стерео int16
	env := newEnvelope(d.SampleRate())
	if err := readPCM16(ctx, d, channel, env); err != nil {
		return nil, err
	}
	return env.result(), nil
}

func (e *Extractor) fromWAV(ctx context.Context, path string, channel int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := wav.NewReader(f)
	format, err := r.Format()
	if err != nil {
		return nil, err
	}
	if format.AudioFormat != wav.AudioFormatPCM {
		return nil, fmt.Errorf("wav format %d: %w", format.AudioFormat, errors.ErrUnsupported)
	}
	ch := uint(channel)
	if format.NumChannels < 2 {
		ch = 0
	}

	env := newEnvelope(int(format.SampleRate))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		samples, err := r.ReadSamples(4096)
		for _, s := range samples {
			env.add(r.FloatValue(s, ch))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return env.result(), nil
}

func (e *Extractor) fromFFmpeg(ctx context.Context, path string, channel int) ([]float64, error) {
	// #nosec G204 - путь к ffmpeg задаётся конфигурацией
	cmd := exec.CommandContext(ctx, e.ffmpeg,
		"-v", "error",
		"-i", path,
		"-vn",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", "2",
		"-ar", fmt.Sprint(pipeRate),
		"-",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	env := newEnvelope(pipeRate)
	readErr := readPCM16(ctx, stdout, channel, env)
	if readErr != nil {
		// дочитываем, чтобы ffmpeg не завис на записи в трубу
		_, _ = io.Copy(io.Discard, stdout)
	}
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if readErr != nil {
		return nil, readErr
	}
	return env.result(), nil
}

// readPCM16 читает стерео int16 little-endian и кормит огибающую выбранным каналом.
func readPCM16(ctx context.Context, r io.Reader, channel int, env *envelope) error {
	buf := make([]byte, 16*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := io.ReadFull(r, buf)
		for i := 0; i+4 <= n; i += 4 {
			v := int16(binary.LittleEndian.Uint16(buf[i+2*channel:]))
			env.add(float64(v) / 32768)
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// envelope собирает пиковые значения по окнам фиксированной длины.
type envelope struct {
	window int
	n      int
	peak   float64
	out    []float64
}

func newEnvelope(sampleRate int) *envelope {
	w := int(int64(sampleRate) * int64(Window) / int64(time.Second))
	if w < 1 {
		w = 1
	}
	return &envelope{window: w}
}

func (e *envelope) add(v float64) {
	if v < 0 {
		v = -v
	}
	if v > e.peak {
		e.peak = v
	}
	e.n++
	if e.n == e.window {
		e.flush()
	}
}

func (e *envelope) flush() {
	if e.n == 0 {
		return
	}
	e.out = append(e.out, min(e.peak, 1))
	e.n, e.peak = 0, 0
}

func (e *envelope) result() []float64 {
	e.flush()
	return e.out
}
