package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrProbe возвращается, когда ffprobe не смог определить длительность.
var ErrProbe = errors.New("ffprobe failed")

// videoExts — контейнеры, из которых при экспорте извлекается только звук.
var videoExts = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".avi":  true,
	".webm": true,
	".m4v":  true,
	".wmv":  true,
	".flv":  true,
}

// IsVideo сообщает, является ли файл видеоконтейнером (по расширению).
func IsVideo(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

// CodecArgs выбирает стратегию: копирование дорожки без перекодирования
// или перекодирование звука 192k без видео для видеоконтейнеров.
func CodecArgs(input string) []string {
	if IsVideo(input) {
		return []string{"-b:a", "192k", "-vn"}
	}
	return []string{"-acodec", "copy"}
}

// DefaultOutputPath предлагает имя результата рядом с исходником: <name>_trim<ext>.
// Для видео расширение меняется на .mp3, так как сохраняется только звук.
func DefaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)
	if IsVideo(input) {
		ext = ".mp3"
	}
	return base + "_trim" + ext
}

// TrimArgs собирает аргументы ffmpeg для обрезки.
func TrimArgs(input, output string, start, duration float64) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", fmtSeconds(start),
		"-t", fmtSeconds(duration),
		"-i", input,
	}
	args = append(args, CodecArgs(input)...)
	return append(args, output)
}

// FFmpeg выполняет обрезку и чтение длительности через ffmpeg/ffprobe.
type FFmpeg struct {
	ffmpeg  string
	ffprobe string
	log     *slog.Logger
}

var _ Transcoder = (*FFmpeg)(nil)

// NewFFmpeg создаёт исполнителя. Пустые пути означают поиск в PATH.
func NewFFmpeg(ffmpegPath, ffprobePath string, log *slog.Logger) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if log == nil {
		log = slog.Default()
	}
	return &FFmpeg{ffmpeg: ffmpegPath, ffprobe: ffprobePath, log: log}
}

// Trim вырезает [start, start+duration) секунд из input в output.
// Ненулевой код выхода или любой вывод в stderr считаются ошибкой.
func (f *FFmpeg) Trim(ctx context.Context, input, output string, start, duration float64) error {
	args := TrimArgs(input, output, start, duration)
	f.log.Info("export started",
		slog.String("input", input),
		slog.String("output", output),
		slog.Float64("start", start),
		slog.Float64("duration", duration),
	)

	begin := time.Now()
	if err := f.run(ctx, args); err != nil {
		f.log.Error("export failed", slog.String("output", output), slog.Any("error", err))
		return err
	}
	f.log.Info("export finished", slog.String("output", output), slog.Duration("took", time.Since(begin)))
	return nil
}

// ProbeDuration возвращает длительность файла по данным ffprobe.
func (f *FFmpeg) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	// #nosec G204 - путь к ffprobe задаётся конфигурацией
	cmd := exec.CommandContext(ctx, f.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return 0, fmt.Errorf("%w: %w, stderr: %s", ErrProbe, err, strings.TrimSpace(stderr.String()))
	}

	s := strings.TrimSpace(stdout.String())
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	// #nosec G204 - путь к ffmpeg задаётся конфигурацией
	cmd := exec.CommandContext(ctx, f.ffmpeg, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
	}
	msg := strings.TrimSpace(stderr.String())
	if err != nil || msg != "" {
		return &TranscodeError{Args: args, Stderr: msg, Err: err}
	}
	return nil
}

// TranscodeError — ошибка ffmpeg вместе с его stderr.
// Err равен nil, если процесс завершился успешно, но что-то написал в stderr.
type TranscodeError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *TranscodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("ffmpeg reported: %s", e.Stderr)
	}
	if e.Stderr == "" {
		return fmt.Sprintf("ffmpeg error: %v", e.Err)
	}
	return fmt.Sprintf("ffmpeg error: %v: %s", e.Err, e.Stderr)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
