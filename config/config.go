// Package config загружает настройки из переменных окружения и файла .env.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/Roman77St/trimsound/export"
	"github.com/Roman77St/trimsound/play"
)

var (
	// ErrTickInterval возвращается для неположительного TICK_INTERVAL.
	ErrTickInterval = errors.New("config: TICK_INTERVAL must be positive")
	// ErrSampleRate возвращается для SAMPLE_RATE вне 8000..192000.
	ErrSampleRate = errors.New("config: SAMPLE_RATE must be within 8000..192000")
	// ErrWaveformChannel возвращается для WAVEFORM_CHANNEL вне {0, 1}.
	ErrWaveformChannel = errors.New("config: WAVEFORM_CHANNEL must be 0 or 1")
	// ErrS3Incomplete возвращается, когда задан только один из S3_BUCKET и S3_REGION.
	ErrS3Incomplete = errors.New("config: S3_BUCKET and S3_REGION must be set together")
)

// Config содержит все настройки приложения.
type Config struct {
	// Внешние программы
	FFmpegPath  string `env:"FFMPEG_PATH, default=ffmpeg"`
	FFprobePath string `env:"FFPROBE_PATH, default=ffprobe"`

	// Воспроизведение
	TickInterval    time.Duration `env:"TICK_INTERVAL, default=250ms"`
	SampleRate      int           `env:"SAMPLE_RATE, default=44100"`
	OutputDevice    string        `env:"OUTPUT_DEVICE, default=default"`
	WaveformChannel int           `env:"WAVEFORM_CHANNEL, default=0"`
	Fade            bool          `env:"FADE, default=false"`

	// Публикация результата, необязательно
	S3Bucket           string `env:"S3_BUCKET"`
	S3Region           string `env:"S3_REGION"`
	S3Endpoint         string `env:"S3_ENDPOINT"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`

	// Логирование. Экран занят интерфейсом, поэтому по умолчанию лог пишется в файл;
	// "-" означает stderr.
	LogFormat string `env:"LOG_FORMAT, default=text"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogFile   string `env:"LOG_FILE, default=trimsound.log"`
}

// Load читает .env (если он есть), затем окружение, и проверяет результат.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет диапазоны значений.
func (c *Config) Validate() error {
	if c.TickInterval <= 0 {
		return ErrTickInterval
	}
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return fmt.Errorf("%w: got %d", ErrSampleRate, c.SampleRate)
	}
	if c.WaveformChannel != 0 && c.WaveformChannel != 1 {
		return fmt.Errorf("%w: got %d", ErrWaveformChannel, c.WaveformChannel)
	}
	if (c.S3Bucket == "") != (c.S3Region == "") {
		return ErrS3Incomplete
	}
	return nil
}

// S3Enabled сообщает, настроена ли публикация в S3.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// S3 возвращает параметры публикации.
func (c *Config) S3() export.S3Config {
	return export.S3Config{
		Bucket:          c.S3Bucket,
		Region:          c.S3Region,
		Endpoint:        c.S3Endpoint,
		AccessKeyID:     c.AWSAccessKeyID,
		SecretAccessKey: c.AWSSecretAccessKey,
	}
}

// PlayerOptions возвращает настройки плеера.
func (c *Config) PlayerOptions(log *slog.Logger) play.Options {
	return play.Options{
		SampleRate: c.SampleRate,
		FFmpegPath: c.FFmpegPath,
		Fade:       c.Fade,
		Logger:     log,
	}
}

// NewLogger создаёт структурированный логгер. Возвращаемую функцию нужно вызвать
// при завершении, чтобы закрыть файл лога.
func (c *Config) NewLogger() (*slog.Logger, func() error, error) {
	var (
		w       io.Writer = os.Stderr
		closeFn           = func() error { return nil }
	)
	if c.LogFile != "" && c.LogFile != "-" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closeFn = f, f.Close
	}

	opts := &slog.HandlerOptions{Level: parseLogLevel(c.LogLevel)}
	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), closeFn, nil
}

// String возвращает настройки без секретов.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{FFmpegPath: %s, TickInterval: %s, SampleRate: %d, OutputDevice: %s, WaveformChannel: %d, Fade: %t, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s, LogFile: %s}",
		c.FFmpegPath,
		c.TickInterval,
		c.SampleRate,
		c.OutputDevice,
		c.WaveformChannel,
		c.Fade,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
		c.LogFile,
	)
}

// parseLogLevel переводит строку уровня в slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
