// Package trimsound собирает редактор обрезки: плеер, шкалу с выделением,
// синхронизацию позиции, огибающую волны и экспорт через ffmpeg.
//
// Session не потокобезопасна: все методы, кроме ExtractWaveform и RunExport,
// вызываются из одного цикла событий интерфейса.
package trimsound

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Roman77St/trimsound/export"
	"github.com/Roman77St/trimsound/play"
	"github.com/Roman77St/trimsound/syncer"
	"github.com/Roman77St/trimsound/timeline"
)

// Player — плеер, которым управляет сессия. *play.Player ему удовлетворяет.
type Player interface {
	syncer.Playback
	Open(ctx context.Context, path, device string) error
	Close() error
	Volume() float64
	SetVolume(v float64)
	OnStopped(fn func())
}

var _ Player = (*play.Player)(nil)

// SampleSource отдаёт огибающую амплитуды файла.
type SampleSource interface {
	Samples(ctx context.Context, path string, channel int) ([]float64, error)
}

// Publisher публикует готовый файл и возвращает его адрес.
type Publisher interface {
	Publish(ctx context.Context, path string) (string, error)
}

// FileOpenError — файл не удалось открыть на выбранном устройстве.
// Предыдущее состояние сессии при этом сохраняется.
type FileOpenError struct {
	Path string
	Err  error
}

func (e *FileOpenError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Path, e.Err)
}

func (e *FileOpenError) Unwrap() error {
	return e.Err
}

// Options передаёт сессии зависимости и настройки.
type Options struct {
	Transcoder      export.Transcoder
	Samples         SampleSource // nil: без волны
	Publisher       Publisher    // nil: публикация выключена
	WaveformChannel int
	Logger          *slog.Logger
}

// Session — одна открытая запись и её выделение.
type Session struct {
	player Player
	slider *timeline.Slider
	sync   *syncer.Synchronizer
	opts   Options
	log    *slog.Logger

	path   string
	device string
	wave   []float64 // огибающая в исходном разрешении
}

// NewSession создаёт сессию со шкалой 0..100 и без открытого файла.
func NewSession(p Player, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	// домен 0..100 заведомо корректен
	slider, _ := timeline.NewSlider(0, 100)
	return &Session{
		player: p,
		slider: slider,
		sync:   syncer.New(slider, p, syncer.WithLogger(log)),
		opts:   opts,
		log:    log,
	}
}

// Slider возвращает виджет шкалы для отрисовки и ввода.
func (s *Session) Slider() *timeline.Slider { return s.slider }

// Path возвращает путь открытого файла.
func (s *Session) Path() string { return s.path }

// Device возвращает устройство вывода открытого файла.
func (s *Session) Device() string { return s.device }

// Loaded сообщает, открыт ли файл.
func (s *Session) Loaded() bool { return s.path != "" }

// Open открывает файл и сбрасывает выделение на весь трек.
// Волна очищается; новую нужно получить через ExtractWaveform и SetWaveform.
func (s *Session) Open(ctx context.Context, path, device string) error {
	if device == "" {
		device = play.DefaultDevice
	}
	if err := s.player.Open(ctx, path, device); err != nil {
		s.log.Warn("file open failed", slog.String("path", path), slog.Any("error", err))
		return &FileOpenError{Path: path, Err: err}
	}

	s.slider.CancelDrag()
	s.path, s.device = path, device
	s.wave = nil
	s.slider.SetWaveform(nil)

	min, max := s.slider.Range()
	s.slider.SetSelection(min, max)
	s.slider.SetCursor(min)
	s.sync.Tick()

	s.log.Info("file opened", slog.String("path", path), slog.String("device", device),
		slog.Duration("length", s.player.Length()))
	return nil
}

// ExtractWaveform читает огибающую файла. Не трогает состояние сессии,
// поэтому может выполняться в фоне.
func (s *Session) ExtractWaveform(ctx context.Context, path string) ([]float64, error) {
	if s.opts.Samples == nil {
		return nil, nil
	}
	return s.opts.Samples.Samples(ctx, path, s.opts.WaveformChannel)
}

// SetWaveform устанавливает огибающую для path. Если за это время открыт другой файл,
// результат отбрасывается.
func (s *Session) SetWaveform(path string, samples []float64) bool {
	if path != s.path || s.path == "" {
		return false
	}
	s.wave = samples
	s.applyWaveform()
	return true
}

// Resize задаёт размер шкалы и пересчитывает волну под новую ширину.
func (s *Session) Resize(width, height float64) {
	s.slider.Resize(width, height)
	s.applyWaveform()
}

func (s *Session) applyWaveform() {
	if s.wave == nil {
		s.slider.SetWaveform(nil)
		return
	}
	width, _ := s.slider.Size()
	s.slider.SetWaveform(resampleTo(s.wave, int(width)))
}

// Close останавливает воспроизведение, сбрасывает перетаскивание, убирает волну и освобождает файл.
// Повторный вызов безопасен.
func (s *Session) Close() error {
	if err := s.sync.Stop(); err != nil {
		s.log.Debug("stop on close", slog.Any("error", err))
	}
	s.slider.CancelDrag()
	s.wave = nil
	s.slider.SetWaveform(nil)

	path := s.path
	s.path, s.device = "", ""
	if err := s.player.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if path != "" {
		s.log.Info("file closed", slog.String("path", path))
	}
	return nil
}

// Length возвращает длительность открытого файла.
func (s *Session) Length() time.Duration {
	if !s.Loaded() {
		return 0
	}
	return s.player.Length()
}
