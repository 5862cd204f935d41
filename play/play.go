// Package play — сеанс воспроизведения одного файла поверх oto:
// открытие, пауза, остановка, перемотка, громкость и уведомление об окончании трека.
package play

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrNoTrack возвращается, когда файл ещё не открыт.
	ErrNoTrack = errors.New("play: no track loaded")
	// ErrUnsupportedDevice возвращается для устройства вывода, которого нет в Devices().
	ErrUnsupportedDevice = errors.New("play: unsupported output device")
	// ErrUnsupportedFormat возвращается, когда файл не удалось декодировать.
	ErrUnsupportedFormat = errors.New("play: unsupported format")
)

// DefaultDevice — системное устройство вывода. oto умеет работать только с ним.
const DefaultDevice = "default"

// Devices перечисляет доступные устройства вывода.
func Devices() []string {
	return []string{DefaultDevice}
}

// State — состояние воспроизведения.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// Options содержит настройки плеера.
type Options struct {
	SampleRate int     // Частота движка oto, по умолчанию 44100
	FFmpegPath string  // ffmpeg для форматов, которые не декодируются напрямую; пусто: без конвертации
	Fade       bool    // Плавное затухание при паузе и нарастание при старте
	Volume     float64 // Начальная громкость 0..1
	Logger     *slog.Logger
}

// track — открытый файл и всё, что нужно для управления его потоком.
type track struct {
	path       string
	out        output
	tracker    *trackingStream
	closer     io.Closer
	sampleRate int
	totalBytes int64
	cancel     context.CancelFunc // останавливает горутину мониторинга
}

// Player управляет воспроизведением одного трека. Безопасен для вызова из разных горутин,
// но уведомление OnStopped приходит из горутины мониторинга.
type Player struct {
	mu        sync.Mutex
	opts      Options
	log       *slog.Logger
	cur       *track
	state     State
	volume    float64
	onStopped func()
}

// New создаёт плеер без открытого файла.
func New(opts Options) *Player {
	opts = validateOptions(opts)
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Player{opts: opts, log: log, volume: opts.Volume}
}

// OnStopped задаёт обработчик естественного окончания трека.
// Вызывается из горутины мониторинга, а не из вызывающей.
func (p *Player) OnStopped(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onStopped = fn
}

// Open открывает файл (или URL) на устройстве device.
// При ошибке ранее открытый трек остаётся нетронутым.
func (p *Player) Open(ctx context.Context, path, device string) error {
	if device != "" && device != DefaultDevice {
		return fmt.Errorf("%w: %q", ErrUnsupportedDevice, device)
	}

	rate := p.opts.SampleRate
	if err := startEngine(rate); err != nil {
		return fmt.Errorf("init audio engine: %w", err)
	}
	if engineRate != 0 {
		rate = engineRate
	}

	// Шаг 1: Получаем доступ к данным (файл или сеть).
	rs, closer, err := getReadSeeker(path)
	if err != nil {
		return err
	}

	// Шаг 2: Подбираем декодер, при необходимости конвертируем через ffmpeg.
	stream, err := getDecoder(rs, path, rate)
	if errors.Is(err, errNeedsConversion) {
		var convCloser io.Closer
		stream, convCloser, err = convertToPCM(ctx, p.opts.FFmpegPath, localPath(rs, path), rate)
		closer.Close()
		closer = convCloser
	}
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return err
	}

	// Шаг 3: Создаем плеер.
	tracker := &trackingStream{decodedStream: stream}
	t := &track{
		path:       path,
		out:        newOutput(tracker),
		tracker:    tracker,
		closer:     closer,
		sampleRate: stream.SampleRate(),
		totalBytes: stream.Length(),
	}

	p.mu.Lock()
	old := p.cur
	p.cur = t
	p.state = Stopped
	t.out.SetVolume(p.volume)
	monitorCtx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	p.mu.Unlock()

	if old != nil {
		old.release()
	}

	p.log.Info("track opened",
		slog.String("path", path),
		slog.Duration("length", bytesToDuration(t.totalBytes, t.sampleRate)),
		slog.Int("sample_rate", t.sampleRate),
	)

	// Шаг 4: Запускаем фоновый мониторинг окончания трека.
	p.monitorPlayback(monitorCtx, t)
	return nil
}

// localPath возвращает путь, который можно отдать ffmpeg: для скачанного URL это временный файл.
func localPath(rs readSeekerAt, path string) string {
	if named, ok := rs.(interface{ Name() string }); ok && isURL(path) {
		return named.Name()
	}
	return path
}

// Close останавливает воспроизведение и освобождает файл. Повторный вызов безопасен.
func (p *Player) Close() error {
	p.mu.Lock()
	t := p.cur
	p.cur = nil
	p.state = Stopped
	p.mu.Unlock()

	if t == nil {
		return nil
	}
	return t.release()
}

func (t *track) release() error {
	t.cancel()
	t.out.Pause()
	err := t.out.Close()
	if cerr := t.closer.Close(); err == nil {
		err = cerr
	}
	return err
}

// Path возвращает путь открытого файла или пустую строку.
func (p *Player) Path() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cur == nil {
		return ""
	}
	return p.cur.path
}

// State возвращает текущее состояние воспроизведения.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Length возвращает длительность открытого трека.
func (p *Player) Length() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cur == nil {
		return 0
	}
	return bytesToDuration(p.cur.totalBytes, p.cur.sampleRate)
}
