// Package syncer связывает виджет временной шкалы с воспроизведением:
// по таймеру переносит позицию трека в курсор, останавливает трек на границе
// выделения и перематывает трек, когда пользователь двигает курсор или начало выделения.
package syncer

import (
	"log/slog"
	"time"

	"github.com/Roman77St/trimsound/play"
	"github.com/Roman77St/trimsound/timeline"
)

// EndThreshold — процент длины, начиная с которого трек считается доигранным.
const EndThreshold = 99.0

// Playback — то, что синхронизатору нужно от плеера. *play.Player ему удовлетворяет.
type Playback interface {
	Position() time.Duration
	SetPosition(d time.Duration) error
	Length() time.Duration
	State() play.State
	Play() error
	Pause() error
	Stop() error
}

var _ Playback = (*play.Player)(nil)

// immediatePauser — плеер с плавной паузой, который умеет и мгновенную.
type immediatePauser interface {
	PauseNow() error
}

var _ immediatePauser = (*play.Player)(nil)

// Status содержит снимок для отображения после очередного тика.
type Status struct {
	Position time.Duration
	Length   time.Duration
	Low      time.Duration // начало выделения во времени
	High     time.Duration // конец выделения во времени
	Cursor   float64       // курсор в процентах
	State    play.State
}

// Synchronizer не хранит ничего, кроме последней позиции и признака паузы на границе.
// Все методы должны вызываться из того же цикла событий, что и методы виджета.
type Synchronizer struct {
	slider *timeline.Slider
	pb     Playback
	log    *slog.Logger

	lastPos  time.Duration
	boundary bool
	status   Status
}

// Option настраивает Synchronizer.
type Option func(*Synchronizer)

// WithLogger задаёт логгер.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) { s.log = l }
}

// New подписывается на уведомления виджета.
func New(slider *timeline.Slider, pb Playback, opts ...Option) *Synchronizer {
	s := &Synchronizer{slider: slider, pb: pb, log: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	slider.Subscribe(s.handle)
	return s
}

// Status возвращает результат последнего тика.
func (s *Synchronizer) Status() Status { return s.status }

// LastPosition возвращает позицию, прочитанную на последнем тике.
func (s *Synchronizer) LastPosition() time.Duration { return s.lastPos }

// Tick выполняет один шаг синхронизации.
func (s *Synchronizer) Tick() Status {
	s.tick()
	s.status.Cursor = s.cursor()
	return s.status
}

func (s *Synchronizer) tick() {
	pos, length := s.pb.Position(), s.pb.Length()
	// в конце потока позиция может ненадолго обогнать длину; это влияет только на отображение
	shown := max(length, pos)
	state := s.pb.State()
	low, high := s.selection()

	s.lastPos = pos
	s.status = Status{
		Position: pos,
		Length:   shown,
		Low:      at(shown, low),
		High:     at(shown, high),
		State:    state,
	}
	if state == play.Stopped || length <= 0 || pos <= 0 {
		return
	}
	pct := min(float64(pos)/float64(length)*100, 100)

	if state != play.Playing {
		s.tickPaused(pct, length, low, high)
		return
	}

	if !s.slider.Dragging() {
		s.setCursor(pct)
	}
	if pct >= high {
		s.pauseAt(high, length, "selection end")
		pct = high
	}
	if pct >= EndThreshold {
		s.pauseAt(low, length, "end of track")
	}
	s.status.State = s.pb.State()
}

// tickPaused держит курсор в пределах выделения, пока трек стоит на паузе.
// После паузы на границе курсор уже на месте и от позиции плеера не зависит.
func (s *Synchronizer) tickPaused(pct float64, length time.Duration, low, high float64) {
	if s.boundary || s.slider.Dragging() {
		return
	}
	s.setCursor(pct)
	if pct > high {
		s.pauseAt(high, length, "cursor past selection end")
		pct = high
	}
	if pct >= EndThreshold && pct > low {
		s.pauseAt(low, length, "cursor at end of track")
	}
}

// Play запускает воспроизведение. Из Stopped и после паузы на границе
// трек сначала перематывается к началу выделения, из обычной паузы продолжает с места.
func (s *Synchronizer) Play() error {
	switch s.pb.State() {
	case play.Playing:
		return nil
	case play.Stopped:
		s.seekToLow()
	case play.Paused:
		if s.boundary {
			s.seekToLow()
		}
	}
	s.boundary = false
	return s.pb.Play()
}

// Pause ставит трек на паузу. Вне Playing ничего не делает.
func (s *Synchronizer) Pause() error {
	if s.pb.State() != play.Playing {
		return nil
	}
	return s.pb.Pause()
}

// Stop останавливает трек и сбрасывает перетаскивание. Повторный вызов безопасен.
// Волну Stop не трогает: она принадлежит открытому файлу и убирается при его закрытии.
func (s *Synchronizer) Stop() error {
	s.slider.CancelDrag()
	s.boundary = false
	if s.pb.State() == play.Stopped {
		return nil
	}
	return s.pb.Stop()
}

// PlaybackStopped обрабатывает естественное окончание трека.
// Вызывать только из цикла событий, куда уведомление плеера доставлено сообщением.
func (s *Synchronizer) PlaybackStopped() {
	s.slider.CancelDrag()
	s.boundary = false
	s.status.State = s.pb.State()
}

func (s *Synchronizer) handle(e timeline.Event) {
	switch e := e.(type) {
	case timeline.SelectionChanged:
		if e.Direction == timeline.DirectionLow {
			s.seek(s.percent(e.Low), "selection start moved")
		}
	case timeline.CursorChanged:
		if e.ByUser {
			s.seek(s.percent(e.Value), "cursor dragged")
		}
	}
}

func (s *Synchronizer) pauseAt(pct float64, length time.Duration, reason string) {
	if err := s.pauseNow(); err != nil {
		s.log.Warn("pause at boundary", slog.Any("error", err))
	}
	// позиция плеера совпадает с курсором, иначе следующий тик вернёт курсор назад
	if err := s.pb.SetPosition(at(length, pct)); err != nil {
		s.log.Warn("seek at boundary", slog.Any("error", err))
	}
	s.setCursor(pct)
	s.boundary = true
	s.log.Info("playback paused", slog.String("reason", reason), slog.Float64("cursor", pct))
}

// pauseNow останавливает звук сразу, без затухания, если плеер это умеет:
// на границе выделения звук не должен уходить за конец.
func (s *Synchronizer) pauseNow() error {
	if p, ok := s.pb.(immediatePauser); ok {
		return p.PauseNow()
	}
	return s.pb.Pause()
}

func (s *Synchronizer) seekToLow() {
	low, _ := s.selection()
	s.seek(low, "play from selection start")
	s.setCursor(low)
}

func (s *Synchronizer) seek(pct float64, reason string) {
	length := s.pb.Length()
	if length <= 0 {
		return
	}
	s.boundary = false
	pos := at(length, pct)
	if err := s.pb.SetPosition(pos); err != nil {
		s.log.Warn("seek", slog.String("reason", reason), slog.Any("error", err))
		return
	}
	s.log.Debug("seek", slog.String("reason", reason), slog.Duration("position", pos))
}

func (s *Synchronizer) setCursor(pct float64) {
	min, max := s.slider.Range()
	s.slider.SetCursor(min + pct*(max-min)/100)
}

func (s *Synchronizer) cursor() float64 {
	return s.percent(s.slider.Cursor())
}

func (s *Synchronizer) selection() (low, high float64) {
	l, h := s.slider.Selection()
	return s.percent(l), s.percent(h)
}

func (s *Synchronizer) percent(v float64) float64 {
	min, max := s.slider.Range()
	return timeline.Percent(v, min, max)
}

// at переводит процент длины во время. Неположительный процент означает начало трека.
func at(length time.Duration, pct float64) time.Duration {
	if pct <= 0 {
		return 0
	}
	return time.Duration(float64(length) * pct / 100)
}
