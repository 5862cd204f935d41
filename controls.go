package trimsound

import (
	"math"

	"github.com/Roman77St/trimsound/play"
	"github.com/Roman77St/trimsound/syncer"
)

// Play запускает воспроизведение: из остановки и после паузы на границе выделения
// с начала выделения, из обычной паузы с текущего места.
func (s *Session) Play() error {
	return s.sync.Play()
}

// Pause ставит воспроизведение на паузу.
func (s *Session) Pause() error {
	return s.sync.Pause()
}

// TogglePause переключает воспроизведение и паузу.
func (s *Session) TogglePause() error {
	if s.player.State() == play.Playing {
		return s.Pause()
	}
	return s.Play()
}

// Stop останавливает воспроизведение и сбрасывает перетаскивание.
// Файл остаётся открытым вместе с волной и выделением; волну убирает только Close.
func (s *Session) Stop() error {
	return s.sync.Stop()
}

// Tick выполняет один шаг синхронизации шкалы с плеером.
// Без открытого файла возвращает пустой статус.
func (s *Session) Tick() syncer.Status {
	if !s.Loaded() {
		return syncer.Status{}
	}
	return s.sync.Tick()
}

// Status возвращает статус последнего тика.
func (s *Session) Status() syncer.Status {
	return s.sync.Status()
}

// OnPlaybackStopped регистрирует fn для естественного окончания трека.
// fn вызывается из горутины плеера и должна только переслать сообщение в цикл событий,
// который затем вызовет HandlePlaybackStopped.
func (s *Session) OnPlaybackStopped(fn func()) {
	s.player.OnStopped(fn)
}

// HandlePlaybackStopped применяет окончание трека к состоянию шкалы.
func (s *Session) HandlePlaybackStopped() {
	s.sync.PlaybackStopped()
	s.log.Debug("playback stopped")
}

// Volume возвращает громкость в процентах 0..100.
func (s *Session) Volume() int {
	return int(math.Round(s.player.Volume() * 100))
}

// SetVolume задаёт громкость в процентах, значение поджимается к 0..100.
func (s *Session) SetVolume(percent int) {
	percent = max(0, min(100, percent))
	s.player.SetVolume(float64(percent) / 100)
}
