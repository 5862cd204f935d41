package play

import (
	"io"
	"log/slog"
	"time"
)

// Play запускает или возобновляет воспроизведение с текущей позиции.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.cur
	if t == nil {
		return ErrNoTrack
	}
	if p.state == Playing {
		return nil
	}

	// Подготовка громкости перед запуском
	if p.opts.Fade {
		t.out.SetVolume(0)
	} else {
		t.out.SetVolume(p.volume)
	}

	t.out.Play()
	p.log.Debug("playback started", slog.String("from", p.state.String()))
	p.state = Playing

	if p.opts.Fade {
		go fadeIn(t.out, p.volume)
	}
	return nil
}

// Pause приостанавливает воспроизведение. Вне состояния Playing ничего не делает.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.cur
	if t == nil {
		return ErrNoTrack
	}
	if p.state != Playing {
		return nil
	}
	p.state = Paused

	if !p.opts.Fade {
		t.out.Pause()
		return nil
	}

	// затухание идёт в фоне, чтобы не блокировать цикл событий
	go func() {
		fadeOut(t.out)
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.cur == t && p.state != Playing {
			t.out.Pause()
		}
		t.out.SetVolume(p.volume)
	}()
	return nil
}

// PauseNow приостанавливает воспроизведение сразу, без затухания, даже при Fade.
// Прерывает и начатое затухание. Из Stopped ничего не делает.
func (p *Player) PauseNow() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.cur
	if t == nil {
		return ErrNoTrack
	}
	if p.state == Stopped {
		return nil
	}
	p.state = Paused
	t.out.Pause()
	t.out.SetVolume(p.volume)
	return nil
}

// Stop останавливает воспроизведение и возвращает трек в начало.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.cur
	if t == nil {
		return ErrNoTrack
	}
	if p.state == Stopped {
		return nil
	}
	t.out.Pause()
	p.state = Stopped
	_, err := t.out.Seek(0, io.SeekStart)
	return err
}

// Position возвращает реально проигранную позицию: прочитанное плеером минус его буфер.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.cur
	if t == nil {
		return 0
	}
	played := t.tracker.CurrentPos() - int64(t.out.BufferedSize())
	if played < 0 {
		played = 0
	}
	return bytesToDuration(played, t.sampleRate)
}

// SetPosition перематывает трек. Позиция поджимается к [0, Length].
func (p *Player) SetPosition(d time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.cur
	if t == nil {
		return ErrNoTrack
	}
	offset := durationToBytes(d, t.sampleRate)
	if offset > t.totalBytes {
		offset = t.totalBytes - t.totalBytes%bytesPerFrame
	}
	_, err := t.out.Seek(offset, io.SeekStart)
	return err
}

// Volume возвращает громкость 0..1.
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// SetVolume динамически меняет громкость. Значение поджимается к [0, 1].
func (p *Player) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.volume = clampVolume(volume)
	if p.cur != nil {
		p.cur.out.SetVolume(p.volume)
	}
}
