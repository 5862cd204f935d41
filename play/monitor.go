package play

import (
	"context"
	"time"
)

// Как часто проверяется, не закончился ли трек.
const monitorInterval = 100 * time.Millisecond

// monitorPlayback следит за окончанием трека. Когда плеер дочитал поток до конца,
// состояние становится Stopped и вызывается обработчик OnStopped.
func (p *Player) monitorPlayback(ctx context.Context, t *track) {
	go func() {
		ticker := time.NewTicker(monitorInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			p.mu.Lock()
			if p.cur != t {
				p.mu.Unlock()
				return
			}
			ended := p.state == Playing && !t.out.IsPlaying()
			var notify func()
			if ended {
				p.state = Stopped
				notify = p.onStopped
			}
			p.mu.Unlock()

			if ended {
				p.log.Info("playback reached end of stream")
				if notify != nil {
					notify()
				}
			}
		}
	}()
}

// fadeIn постепенно поднимает громкость плеера до целевого значения
func fadeIn(player output, targetVolume float64) {
	step := 0.02
	for v := 0.0; v <= targetVolume; v += step {
		if player.Volume() > v+step {
			return
		}
		player.SetVolume(v)
		time.Sleep(30 * time.Millisecond)
	}
	player.SetVolume(targetVolume)
}

// fadeOut постепенно снижает громкость плеера до нуля
func fadeOut(player output) {
	currentVol := player.Volume()
	if currentVol <= 0 {
		return
	}

	// Шаг рассчитан так, чтобы всегда было 20 итераций.
	step := currentVol / 20.0

	for i := 0; i < 20; i++ {
		currentVol -= step
		if currentVol < 0 {
			currentVol = 0
		}
		player.SetVolume(currentVol)
		time.Sleep(50 * time.Millisecond)

		if currentVol <= 0 {
			break
		}
	}
	player.SetVolume(0)
}
