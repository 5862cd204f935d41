package play

import "time"

const (
	channelCount  = 2
	bytesPerFrame = channelCount * 2 // 2 канала по 2 байта на семпл (int16)

	defaultSampleRate = 44100
)

// durationToBytes рассчитывает смещение в байтах, выровненное по границе кадра.
// Формула: секунды * частота дискретизации * 4.
func durationToBytes(d time.Duration, sampleRate int) int64 {
	if d <= 0 || sampleRate <= 0 {
		return 0
	}
	frames := int64(d) * int64(sampleRate) / int64(time.Second)
	return frames * bytesPerFrame
}

// bytesToDuration переводит объем данных в байтах во время.
func bytesToDuration(b int64, sampleRate int) time.Duration {
	if sampleRate <= 0 || b <= 0 {
		return 0
	}
	frames := b / bytesPerFrame
	return time.Duration(frames * int64(time.Second) / int64(sampleRate))
}

// clampVolume поджимает громкость к [0, 1].
func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// validateOptions проверяет и корректирует настройки плеера.
func validateOptions(o Options) Options {
	if o.SampleRate <= 0 {
		o.SampleRate = defaultSampleRate
	}
	// Если громкость не указана, ставим 1.0 (100%)
	if o.Volume <= 0 || o.Volume > 1 {
		o.Volume = 1.0
	}
	return o
}
