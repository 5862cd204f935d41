package trimsound

import (
	"fmt"
	"time"

	"github.com/Roman77St/trimsound/syncer"
	"github.com/Roman77St/trimsound/waveform"
)

// FormatClock форматирует время как mm:ss. Часы переходят в минуты.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}

// StatusLine — строка позиции для интерфейса: "01:05 / 03:20  [00:30 - 01:45]".
func StatusLine(st syncer.Status) string {
	return fmt.Sprintf("%s / %s  [%s - %s]",
		FormatClock(st.Position), FormatClock(st.Length),
		FormatClock(st.Low), FormatClock(st.High))
}

// resampleTo подгоняет огибающую под ширину шкалы в пикселях.
// Пока ширина неизвестна, огибающая остаётся как есть.
func resampleTo(samples []float64, width int) []float64 {
	if width <= 0 {
		return samples
	}
	return waveform.Resample(samples, width)
}
