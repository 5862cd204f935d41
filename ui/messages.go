package ui

import (
	"time"

	"github.com/Roman77St/trimsound/export"
)

type tickMsg time.Time

// playbackStoppedMsg пересылает окончание трека из горутины плеера в цикл событий.
type playbackStoppedMsg struct{}

// waveformMsg — результат фонового чтения огибающей.
type waveformMsg struct {
	path    string
	samples []float64
	err     error
}

// exportDoneMsg — результат фонового экспорта.
type exportDoneMsg struct {
	plan export.Plan
	url  string
	err  error
}
