package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Roman77St/trimsound/timeline"
)

// cell хранит символ и цвета одного знакоместа.
type cell struct {
	ch rune
	fg timeline.Color
	bg timeline.Color
}

// termCanvas рисует шкалу в сетке знакомест: один пиксель шкалы равен одной колонке.
type termCanvas struct {
	w, h  int
	cells []cell
}

var _ timeline.Canvas = (*termCanvas)(nil)

var (
	bgStyles = map[timeline.Color]lipgloss.Style{
		timeline.ColorBackground: lipgloss.NewStyle().Background(lipgloss.Color("236")),
		timeline.ColorSelection:  lipgloss.NewStyle().Background(lipgloss.Color("250")),
	}
	fgColors = map[timeline.Color]lipgloss.Color{
		timeline.ColorFrame:    lipgloss.Color("240"),
		timeline.ColorCursor:   lipgloss.Color("196"),
		timeline.ColorWaveform: lipgloss.Color("33"),
	}
)

func newTermCanvas(w, h int) *termCanvas {
	c := &termCanvas{w: max(w, 0), h: max(h, 0)}
	c.cells = make([]cell, c.w*c.h)
	for i := range c.cells {
		c.cells[i] = cell{ch: ' ', bg: timeline.ColorBackground}
	}
	return c
}

func (c *termCanvas) at(x, y int) *cell {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return nil
	}
	return &c.cells[y*c.w+x]
}

// FillRect заливает фон, символы не трогает.
func (c *termCanvas) FillRect(x, y, w, h float64, col timeline.Color) {
	x0, y0 := round(x), round(y)
	x1, y1 := round(x+w), round(y+h)
	for yy := y0; yy < y1; yy++ {
		for xx := x0; xx < x1; xx++ {
			if p := c.at(xx, yy); p != nil {
				p.bg = col
			}
		}
	}
}

// StrokeRect рисует рамку по краям прямоугольника включительно.
func (c *termCanvas) StrokeRect(x, y, w, h float64, col timeline.Color) {
	x0, y0 := round(x), round(y)
	x1, y1 := round(x+w), round(y+h)
	for xx := x0 + 1; xx < x1; xx++ {
		c.put(xx, y0, '─', col)
		c.put(xx, y1, '─', col)
	}
	for yy := y0 + 1; yy < y1; yy++ {
		c.put(x0, yy, '│', col)
		c.put(x1, yy, '│', col)
	}
	c.put(x0, y0, '┌', col)
	c.put(x1, y0, '┐', col)
	c.put(x0, y1, '└', col)
	c.put(x1, y1, '┘', col)
}

// Line поддерживает только вертикальные и горизонтальные отрезки, другие шкале не нужны.
func (c *termCanvas) Line(x1, y1, x2, y2 float64, col timeline.Color) {
	ax, ay, bx, by := round(x1), round(y1), round(x2), round(y2)
	if ax == bx {
		for yy := min(ay, by); yy < max(ay, by); yy++ {
			c.put(ax, yy, '┃', col)
		}
		return
	}
	for xx := min(ax, bx); xx <= max(ax, bx); xx++ {
		c.put(xx, ay, '━', col)
	}
}

// Curve отмечает точки и соединяет соседние по вертикали.
func (c *termCanvas) Curve(pts []timeline.Point, col timeline.Color) {
	for i, p := range pts {
		x, y := round(p.X), min(round(p.Y), c.h-1)
		c.put(x, y, '•', col)
		if i == 0 {
			continue
		}
		prev := min(round(pts[i-1].Y), c.h-1)
		for yy := min(prev, y) + 1; yy < max(prev, y); yy++ {
			c.put(x, yy, '│', col)
		}
	}
}

func (c *termCanvas) put(x, y int, ch rune, col timeline.Color) {
	if p := c.at(x, y); p != nil {
		p.ch, p.fg = ch, col
	}
}

// Render собирает строки со стилями lipgloss.
func (c *termCanvas) Render() string {
	var b strings.Builder
	for y := 0; y < c.h; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < c.w; x++ {
			p := c.cells[y*c.w+x]
			st := bgStyles[p.bg]
			if fg, ok := fgColors[p.fg]; ok && p.ch != ' ' {
				st = st.Foreground(fg)
			}
			b.WriteString(st.Render(string(p.ch)))
		}
	}
	return b.String()
}

func round(v float64) int {
	return int(math.Round(v))
}
