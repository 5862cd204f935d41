package timeline

// Color — логический цвет элемента. Конкретную палитру выбирает реализация Canvas.
type Color int

const (
	ColorBackground Color = iota
	ColorSelection
	ColorFrame
	ColorCursor
	ColorWaveform
)

// Point задаёт точку в пикселях относительно левого верхнего угла виджета. Y растёт вниз.
type Point struct {
	X, Y float64
}

// Canvas — поверхность, на которой рисуется виджет.
// Реализации обязаны сами отсекать всё, что выходит за границы.
type Canvas interface {
	FillRect(x, y, w, h float64, c Color)
	StrokeRect(x, y, w, h float64, c Color)
	Line(x1, y1, x2, y2 float64, c Color)
	Curve(points []Point, c Color)
}

// DrawWaveform рисует отсчёт i в точке (i, amplitude[i]*scale).
// Пустая последовательность ничего не рисует.
func DrawWaveform(c Canvas, samples []float64, scale float64) {
	if len(samples) == 0 {
		return
	}
	c.Curve(WaveformPoints(samples, scale), ColorWaveform)
}

// WaveformPoints строит ломаную для DrawWaveform.
func WaveformPoints(samples []float64, scale float64) []Point {
	points := make([]Point, len(samples))
	for i, a := range samples {
		points[i] = Point{X: float64(i), Y: a * scale}
	}
	return points
}
