package timeline

import (
	"errors"
	"fmt"
)

var (
	// ErrDegenerateDomain возвращается, когда max <= min и отображение значений в пиксели не определено.
	ErrDegenerateDomain = errors.New("timeline: degenerate domain, max must be greater than min")
	// ErrZeroWidth возвращается, когда ширина области отрисовки не положительна.
	ErrZeroWidth = errors.New("timeline: width must be positive")
)

// Scale линейно связывает диапазон значений [Min, Max] с горизонтальными пикселями [0, Width].
type Scale struct {
	Min   float64
	Max   float64
	Width float64
}

// NewScale проверяет параметры и возвращает готовую шкалу.
func NewScale(min, max, width float64) (Scale, error) {
	if err := checkDomain(min, max); err != nil {
		return Scale{}, err
	}
	if width <= 0 {
		return Scale{}, fmt.Errorf("%w: got %v", ErrZeroWidth, width)
	}
	return Scale{Min: min, Max: max, Width: width}, nil
}

// ToPixel переводит значение в смещение в пикселях от левого края.
func (s Scale) ToPixel(v float64) float64 {
	return (v - s.Min) * s.Width / (s.Max - s.Min)
}

// ToValue обратна ToPixel.
func (s Scale) ToValue(px float64) float64 {
	return s.Min + px*(s.Max-s.Min)/s.Width
}

// ToPixel делает то же, что Scale.ToPixel, для разовых вычислений.
func ToPixel(v, min, max, width float64) (float64, error) {
	s, err := NewScale(min, max, width)
	if err != nil {
		return 0, err
	}
	return s.ToPixel(v), nil
}

// ToValue обратна функции ToPixel.
func ToValue(px, min, max, width float64) (float64, error) {
	s, err := NewScale(min, max, width)
	if err != nil {
		return 0, err
	}
	return s.ToValue(px), nil
}

// Percent переводит значение диапазона в проценты [0, 100].
func Percent(v, min, max float64) float64 {
	if max <= min {
		return 0
	}
	return (v - min) * 100 / (max - min)
}

func checkDomain(min, max float64) error {
	if !(max > min) {
		return fmt.Errorf("%w: min=%v max=%v", ErrDegenerateDomain, min, max)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
