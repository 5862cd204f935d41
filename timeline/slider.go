// Package timeline содержит виджет выбора диапазона на временной шкале:
// отображение значений в пиксели, отрисовку волны и перетаскивание трёх ручек
// (курсор воспроизведения, начало и конец выделения).
package timeline

// DragTarget определяет, какую из ручек сейчас тянет пользователь.
// Порядок констант задаёт приоритет при равных расстояниях: курсор > начало > конец.
type DragTarget int

const (
	DragNone DragTarget = iota
	DragCursor
	DragLow
	DragHigh
)

func (t DragTarget) String() string {
	switch t {
	case DragCursor:
		return "cursor"
	case DragLow:
		return "low"
	case DragHigh:
		return "high"
	default:
		return "none"
	}
}

// Direction указывает, какая граница выделения изменилась.
type Direction int

const (
	DirectionLow Direction = iota
	DirectionHigh
)

func (d Direction) String() string {
	if d == DirectionHigh {
		return "high"
	}
	return "low"
}

// Event — уведомление виджета. Доставляется синхронно, в порядке подписки.
type Event interface {
	event()
}

// SelectionChanged сообщает об изменении одной из границ выделения.
type SelectionChanged struct {
	Direction Direction
	Low       float64
	High      float64
}

// CursorChanged сообщает о перемещении курсора.
// ByUser равен true, если курсор сдвинут перетаскиванием, а не программно.
type CursorChanged struct {
	Value  float64
	ByUser bool
}

func (SelectionChanged) event() {}
func (CursorChanged) event()    {}

// DefaultWaveformScale — вертикальный масштаб волны по умолчанию.
const DefaultWaveformScale = 20

type field int

const (
	fieldCursor field = iota
	fieldLow
	fieldHigh
)

// Slider хранит состояние виджета: домен, курсор, выделение, волну и текущую ручку.
// Не потокобезопасен: все вызовы должны идти из одного цикла событий.
type Slider struct {
	min, max  float64
	cursor    float64
	low, high float64

	target     DragTarget
	userDriven bool

	waveform  []float64
	waveScale float64

	width, height float64

	listeners  []func(Event)
	invalidate func()
}

// NewSlider создаёт виджет с доменом [min, max] и выделением на весь домен.
func NewSlider(min, max float64) (*Slider, error) {
	if err := checkDomain(min, max); err != nil {
		return nil, err
	}
	return &Slider{
		min:       min,
		max:       max,
		cursor:    min,
		low:       min,
		high:      max,
		waveScale: DefaultWaveformScale,
	}, nil
}

// Subscribe регистрирует слушателя уведомлений.
func (s *Slider) Subscribe(fn func(Event)) {
	s.listeners = append(s.listeners, fn)
}

// OnInvalidate задаёт функцию, которая вызывается, когда виджет нужно перерисовать.
func (s *Slider) OnInvalidate(fn func()) {
	s.invalidate = fn
}

func (s *Slider) Range() (min, max float64) { return s.min, s.max }
func (s *Slider) Cursor() float64 { return s.cursor }
func (s *Slider) Selection() (low, high float64) { return s.low, s.high }
func (s *Slider) Target() DragTarget { return s.target }
func (s *Slider) Dragging() bool { return s.target != DragNone }
func (s *Slider) Size() (width, height float64) { return s.width, s.height }
func (s *Slider) Waveform() []float64 { return s.waveform }
func (s *Slider) WaveformScale() float64 { return s.waveScale }

// SetRange меняет домен. При max <= min возвращает ErrDegenerateDomain и ничего не меняет.
// Курсор и выделение поджимаются к новому домену.
func (s *Slider) SetRange(min, max float64) error {
	if err := checkDomain(min, max); err != nil {
		return err
	}
	s.min, s.max = min, max
	s.repaint()
	s.SetSelection(s.low, s.high)
	s.updateAndNotify(fieldCursor, s.cursor)
	return nil
}

// SetSelection задаёт обе границы. Если low > high, границы меняются местами.
func (s *Slider) SetSelection(low, high float64) {
	if low > high {
		low, high = high, low
	}
	low = clamp(low, s.min, s.max)
	high = clamp(high, s.min, s.max)
	// порядок важен: новая граница не должна упереться в старую
	if low > s.high {
		s.updateAndNotify(fieldHigh, high)
		s.updateAndNotify(fieldLow, low)
		return
	}
	s.updateAndNotify(fieldLow, low)
	s.updateAndNotify(fieldHigh, high)
}

// SetLow двигает начало выделения, не заходя за конец.
func (s *Slider) SetLow(v float64) { s.updateAndNotify(fieldLow, v) }

// SetHigh двигает конец выделения, не заходя за начало.
func (s *Slider) SetHigh(v float64) { s.updateAndNotify(fieldHigh, v) }

// SetCursor программно перемещает курсор.
func (s *Slider) SetCursor(v float64) { s.updateAndNotify(fieldCursor, v) }

// SetWaveform заменяет волну целиком. nil очищает её.
func (s *Slider) SetWaveform(samples []float64) {
	if samples == nil {
		s.waveform = nil
	} else {
		s.waveform = append([]float64(nil), samples...)
	}
	s.repaint()
}

// SetWaveformScale задаёт вертикальный масштаб волны.
func (s *Slider) SetWaveformScale(scale float64) {
	s.waveScale = scale
	s.repaint()
}

// Resize задаёт размер клиентской области в пикселях. Домен растягивается
// на пиксели от 0 до width-1 включительно: max попадает в последний пиксель, а не за край.
func (s *Slider) Resize(width, height float64) {
	s.width, s.height = width, height
	s.repaint()
}

// CancelDrag сбрасывает текущую ручку. Повторный вызов ничего не делает.
func (s *Slider) CancelDrag() {
	s.target = DragNone
}

// PointerDown выбирает ближайшую к точке нажатия ручку и сразу переносит её туда,
// так что одиночный клик без движения тоже двигает ручку.
func (s *Slider) PointerDown(x float64) {
	v, ok := s.pointedValue(x)
	if !ok {
		return
	}
	s.target = s.HitTest(v)
	s.drag(v)
}

// PointerMove двигает выбранную ручку, пока зажата основная кнопка.
func (s *Slider) PointerMove(x float64, primaryPressed bool) {
	if !primaryPressed || s.target == DragNone {
		return
	}
	v, ok := s.pointedValue(x)
	if !ok {
		return
	}
	s.drag(v)
}

// PointerUp завершает перетаскивание. Значения не меняются.
func (s *Slider) PointerUp() {
	s.target = DragNone
}

// HitTest возвращает ручку, ближайшую к значению v.
// Расстояние считается в пространстве значений, а не пикселей.
func (s *Slider) HitTest(v float64) DragTarget {
	target, best := DragCursor, abs(v-s.cursor)
	if d := abs(v - s.low); d < best {
		target, best = DragLow, d
	}
	if d := abs(v - s.high); d < best {
		target = DragHigh
	}
	return target
}

func (s *Slider) drag(v float64) {
	switch s.target {
	case DragCursor:
		s.userDriven = true
		s.updateAndNotify(fieldCursor, v)
		s.userDriven = false
	case DragLow:
		s.updateAndNotify(fieldLow, v)
	case DragHigh:
		s.updateAndNotify(fieldHigh, v)
	}
}

func (s *Slider) pointedValue(x float64) (float64, bool) {
	if s.width <= 1 {
		return 0, false
	}
	return s.scale().ToValue(x), true
}

// scale отображает домен на пиксели 0..width-1.
func (s *Slider) scale() Scale {
	return Scale{Min: s.min, Max: s.max, Width: max(s.width-1, 0)}
}

// updateAndNotify — единственное место, где меняются курсор и границы:
// поджимает значение, запрашивает перерисовку и рассылает уведомление.
func (s *Slider) updateAndNotify(f field, v float64) {
	v = clamp(v, s.min, s.max)
	var ptr *float64
	switch f {
	case fieldCursor:
		ptr = &s.cursor
	case fieldLow:
		if v > s.high {
			v = s.high
		}
		ptr = &s.low
	case fieldHigh:
		if v < s.low {
			v = s.low
		}
		ptr = &s.high
	}
	if *ptr == v {
		return
	}
	*ptr = v
	s.repaint()

	switch f {
	case fieldCursor:
		s.emit(CursorChanged{Value: v, ByUser: s.userDriven})
	case fieldLow:
		s.emit(SelectionChanged{Direction: DirectionLow, Low: s.low, High: s.high})
	case fieldHigh:
		s.emit(SelectionChanged{Direction: DirectionHigh, Low: s.low, High: s.high})
	}
}

func (s *Slider) emit(e Event) {
	for _, fn := range s.listeners {
		fn(e)
	}
}

func (s *Slider) repaint() {
	if s.invalidate != nil {
		s.invalidate()
	}
}

// Paint рисует фон, выделение, рамку, линию курсора и поверх всего волну.
func (s *Slider) Paint(c Canvas) {
	if s.width <= 0 || s.height <= 0 {
		return
	}
	sc := s.scale()

	c.FillRect(0, 0, s.width, s.height, ColorBackground)

	x1, x2 := sc.ToPixel(s.low), sc.ToPixel(s.high)
	c.FillRect(x1, 0, x2-x1, s.height, ColorSelection)

	c.StrokeRect(0, 0, s.width-1, s.height-1, ColorFrame)

	cx := sc.ToPixel(s.cursor)
	c.Line(cx, 0, cx, s.height, ColorCursor)

	DrawWaveform(c, s.waveform, s.waveScale)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
