// Package export переводит выделение на шкале в параметры обрезки
// и передаёт их внешнему перекодировщику (ffmpeg).
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidSelection возвращается, когда файл не загружен или выделение пустое.
var ErrInvalidSelection = errors.New("invalid selection")

// Request описывает один экспорт. Low и High заданы в процентах длины.
type Request struct {
	Input  string        `validate:"required"`
	Output string        `validate:"required,nefield=Input"`
	Low    float64       `validate:"gte=0,lte=100"`
	High   float64       `validate:"gte=0,lte=100"`
	Length time.Duration `validate:"-"`
}

// Plan — рассчитанные параметры обрезки в секундах.
type Plan struct {
	Input    string
	Output   string
	Start    float64
	Duration float64
}

// Transcoder выполняет обрезку во внешнем процессе.
type Transcoder interface {
	Trim(ctx context.Context, input, output string, start, duration float64) error
}

var validate = validator.New()

// Calculate переводит проценты выделения в начало и длительность в секундах:
// start = length*low/100, duration = length*high/100 - start.
func Calculate(length time.Duration, low, high float64) (start, duration float64, err error) {
	if length <= 0 {
		return 0, 0, fmt.Errorf("%w: no file loaded", ErrInvalidSelection)
	}
	total := length.Seconds()
	start = total * low / 100
	duration = total*high/100 - start
	if duration <= 0 {
		return 0, 0, fmt.Errorf("%w: empty range %.2f%%..%.2f%%", ErrInvalidSelection, low, high)
	}
	return start, duration, nil
}

// Plan проверяет запрос и рассчитывает параметры обрезки.
func (r Request) Plan() (Plan, error) {
	if r.Length <= 0 || r.Input == "" {
		return Plan{}, fmt.Errorf("%w: no file loaded", ErrInvalidSelection)
	}
	if err := validate.Struct(r); err != nil {
		return Plan{}, fmt.Errorf("%w: %w", ErrInvalidSelection, err)
	}
	start, duration, err := Calculate(r.Length, r.Low, r.High)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Input: r.Input, Output: r.Output, Start: start, Duration: duration}, nil
}

// Run рассчитывает план и выполняет обрезку.
// Недописанный файл при ошибке не удаляется.
func Run(ctx context.Context, t Transcoder, r Request) (Plan, error) {
	p, err := r.Plan()
	if err != nil {
		return Plan{}, err
	}
	if err := t.Trim(ctx, p.Input, p.Output, p.Start, p.Duration); err != nil {
		return p, err
	}
	return p, nil
}
