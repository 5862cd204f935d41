package trimsound

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Roman77St/trimsound/export"
	"github.com/Roman77St/trimsound/timeline"
)

// ErrNoPublisher возвращается из Publish, когда хранилище не настроено.
var ErrNoPublisher = errors.New("publishing is not configured")

// DefaultExportPath предлагает путь результата для открытого файла.
func (s *Session) DefaultExportPath() string {
	if !s.Loaded() {
		return ""
	}
	return export.DefaultOutputPath(s.path)
}

// ExportRequest снимает текущее выделение и длину в запрос на экспорт.
// Вызывается из цикла событий; сам запрос можно выполнять в фоне через RunExport.
func (s *Session) ExportRequest(output string) export.Request {
	low, high := s.slider.Selection()
	min, max := s.slider.Range()
	return export.Request{
		Input:  s.path,
		Output: output,
		Low:    timeline.Percent(low, min, max),
		High:   timeline.Percent(high, min, max),
		Length: s.Length(),
	}
}

// RunExport выполняет запрос. Не трогает состояние сессии.
func (s *Session) RunExport(ctx context.Context, r export.Request) (export.Plan, error) {
	if s.opts.Transcoder == nil {
		return export.Plan{}, errors.New("no transcoder configured")
	}
	p, err := export.Run(ctx, s.opts.Transcoder, r)
	if err != nil {
		s.log.Warn("export failed", slog.String("output", r.Output), slog.Any("error", err))
		return p, err
	}
	return p, nil
}

// Export обрезает открытый файл по выделению и пишет результат в output.
func (s *Session) Export(ctx context.Context, output string) (export.Plan, error) {
	return s.RunExport(ctx, s.ExportRequest(output))
}

// CanPublish сообщает, настроена ли публикация результата.
func (s *Session) CanPublish() bool { return s.opts.Publisher != nil }

// Publish загружает экспортированный файл в хранилище.
func (s *Session) Publish(ctx context.Context, path string) (string, error) {
	if s.opts.Publisher == nil {
		return "", ErrNoPublisher
	}
	url, err := s.opts.Publisher.Publish(ctx, path)
	if err != nil {
		return "", err
	}
	s.log.Info("export published", slog.String("path", path), slog.String("url", url))
	return url, nil
}
