package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Roman77St/trimsound"
	"github.com/Roman77St/trimsound/config"
	"github.com/Roman77St/trimsound/export"
	"github.com/Roman77St/trimsound/play"
	"github.com/Roman77St/trimsound/ui"
	"github.com/Roman77St/trimsound/waveform"
)

func runEditor(cmd *cobra.Command, args []string) error {
	cfg, log, done, err := setup(cmd)
	if err != nil {
		return err
	}
	defer done()

	ctx := cmd.Context()
	s, err := newSession(ctx, cfg, log)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		if err := s.Open(ctx, args[0], cfg.OutputDevice); err != nil {
			return err
		}
	}

	return ui.Run(ctx, s, ui.Options{
		Tick:   cfg.TickInterval,
		Device: cfg.OutputDevice,
		Logger: log,
	})
}

// newSession собирает сессию со всеми зависимостями из конфигурации.
func newSession(ctx context.Context, cfg *config.Config, log *slog.Logger) (*trimsound.Session, error) {
	opts := trimsound.Options{
		Transcoder:      export.NewFFmpeg(cfg.FFmpegPath, cfg.FFprobePath, log),
		Samples:         waveform.NewExtractor(cfg.FFmpegPath, log),
		WaveformChannel: cfg.WaveformChannel,
		Logger:          log,
	}
	if cfg.S3Enabled() {
		pub, err := export.NewS3Publisher(ctx, cfg.S3())
		if err != nil {
			return nil, fmt.Errorf("s3 publisher: %w", err)
		}
		opts.Publisher = pub
	}
	return trimsound.NewSession(play.New(cfg.PlayerOptions(log)), opts), nil
}
