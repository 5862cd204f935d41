// Package cli реализует команды trimsound.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Roman77St/trimsound/config"
	"github.com/Roman77St/trimsound/play"
)

func Main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	err := root.ExecuteContext(ctx)
	play.CleanUpTempFiles()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "trimsound [file]",
		Short:         "Play an audio file, select a range on the timeline and export it",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runEditor,
	}
	root.Flags().String("device", "", "Output device (see `trimsound devices`)")
	root.Flags().Duration("tick", 0, "Position sync interval, overrides TICK_INTERVAL")

	root.AddCommand(newTrimCmd(), newDevicesCmd())
	return root
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List output devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, d := range play.Devices() {
				fmt.Fprintln(cmd.OutOrStdout(), d)
			}
			return nil
		},
	}
}

// setup читает конфигурацию, применяет флаги и создаёт логгер.
// Возвращаемую функцию нужно вызвать при выходе.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	if f := cmd.Flags().Lookup("device"); f != nil && f.Changed {
		cfg.OutputDevice = f.Value.String()
	}
	if f := cmd.Flags().Lookup("tick"); f != nil && f.Changed {
		d, _ := cmd.Flags().GetDuration("tick")
		cfg.TickInterval = d
		if err := cfg.Validate(); err != nil {
			return nil, nil, nil, err
		}
	}

	log, closeLog, err := cfg.NewLogger()
	if err != nil {
		return nil, nil, nil, err
	}
	slog.SetDefault(log)
	log.Debug("config loaded", slog.String("config", cfg.String()))

	return cfg, log, func() {
		if err := closeLog(); err != nil {
			fmt.Fprintln(os.Stderr, "close log:", err)
		}
	}, nil
}
