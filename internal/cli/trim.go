package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Roman77St/trimsound"
	"github.com/Roman77St/trimsound/export"
)

func newTrimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trim <input> [output]",
		Short: "Cut a range of a file without the editor",
		Long: "Cut the range between --from and --to (percent of the track length) " +
			"and write it to output. Without output the name is derived from input.",
		Args: cobra.RangeArgs(1, 2),
		RunE: runTrim,
	}
	cmd.Flags().Float64("from", 0, "Selection start, percent")
	cmd.Flags().Float64("to", 100, "Selection end, percent")
	cmd.Flags().Bool("upload", false, "Upload the result to S3")
	return cmd
}

func runTrim(cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetFloat64("from")
	to, _ := cmd.Flags().GetFloat64("to")
	upload, _ := cmd.Flags().GetBool("upload")

	if from < 0 || to > 100 || to <= from {
		return fmt.Errorf("%w: --from %v --to %v", export.ErrInvalidSelection, from, to)
	}

	cfg, log, done, err := setup(cmd)
	if err != nil {
		return err
	}
	defer done()

	if upload && !cfg.S3Enabled() {
		return fmt.Errorf("--upload: %w", trimsound.ErrNoPublisher)
	}

	input := args[0]
	output := export.DefaultOutputPath(input)
	if len(args) == 2 {
		output = args[1]
	}

	ctx := cmd.Context()
	ff := export.NewFFmpeg(cfg.FFmpegPath, cfg.FFprobePath, log)
	length, err := ff.ProbeDuration(ctx, input)
	if err != nil {
		return err
	}

	plan, err := export.Run(ctx, ff, export.Request{
		Input:  input,
		Output: output,
		Low:    from,
		High:   to,
		Length: length,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %.3fs from %.3fs\n", plan.Output, plan.Duration, plan.Start)

	if !upload {
		return nil
	}
	pub, err := export.NewS3Publisher(ctx, cfg.S3())
	if err != nil {
		return fmt.Errorf("s3 publisher: %w", err)
	}
	url, err := pub.Publish(ctx, plan.Output)
	if err != nil {
		return err
	}
	log.Info("export published", slog.String("url", url))
	fmt.Fprintln(cmd.OutOrStdout(), url)
	return nil
}
