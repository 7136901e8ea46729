package cli

import (
	"github.com/spf13/cobra"

	"github.com/dshills/quill/internal/output"
	"github.com/dshills/quill/internal/providers"
	"github.com/dshills/quill/internal/review"
	"github.com/dshills/quill/internal/scm"
)

var (
	flagReviewFormat string
	flagReviewOut    string
)

var reviewCmd = &cobra.Command{
	Use:   "review <files...>",
	Short: "Review pending changes to the given files",
	Long: "Reviews each file's pending diff with the configured AI provider. Files\n" +
		"are reviewed concurrently; a failing file is reported as a warning while\n" +
		"the rest of the batch completes.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Reject a bad format before any provider work happens.
		if _, err := output.GetWriter(flagReviewFormat); err != nil {
			return err
		}

		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := cmd.Context()
		repo, err := scm.Detect(ctx, app.cfg.GetString("base.scm"), workspaceRoot(), app.simp, app.notify)
		if err != nil {
			app.notify.Errorf("%v", err)
			exitCode = ExitRuntimeError
			return nil
		}

		provider, err := providers.Active(app.cfg)
		if err != nil {
			return err
		}

		engine := review.New(app.cfg, provider, repo, app.notify, app.log)
		engine.OnProgress = func(file string, done, total int) {
			app.log.Info().Str("file", file).Int("done", done).Int("total", total).Msg("reviewed")
		}

		report, err := engine.ReviewFiles(ctx, args)
		if err != nil {
			return reportError(app, err)
		}

		if err := output.WriteReport(report, flagReviewFormat, flagReviewOut); err != nil {
			return err
		}
		if flagReviewOut != "" {
			app.notify.Infof("review written to %s", flagReviewOut)
		}
		return nil
	},
}

func init() {
	reviewCmd.Flags().StringVar(&flagReviewFormat, "format", "text", "Output format: text or html")
	reviewCmd.Flags().StringVarP(&flagReviewOut, "out", "o", "", "Write the report to a file instead of stdout")
}
