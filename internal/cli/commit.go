package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/quill/internal/providers"
	"github.com/dshills/quill/internal/review"
	"github.com/dshills/quill/internal/scm"
)

var (
	flagCommitSave bool
	flagCommitDo   bool
)

var commitCmd = &cobra.Command{
	Use:   "commit [files...]",
	Short: "Generate a commit message from pending changes",
	Long: "Generates a commit message from the pending diff. By default the message\n" +
		"is printed; --save writes it into the repository's commit-message input,\n" +
		"and --commit records the named files with the generated message.",
	RunE: func(cmd *cobra.Command, args []string) error {
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
		msg, err := engine.CommitMessage(ctx, args...)
		if err != nil {
			return reportError(app, err)
		}

		if flagCommitDo {
			if len(args) == 0 {
				app.notify.Errorf("--commit requires an explicit file list")
				exitCode = ExitUsageError
				return nil
			}
			if err := repo.Commit(ctx, msg, args); err != nil {
				return reportError(app, err)
			}
			app.notify.Infof("committed %d file(s)", len(args))
			fmt.Fprintln(os.Stdout, msg)
			return nil
		}

		if flagCommitSave {
			if err := repo.SetCommitInput(msg); err != nil {
				return reportError(app, err)
			}
			app.notify.Infof("commit message saved to %s input", repo.ID())
		}

		fmt.Fprintln(os.Stdout, msg)
		return nil
	},
}

// workspaceRoot is the directory quill operates on.
func workspaceRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// reportError maps engine errors to exit codes without failing usage-style.
func reportError(app *app, err error) error {
	switch {
	case errors.Is(err, scm.ErrNoChanges):
		app.notify.Warnf("no pending changes found")
		exitCode = ExitSuccess
	case providers.IsAuthError(err):
		app.notify.Errorf("%v", err)
		exitCode = ExitAuthError
	default:
		app.notify.Errorf("%v", err)
		exitCode = ExitRuntimeError
	}
	return nil
}

func init() {
	commitCmd.Flags().BoolVar(&flagCommitSave, "save", false, "Write the message to the commit input instead of only printing it")
	commitCmd.Flags().BoolVar(&flagCommitDo, "commit", false, "Commit the listed files with the generated message")
}
