package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/quill/internal/providers"
)

var flagModelsProvider string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Provider and model management",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the static model catalogs",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		for _, id := range selectedProviders() {
			p, err := providers.New(id, app.cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "%s:\n", p.ID())
			for _, m := range p.Models() {
				if m.Hidden {
					continue
				}
				marker := " "
				if m.Default {
					marker = "*"
				}
				fmt.Fprintf(os.Stdout, " %s %s (%s, in %d / out %d tokens)\n",
					marker, m.ID, m.DisplayName, m.MaxInputTokens, m.MaxOutputTokens)
			}
			fmt.Fprintln(os.Stdout)
		}
		return nil
	},
}

var modelsRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Query each provider's live model listing",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		// A failing vendor degrades to a warning, never a hard error.
		for _, id := range selectedProviders() {
			p, err := providers.New(id, app.cfg)
			if err != nil {
				return err
			}
			ids, err := p.RefreshModels(ctx)
			if err != nil {
				app.notify.Warnf("%s: model listing failed: %v", p.ID(), err)
				continue
			}
			fmt.Fprintf(os.Stdout, "%s:\n", p.ID())
			for _, m := range ids {
				fmt.Fprintf(os.Stdout, "  - %s\n", m)
			}
			fmt.Fprintln(os.Stdout)
		}
		return nil
	},
}

var modelsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Validate provider credentials with a live ping",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		id := flagModelsProvider
		if id == "" {
			id = app.cfg.GetString("base.provider")
		}

		fmt.Fprintf(os.Stdout, "Checking %s...\n", id)

		p, err := providers.New(id, app.cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			exitCode = ExitUsageError
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		_, err = p.GenerateResponse(ctx, providers.Request{
			SystemPrompt: "Respond with exactly: ok",
			Prompt:       "ping",
			MaxTokens:    10,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			if providers.IsAuthError(err) {
				exitCode = ExitAuthError
			} else {
				exitCode = ExitRuntimeError
			}
			return nil
		}

		fmt.Fprintf(os.Stdout, "OK: %s is configured and responding\n", id)
		return nil
	},
}

// selectedProviders narrows the provider set to --provider when given.
func selectedProviders() []string {
	if flagModelsProvider != "" {
		return []string{flagModelsProvider}
	}
	return providers.IDs()
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsRefreshCmd)
	modelsCmd.AddCommand(modelsDoctorCmd)
	modelsCmd.PersistentFlags().StringVar(&flagModelsProvider, "provider", "", "Limit to one provider")
}
