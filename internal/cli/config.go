package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/quill/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage quill settings",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := flagSettings
		if path == "" {
			var err error
			path, err = config.SettingsPath()
			if err != nil {
				return err
			}
		}
		fmt.Fprintln(os.Stdout, path)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show every setting and its effective value",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		app.cfg.Schema().WalkLeaves(func(leaf config.Leaf) {
			v, _ := app.cfg.Get(leaf.Path, true)
			if leaf.Secret {
				if s, ok := v.(string); ok && s != "" {
					v = "********"
				}
			}
			fmt.Fprintf(os.Stdout, "%-45s = %v\n", leaf.Path, v)
		})
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		v, ok := app.cfg.Get(args[0], false)
		if !ok {
			return fmt.Errorf("unknown setting: %s", args[0])
		}
		fmt.Fprintf(os.Stdout, "%v\n", v)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		leaf, ok := app.cfg.Schema().Leaf(args[0])
		if !ok {
			return fmt.Errorf("unknown setting: %s", args[0])
		}
		value, err := parseValue(leaf, args[1])
		if err != nil {
			return err
		}
		if err := app.cfg.Update(args[0], value); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Set %s\n", args[0])
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check provider credentials are configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()

		errs := app.cfg.Validate()
		if len(errs) == 0 {
			fmt.Fprintln(os.Stdout, "OK")
			return nil
		}
		for _, e := range errs {
			app.notify.Errorf("%v", e)
		}
		exitCode = ExitUsageError
		return nil
	},
}

// parseValue converts a CLI string to the leaf's declared type.
func parseValue(leaf config.Leaf, s string) (any, error) {
	switch leaf.Type {
	case config.TypeBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("%s: expected true or false, got %q", leaf.Path, s)
		}
		return b, nil
	case config.TypeInt:
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%s: expected an integer, got %q", leaf.Path, s)
		}
		return n, nil
	default:
		return s, nil
	}
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configValidateCmd)
}
