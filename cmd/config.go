package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unidown/unidown/internal/config"
	"github.com/unidown/unidown/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change persisted settings",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the active settings",
		Run: func(cmd *cobra.Command, args []string) {
			output.PrintHeader("Settings")
			for _, key := range config.Keys() {
				output.PrintDetail(fmt.Sprintf("  %s: %s", key, appCfg.Value(key)))
			}
			path := cfgPath
			if path == "" {
				path = config.DefaultPath()
			}
			output.PrintDebug(fmt.Sprintf("Config file: %s", path))
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set [KEY] [VALUE]",
		Short: "Change a setting and write it to the config file",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			if err := appCfg.Set(args[0], args[1]); err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			path := cfgPath
			if path == "" {
				path = config.DefaultPath()
			}
			if err := appCfg.Save(path); err != nil {
				output.PrintError(fmt.Sprintf("Could not save config: %s", err))
				os.Exit(1)
			}
			output.PrintSuccess(fmt.Sprintf("%s set to %s", args[0], args[1]))
		},
	}
}
