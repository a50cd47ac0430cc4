package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unidown/unidown/internal/output"
	"github.com/unidown/unidown/internal/platform"
)

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open [PATH]",
		Short: "Open the download folder in the system file manager",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			dir := appCfg.DownloadDir
			if len(args) == 1 {
				dir = args[0]
			}
			if err := platform.OpenFolder(dir); err != nil {
				output.PrintError(fmt.Sprintf("Could not open %s: %s", dir, err))
				os.Exit(1)
			}
		},
	}
}
