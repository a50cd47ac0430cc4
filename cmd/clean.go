package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/unidown/unidown/internal/output"
	"github.com/unidown/unidown/internal/tools"
)

func newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove partial downloads and staging files",
		Run: func(cmd *cobra.Command, args []string) {
			client := newHTTPClient()
			inst := tools.NewInstaller(appCfg.ToolDir, tools.NewLocator(client, false), client, output.Styled)
			removed, err := inst.Clean()
			if err != nil {
				output.PrintError(fmt.Sprintf("Could not clean tool directory: %s", err))
				os.Exit(1)
			}
			removed += sweepPartials(appCfg.DownloadDir)
			if removed == 0 {
				output.PrintInfo("Nothing to clean")
				return
			}
			output.PrintSuccess(fmt.Sprintf("Removed %d leftover files", removed))
		},
	}
	return cmd
}

// sweepPartials removes the temp files yt-dlp and aria2c leave behind
// after an interrupted download.
func sweepPartials(dir string) int {
	removed := 0
	for _, pattern := range []string{"*.part", "*.ytdl", "*.aria2"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		for _, match := range matches {
			if err := os.Remove(match); err == nil {
				removed++
			}
		}
	}
	return removed
}
