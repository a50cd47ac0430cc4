package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/unidown/unidown/internal/output"
	"github.com/unidown/unidown/internal/platform"
	"github.com/unidown/unidown/internal/tools"
	"github.com/unidown/unidown/internal/utils"
)

func newDepsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Manage the external download tools",
	}
	cmd.AddCommand(newDepsInstallCmd())
	cmd.AddCommand(newDepsStatusCmd())
	return cmd
}

func newDepsInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install [TOOL...]",
		Short: "Download missing tools from their release pages",
		Long:  "Download missing tools into the managed tool directory. With no arguments all tools are installed. Tools that are already present are left alone.",
		Run: func(cmd *cobra.Command, args []string) {
			var wanted []tools.Tool
			if len(args) == 0 {
				wanted = tools.All()
			} else {
				for _, arg := range args {
					tool, err := tools.Parse(arg)
					if err != nil {
						output.PrintError(err.Error())
						os.Exit(1)
					}
					wanted = append(wanted, tool)
				}
			}

			client := newHTTPClient()
			locator := tools.NewLocator(client, mirrorEnabled())
			// Messages land on the line the progress bar is drawing on,
			// so clear it first.
			sink := func(text string, level output.Level) {
				fmt.Print("\r\033[K")
				output.Styled(text, level)
			}
			inst := tools.NewInstaller(appCfg.ToolDir, locator, client, sink)
			var (
				curTool tools.Tool
				started time.Time
			)
			inst.Progress = func(tool tools.Tool, done, total int64) {
				if tool != curTool {
					curTool, started = tool, time.Now()
				}
				speed := utils.FormatSpeed(done, time.Since(started).Seconds())
				if total > 0 {
					fmt.Printf("\r\033[K  %s %s / %s (%s)", output.ProgressBar(done, total, 30),
						utils.FormatBytes(uint64(done)), utils.FormatBytes(uint64(total)), speed)
				} else {
					fmt.Printf("\r\033[K  %s downloaded (%s)", utils.FormatBytes(uint64(done)), speed)
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := inst.EnsureAll(ctx, wanted); err != nil {
				fmt.Print("\r\033[K")
				if ctx.Err() != nil {
					output.PrintWarning("Install cancelled")
				} else {
					output.PrintError(fmt.Sprintf("Install incomplete: %s", err))
				}
				os.Exit(1)
			}
			output.PrintSuccess("All requested tools are installed")
		},
	}
	return cmd
}

func newDepsStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which tools are installed and where",
		Run: func(cmd *cobra.Command, args []string) {
			client := newHTTPClient()
			inst := tools.NewInstaller(appCfg.ToolDir, tools.NewLocator(client, false), client, output.Styled)
			output.PrintHeader("Tool status")
			for _, st := range inst.Status() {
				if st.Installed {
					output.PrintSuccess(fmt.Sprintf("  %s %s %s %s", output.StyleSymbols["pass"], st.Tool,
						output.StyleSymbols["arrow"], st.Path))
				} else {
					output.PrintError(fmt.Sprintf("  %s %s (not installed)", output.StyleSymbols["fail"], st.Tool))
				}
			}
			output.PrintDetail(fmt.Sprintf("Tool directory: %s", appCfg.ToolDir))
			output.PrintDetail(fmt.Sprintf("System: %s", platform.SystemSummary()))
		},
	}
	return cmd
}
