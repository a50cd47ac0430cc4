package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/unidown/unidown/internal/cookies"
	"github.com/unidown/unidown/internal/engine"
	"github.com/unidown/unidown/internal/output"
	"github.com/unidown/unidown/internal/utils"
)

func newBatchCmd() *cobra.Command {
	var (
		engineName string
		outputDir  string
		threads    int
	)
	cmd := &cobra.Command{
		Use:   "batch [FILE]",
		Short: "Download every URL listed in a YAML file, one after another",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			entries, skipped, err := utils.ReadDownloadList(args[0])
			if err != nil {
				output.PrintError(fmt.Sprintf("Could not read download list: %s", err))
				os.Exit(1)
			}
			if skipped > 0 {
				output.PrintWarning(fmt.Sprintf("Skipped %d entries without a URL", skipped))
			}
			if len(entries) == 0 {
				output.PrintWarning("Nothing to download")
				return
			}

			resolver := cookies.NewResolver()
			if err := resolver.LoadCache(cookieCachePath()); err != nil {
				output.PrintDebug(fmt.Sprintf("Cookie cache not loaded: %s", err))
			}
			orch := newOrchestrator(resolver)

			var (
				aborted atomic.Bool
				mu      sync.Mutex
				current *engine.Controller
			)
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigCh
				output.PrintWarning("Interrupt received, stopping batch")
				aborted.Store(true)
				mu.Lock()
				if current != nil {
					current.Stop()
				}
				mu.Unlock()
			}()

			completed, failed := 0, 0
			for i, entry := range entries {
				if aborted.Load() {
					break
				}
				output.PrintHeader(fmt.Sprintf("[%d/%d] %s", i+1, len(entries), entry.URL))
				opts, err := downloadOptions(entry.URL, engineName, outputDir, threads, "", "")
				if err != nil {
					output.PrintError(err.Error())
					failed++
					continue
				}
				if entry.Engine != "" {
					opts.Engine = engine.Engine(entry.Engine)
				}
				ctl, err := orch.RunTracked(opts, nil)
				if err != nil {
					output.PrintError(fmt.Sprintf("Download not started: %s", err))
					failed++
					continue
				}
				mu.Lock()
				current = ctl
				mu.Unlock()
				outcome := ctl.Wait()
				mu.Lock()
				current = nil
				mu.Unlock()
				if outcome.Success {
					completed++
				} else {
					failed++
				}
			}
			signal.Stop(sigCh)

			if err := resolver.SaveCache(cookieCachePath()); err != nil {
				output.PrintDebug(fmt.Sprintf("Cookie cache not saved: %s", err))
			}
			remaining := len(entries) - completed - failed
			summary := fmt.Sprintf("Batch finished: %d completed, %d failed", completed, failed)
			if remaining > 0 {
				summary += fmt.Sprintf(", %d not started", remaining)
			}
			if failed > 0 || remaining > 0 {
				output.PrintWarning(summary)
				os.Exit(1)
			}
			output.PrintSuccess(summary)
		},
	}
	cmd.Flags().StringVarP(&engineName, "engine", "e", "", "Download engine for entries that do not set one")
	cmd.Flags().StringVarP(&outputDir, "dir", "d", "", "Output directory (default: from config)")
	cmd.Flags().IntVarP(&threads, "threads", "t", 0, "Download threads, 0 picks a value for this machine")
	return cmd
}
