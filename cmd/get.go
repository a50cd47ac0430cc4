package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/unidown/unidown/internal/cookies"
	"github.com/unidown/unidown/internal/engine"
	"github.com/unidown/unidown/internal/output"
	"github.com/unidown/unidown/internal/platform"
)

func newGetCmd() *cobra.Command {
	var (
		engineName     string
		outputDir      string
		threads        int
		cookiesFile    string
		cookiesBrowser string
		openAfter      bool
	)
	cmd := &cobra.Command{
		Use:   "get [URL]",
		Short: "Download a video or stream from a URL",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			opts, err := downloadOptions(args[0], engineName, outputDir, threads, cookiesFile, cookiesBrowser)
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}

			resolver := cookies.NewResolver()
			if err := resolver.LoadCache(cookieCachePath()); err != nil {
				output.PrintDebug(fmt.Sprintf("Cookie cache not loaded: %s", err))
			}
			orch := newOrchestrator(resolver)

			ctl, err := orch.RunTracked(opts, nil)
			if err != nil {
				output.PrintError(fmt.Sprintf("Download not started: %s", err))
				os.Exit(1)
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigCh
				output.PrintWarning("Interrupt received, stopping download")
				ctl.Stop()
			}()

			outcome := ctl.Wait()
			signal.Stop(sigCh)

			if err := resolver.SaveCache(cookieCachePath()); err != nil {
				output.PrintDebug(fmt.Sprintf("Cookie cache not saved: %s", err))
			}
			if outcome.Success && openAfter {
				if err := platform.OpenFolder(opts.OutputDir); err != nil {
					output.PrintWarning(fmt.Sprintf("Could not open folder: %s", err))
				}
			}
			if !outcome.Success {
				os.Exit(1)
			}
		},
	}
	cmd.Flags().StringVarP(&engineName, "engine", "e", "", "Download engine: native, aria2 or re (default: from config)")
	cmd.Flags().StringVarP(&outputDir, "dir", "d", "", "Output directory (default: from config)")
	cmd.Flags().IntVarP(&threads, "threads", "t", 0, "Download threads, 0 picks a value for this machine")
	cmd.Flags().StringVar(&cookiesFile, "cookies-file", "", "Netscape cookie file to read cookies from")
	cmd.Flags().StringVar(&cookiesBrowser, "cookies-from-browser", "", "Browser to read cookies from: chrome, edge, firefox or safari")
	cmd.Flags().BoolVarP(&openAfter, "open", "o", false, "Open the output folder when the download finishes")
	return cmd
}

// downloadOptions merges flags over the persisted config. Flags win
// wherever they are set.
func downloadOptions(url, engineName, outputDir string, threads int, cookiesFile, cookiesBrowser string) (engine.DownloadOptions, error) {
	opts := engine.DownloadOptions{
		URL:          url,
		OutputDir:    appCfg.DownloadDir,
		Engine:       engine.Engine(appCfg.Engine),
		Threads:      appCfg.EffectiveThreads(),
		CookieSource: engine.CookieSource(appCfg.CookieSource),
		CookiePath:   appCfg.CookiePath,
	}
	if engineName != "" {
		opts.Engine = engine.Engine(engineName)
	}
	if outputDir != "" {
		opts.OutputDir = outputDir
	}
	if threads > 0 {
		opts.Threads = threads
	}
	if cookiesFile != "" && cookiesBrowser != "" {
		return opts, fmt.Errorf("--cookies-file and --cookies-from-browser cannot be combined")
	}
	if cookiesFile != "" {
		opts.CookieSource = engine.CookieFile
		opts.CookiePath = cookiesFile
	}
	if cookiesBrowser != "" {
		src, err := engine.ParseCookieSource(cookiesBrowser)
		if err != nil {
			return opts, err
		}
		opts.CookieSource = src
		opts.CookiePath = ""
	}
	return opts, nil
}
