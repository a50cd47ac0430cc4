package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/unidown/unidown/internal/config"
	"github.com/unidown/unidown/internal/cookies"
	"github.com/unidown/unidown/internal/engine"
	"github.com/unidown/unidown/internal/output"
	"github.com/unidown/unidown/internal/platform"
	"github.com/unidown/unidown/internal/tools"
	"github.com/unidown/unidown/internal/utils"
)

var (
	cfgPath   string
	debug     bool
	userAgent string
	proxyURL  string
	appCfg    *config.Config
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:     "unidown",
	Short:   "Unidown downloads videos and live streams from almost anywhere",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		output.InitLogger(debug)
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		appCfg = cfg
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to config file (default: user config dir)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&userAgent, "user-agent", "a", utils.ToolUserAgent, "User agent for tool downloads, or 'randomize'")
	rootCmd.PersistentFlags().StringVar(&proxyURL, "proxy", "", "Proxy URL for tool downloads (http(s) or socks5)")
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newDepsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCleanCmd())
	rootCmd.AddCommand(newOpenCmd())
}

func newHTTPClient() *utils.UnidownHTTPClient {
	ua := userAgent
	if ua == "randomize" {
		ua = utils.GetRandomUserAgent()
	}
	return utils.NewHTTPClient(utils.HTTPClientConfig{
		Timeout:   utils.DefaultHTTPTimeout,
		ProxyURL:  proxyURL,
		UserAgent: ua,
	})
}

// mirrorEnabled decides whether github.com downloads go through the
// mirror. Only called on paths that actually hit the network, because
// auto-detection probes connectivity.
func mirrorEnabled() bool {
	switch appCfg.Mirror {
	case "on":
		return true
	case "off":
		return false
	}
	return platform.RestrictedNetwork()
}

func cookieCachePath() string {
	return filepath.Join(platform.ConfigDir(), "cookie_match_cache.json")
}

// newOrchestrator assembles the download stack. The installer doubles
// as the binary finder, so managed tools win over PATH lookups.
func newOrchestrator(resolver *cookies.Resolver) *engine.Orchestrator {
	client := newHTTPClient()
	inst := tools.NewInstaller(appCfg.ToolDir, tools.NewLocator(client, false), client, output.Styled)
	builder := engine.NewBuilder(resolver, inst, output.Styled)
	return engine.NewOrchestrator(builder, output.Styled, platform.BuildEnv(appCfg.ToolDir))
}
