package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/unidown/unidown/internal/platform"
)

// Config holds the persisted settings. Every key can also be supplied
// through the environment as UNIDOWN_<KEY>.
type Config struct {
	DownloadDir  string `mapstructure:"download_dir" yaml:"download_dir"`
	ToolDir      string `mapstructure:"tool_dir" yaml:"tool_dir"`
	Engine       string `mapstructure:"engine" yaml:"engine"`
	Threads      int    `mapstructure:"threads" yaml:"threads"`
	CookieSource string `mapstructure:"cookie_source" yaml:"cookie_source"`
	CookiePath   string `mapstructure:"cookie_path" yaml:"cookie_path"`
	Mirror       string `mapstructure:"mirror" yaml:"mirror"`
	Lang         string `mapstructure:"lang" yaml:"lang"`
	Theme        string `mapstructure:"theme" yaml:"theme"`
}

var (
	validEngines = []string{"native", "aria2", "re"}
	validSources = []string{"none", "file", "chrome", "edge", "firefox", "safari"}
	validMirrors = []string{"auto", "on", "off"}
	validThemes  = []string{"dark", "light"}
	validLangs   = []string{"en", "zh"}
)

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() string {
	return filepath.Join(platform.ConfigDir(), "config.yaml")
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist. An empty path means DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	v.SetDefault("download_dir", platform.DefaultDownloadDir())
	v.SetDefault("tool_dir", platform.DefaultToolDir())
	v.SetDefault("engine", "native")
	v.SetDefault("threads", 8)
	v.SetDefault("cookie_source", "none")
	v.SetDefault("cookie_path", "")
	v.SetDefault("mirror", "auto")
	v.SetDefault("lang", "en")
	v.SetDefault("theme", "dark")

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("UNIDOWN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config as YAML, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Set updates a single key from its string form. The receiver is left
// untouched when the new value fails validation.
func (c *Config) Set(key, value string) error {
	next := *c
	switch key {
	case "download_dir":
		next.DownloadDir = value
	case "tool_dir":
		next.ToolDir = value
	case "engine":
		next.Engine = value
	case "threads":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("threads must be a non-negative integer, got %q", value)
		}
		next.Threads = n
	case "cookie_source":
		next.CookieSource = value
	case "cookie_path":
		next.CookiePath = value
	case "mirror":
		next.Mirror = value
	case "lang":
		next.Lang = value
	case "theme":
		next.Theme = value
	default:
		return fmt.Errorf("unknown config key %q (valid keys: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := next.validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Keys lists the settable config keys in display order.
func Keys() []string {
	return []string{
		"download_dir", "tool_dir", "engine", "threads",
		"cookie_source", "cookie_path", "mirror", "lang", "theme",
	}
}

// Value returns the current value of a key as a string, for display.
func (c *Config) Value(key string) string {
	switch key {
	case "download_dir":
		return c.DownloadDir
	case "tool_dir":
		return c.ToolDir
	case "engine":
		return c.Engine
	case "threads":
		return strconv.Itoa(c.Threads)
	case "cookie_source":
		return c.CookieSource
	case "cookie_path":
		return c.CookiePath
	case "mirror":
		return c.Mirror
	case "lang":
		return c.Lang
	case "theme":
		return c.Theme
	}
	return ""
}

// EffectiveThreads resolves threads=0 to an automatic core-based value.
func (c *Config) EffectiveThreads() int {
	if c.Threads > 0 {
		return c.Threads
	}
	return platform.DefaultThreads()
}

func (c *Config) validate() error {
	if !contains(validEngines, c.Engine) {
		return fmt.Errorf("invalid engine %q (valid: %s)", c.Engine, strings.Join(validEngines, ", "))
	}
	if !contains(validSources, c.CookieSource) {
		return fmt.Errorf("invalid cookie_source %q (valid: %s)", c.CookieSource, strings.Join(validSources, ", "))
	}
	if !contains(validMirrors, c.Mirror) {
		return fmt.Errorf("invalid mirror %q (valid: %s)", c.Mirror, strings.Join(validMirrors, ", "))
	}
	if !contains(validThemes, c.Theme) {
		return fmt.Errorf("invalid theme %q (valid: %s)", c.Theme, strings.Join(validThemes, ", "))
	}
	if !contains(validLangs, c.Lang) {
		return fmt.Errorf("invalid lang %q (valid: %s)", c.Lang, strings.Join(validLangs, ", "))
	}
	if c.Threads < 0 {
		return fmt.Errorf("threads must be non-negative, got %d", c.Threads)
	}
	if c.CookieSource == "file" && c.CookiePath == "" {
		return fmt.Errorf("cookie_source is %q but cookie_path is empty", c.CookieSource)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
