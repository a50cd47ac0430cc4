package engine

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/unidown/unidown/internal/cookies"
	"github.com/unidown/unidown/internal/output"
	"github.com/unidown/unidown/internal/tools"
)

// Command is a fully resolved process invocation, ready to spawn.
type Command struct {
	Path string
	Args []string
}

// Redacted renders the command for logs with cookie material masked.
func (c *Command) Redacted() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Path)
	for i, arg := range c.Args {
		if i > 0 && c.Args[i-1] == "--header" && strings.HasPrefix(arg, "Cookie:") {
			arg = "Cookie: ***"
		}
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	if strings.ContainsAny(s, " \t\"") {
		return strconv.Quote(s)
	}
	return s
}

// CookieResolver turns a cookie file plus target URL into a header value.
type CookieResolver interface {
	Resolve(path, targetURL string, maxLen int) string
}

// BinaryFinder locates the executable for a managed tool.
type BinaryFinder interface {
	BinaryPath(tool tools.Tool) (string, error)
}

// Builder translates download requests into tool command lines.
type Builder struct {
	Resolver CookieResolver
	Tools    BinaryFinder
	Sink     output.Sink
	goos     string
}

func NewBuilder(resolver CookieResolver, finder BinaryFinder, sink output.Sink) *Builder {
	if sink == nil {
		sink = output.Discard
	}
	return &Builder{Resolver: resolver, Tools: finder, Sink: sink, goos: runtime.GOOS}
}

// Build normalizes the request and produces the process invocation for
// its engine. Warnings from normalization and cookie handling go to the
// sink; hard failures return wrapped sentinel errors.
func (b *Builder) Build(opts DownloadOptions) (*Command, error) {
	opts, warnings, err := opts.Normalize(b.goos)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		b.Sink(w, output.LevelWarning)
	}
	var cmd *Command
	switch opts.Engine {
	case EngineStream:
		cmd, err = b.buildStream(opts)
	default:
		cmd, err = b.buildYtdlp(opts)
	}
	if err != nil {
		return nil, err
	}
	log.Debug().Str("op", "engine/command").Msgf("Built command: %s", cmd.Redacted())
	return cmd, nil
}

func (b *Builder) buildYtdlp(opts DownloadOptions) (*Command, error) {
	ytPath, err := b.Tools.BinaryPath(tools.YtDlp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}
	args := []string{
		"-P", opts.OutputDir,
		"--merge-output-format", "mp4",
		"--retries", "10",
		"-f", "bv+ba/b",
	}
	if opts.Engine == EngineAria2 {
		if _, err := b.Tools.BinaryPath(tools.Aria2); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrToolUnavailable, err)
		}
		args = append(args,
			"--downloader", "aria2c",
			"--downloader-args", fmt.Sprintf("aria2c:-x %d -k 1M", opts.Threads),
		)
	}
	if ffPath, err := b.Tools.BinaryPath(tools.FFmpeg); err == nil {
		args = append(args, "--ffmpeg-location", ffPath)
	}
	switch {
	case opts.CookieSource.IsBrowser():
		args = append(args, "--cookies-from-browser", string(opts.CookieSource))
	case opts.CookieSource == CookieFile:
		args = append(args, "--cookies", opts.CookiePath)
	}
	args = append(args, opts.URL)
	return &Command{Path: ytPath, Args: args}, nil
}

func (b *Builder) buildStream(opts DownloadOptions) (*Command, error) {
	rePath, err := b.Tools.BinaryPath(tools.StreamRE)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}
	args := []string{
		opts.URL,
		"--save-dir", opts.OutputDir,
		"--thread-count", strconv.Itoa(opts.Threads),
		"--auto-select",
		"--no-log",
	}
	switch {
	case opts.CookieSource == CookieFile:
		header := ""
		if b.Resolver != nil {
			header = b.Resolver.Resolve(opts.CookiePath, opts.URL, cookies.DefaultMaxLength)
		}
		if header == "" {
			b.Sink("No cookies in the file match this URL, continuing without cookies", output.LevelInfo)
		} else {
			args = append(args, "--header", "Cookie: "+header)
		}
	case opts.CookieSource.IsBrowser():
		b.Sink("Browser cookies are not supported by the stream engine, continuing without cookies", output.LevelWarning)
	}
	return &Command{Path: rePath, Args: args}, nil
}
