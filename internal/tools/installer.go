package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog/log"

	"github.com/unidown/unidown/internal/output"
	"github.com/unidown/unidown/internal/utils"
)

// AssetResolver abstracts the release lookup so installs can be tested
// without the network.
type AssetResolver interface {
	ResolveAssetURL(ctx context.Context, tool Tool) (string, error)
}

// ToolStatus reports whether a managed tool is usable and from where.
type ToolStatus struct {
	Tool      Tool
	Installed bool
	Path      string
}

// Installer downloads tool binaries into a dedicated directory. Tools
// already present are never re-downloaded, so a fully installed setup
// touches the network zero times.
type Installer struct {
	Dir      string
	Locator  AssetResolver
	Client   utils.HTTPDoer
	Sink     output.Sink
	Progress func(tool Tool, done, total int64)
	goos     string
}

func NewInstaller(dir string, locator AssetResolver, client utils.HTTPDoer, sink output.Sink) *Installer {
	if sink == nil {
		sink = output.Discard
	}
	return &Installer{Dir: dir, Locator: locator, Client: client, Sink: sink, goos: runtime.GOOS}
}

// InstallPath returns where the managed copy of the tool lives.
func (i *Installer) InstallPath(tool Tool) string {
	return filepath.Join(i.Dir, tool.BinaryName(i.goos))
}

// Installed reports whether the managed copy of the tool exists.
func (i *Installer) Installed(tool Tool) bool {
	info, err := os.Stat(i.InstallPath(tool))
	return err == nil && !info.IsDir()
}

// Ensure installs the tool unless it is already present. A tool with no
// build for this platform is skipped with a warning so sibling installs
// still proceed.
func (i *Installer) Ensure(ctx context.Context, tool Tool) error {
	if i.Installed(tool) {
		log.Debug().Str("op", "tools/installer").Str("tool", string(tool)).Msg("Already installed, skipping")
		return nil
	}
	if err := os.MkdirAll(i.Dir, 0755); err != nil {
		return fmt.Errorf("error creating tool directory: %v", err)
	}
	url, err := i.Locator.ResolveAssetURL(ctx, tool)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", tool, err)
	}
	if url == "" {
		i.Sink(fmt.Sprintf("%s has no build for this platform, skipping (install it via your package manager)", tool), output.LevelWarning)
		return nil
	}
	i.Sink(fmt.Sprintf("Downloading %s", tool), output.LevelInfo)
	payload := filepath.Join(i.Dir, "."+string(tool)+".download")
	var progress progressFunc
	if i.Progress != nil {
		progress = func(done, total int64) { i.Progress(tool, done, total) }
	}
	if err := fetchFile(ctx, i.Client, url, payload, progress); err != nil {
		return fmt.Errorf("downloading %s: %w", tool, err)
	}
	if err := installBinary(payload, i.InstallPath(tool), i.goos); err != nil {
		os.Remove(payload)
		return fmt.Errorf("installing %s: %w", tool, err)
	}
	i.Sink(fmt.Sprintf("%s installed", tool), output.LevelSuccess)
	return nil
}

// EnsureAll installs every listed tool, continuing past per-tool failures
// and aggregating them. Cancellation stops the run immediately.
func (i *Installer) EnsureAll(ctx context.Context, list []Tool) error {
	var errs []error
	for _, tool := range list {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := i.Ensure(ctx, tool); err != nil {
			if ctx.Err() != nil {
				return err
			}
			i.Sink(fmt.Sprintf("Failed to install %s: %s", tool, err), output.LevelError)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Status reports usability for all managed tools, falling back to PATH
// for tools installed by other means.
func (i *Installer) Status() []ToolStatus {
	statuses := make([]ToolStatus, 0, len(All()))
	for _, tool := range All() {
		s := ToolStatus{Tool: tool, Path: i.InstallPath(tool)}
		s.Installed = i.Installed(tool)
		if !s.Installed {
			if p, err := exec.LookPath(tool.BinaryName(i.goos)); err == nil {
				s.Installed = true
				s.Path = p
			}
		}
		statuses = append(statuses, s)
	}
	return statuses
}

// BinaryPath resolves the executable to run for a tool: the managed copy
// when present, otherwise whatever PATH provides.
func (i *Installer) BinaryPath(tool Tool) (string, error) {
	if i.Installed(tool) {
		return i.InstallPath(tool), nil
	}
	if p, err := exec.LookPath(tool.BinaryName(i.goos)); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("%s is not installed (run 'unidown deps install')", tool)
}

// Clean removes staging debris left behind by interrupted downloads.
func (i *Installer) Clean() (int, error) {
	patterns := []string{"*.part", "*.download"}
	removed := 0
	for _, pat := range patterns {
		matches, err := filepath.Glob(filepath.Join(i.Dir, pat))
		if err != nil {
			return removed, err
		}
		for _, m := range matches {
			if err := os.RemoveAll(m); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}
