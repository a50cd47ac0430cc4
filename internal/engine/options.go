// Package engine builds and supervises the external downloader
// processes behind every download.
package engine

import (
	"fmt"
	"strings"
)

// Engine selects which external tool performs the download.
type Engine string

const (
	// EngineNative runs yt-dlp with its built-in HTTP downloader.
	EngineNative Engine = "native"
	// EngineAria2 runs yt-dlp handing segment fetches to aria2c.
	EngineAria2 Engine = "aria2"
	// EngineStream runs N_m3u8DL-RE directly against an HLS/DASH URL.
	EngineStream Engine = "re"
)

func ParseEngine(name string) (Engine, error) {
	switch Engine(strings.ToLower(name)) {
	case EngineNative:
		return EngineNative, nil
	case EngineAria2:
		return EngineAria2, nil
	case EngineStream:
		return EngineStream, nil
	}
	return "", fmt.Errorf("%w: unknown engine %q (valid: native, aria2, re)", ErrInvalidInput, name)
}

// CookieSource says where Cookie header material comes from.
type CookieSource string

const (
	CookieNone    CookieSource = "none"
	CookieFile    CookieSource = "file"
	CookieChrome  CookieSource = "chrome"
	CookieEdge    CookieSource = "edge"
	CookieFirefox CookieSource = "firefox"
	CookieSafari  CookieSource = "safari"
)

func ParseCookieSource(name string) (CookieSource, error) {
	switch CookieSource(strings.ToLower(name)) {
	case CookieNone, CookieFile, CookieChrome, CookieEdge, CookieFirefox, CookieSafari:
		return CookieSource(strings.ToLower(name)), nil
	}
	return "", fmt.Errorf("%w: unknown cookie source %q (valid: none, file, chrome, edge, firefox, safari)", ErrInvalidInput, name)
}

// IsBrowser reports whether the source reads a live browser profile.
func (s CookieSource) IsBrowser() bool {
	switch s {
	case CookieChrome, CookieEdge, CookieFirefox, CookieSafari:
		return true
	}
	return false
}

// aria2c rejects split counts above 16, so requests are capped there.
const maxAria2Threads = 16

// DownloadOptions describes one download request.
type DownloadOptions struct {
	URL          string
	OutputDir    string
	Engine       Engine
	Threads      int
	CookieSource CookieSource
	CookiePath   string
}

// Normalize validates the request and fills defaults, returning the
// cleaned copy plus human-readable warnings for fields it had to adjust.
// Platform-dependent rules use goos so they stay testable off-platform.
func (o DownloadOptions) Normalize(goos string) (DownloadOptions, []string, error) {
	var warnings []string

	o.URL = strings.TrimSpace(o.URL)
	if o.URL == "" {
		return o, nil, fmt.Errorf("%w: empty URL", ErrInvalidInput)
	}
	if o.OutputDir == "" {
		return o, nil, fmt.Errorf("%w: output directory is required", ErrInvalidInput)
	}
	if o.Engine == "" {
		o.Engine = EngineNative
	} else {
		engine, err := ParseEngine(string(o.Engine))
		if err != nil {
			return o, nil, err
		}
		o.Engine = engine
	}
	if o.Threads < 1 {
		return o, nil, fmt.Errorf("%w: thread count must be at least 1, got %d", ErrInvalidInput, o.Threads)
	}
	if o.Engine == EngineAria2 && o.Threads > maxAria2Threads {
		warnings = append(warnings, fmt.Sprintf("aria2c supports at most %d connections, lowering threads from %d", maxAria2Threads, o.Threads))
		o.Threads = maxAria2Threads
	}
	if o.CookieSource == "" {
		o.CookieSource = CookieNone
	} else {
		source, err := ParseCookieSource(string(o.CookieSource))
		if err != nil {
			return o, nil, err
		}
		o.CookieSource = source
	}
	if o.CookieSource == CookieFile && o.CookiePath == "" {
		return o, nil, fmt.Errorf("%w: cookie source is file but no cookie file is set", ErrInvalidInput)
	}
	if o.CookieSource == CookieSafari && goos != "darwin" {
		warnings = append(warnings, "Safari cookies are only available on macOS, continuing without cookies")
		o.CookieSource = CookieNone
	}
	if o.CookieSource == CookieEdge && goos != "windows" {
		warnings = append(warnings, "Edge cookies are only available on Windows, continuing without cookies")
		o.CookieSource = CookieNone
	}
	return o, warnings, nil
}
