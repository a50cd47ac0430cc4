// Package tools locates, downloads and installs the external binaries
// the download engines shell out to.
package tools

import (
	"fmt"
	"strings"
)

// Tool identifies a managed external binary by its canonical name.
type Tool string

const (
	YtDlp    Tool = "yt-dlp"
	FFmpeg   Tool = "ffmpeg"
	Aria2    Tool = "aria2c"
	StreamRE Tool = "N_m3u8DL-RE"
)

// All returns the managed tools in install order.
func All() []Tool {
	return []Tool{YtDlp, FFmpeg, Aria2, StreamRE}
}

// Parse resolves a user-supplied tool name, case-insensitively.
func Parse(name string) (Tool, error) {
	for _, t := range All() {
		if strings.EqualFold(name, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tool %q (valid: yt-dlp, ffmpeg, aria2c, N_m3u8DL-RE)", name)
}

// BinaryName returns the on-disk executable name for the given GOOS.
func (t Tool) BinaryName(goos string) string {
	if goos == "windows" {
		return string(t) + ".exe"
	}
	return string(t)
}

// releaseSource describes where a tool's builds are published and how to
// narrow the release assets down to one per platform.
type releaseSource struct {
	repo    string            // GitHub owner/name, scanned via the releases API
	direct  map[string]string // GOOS to fixed download URL, bypasses the API
	require []string          // asset name must contain all of these
	reject  []string          // asset name must contain none of these
	onlyOS  []string          // platforms the tool is published for; empty means all
}

// yt-dlp publishes one stable asset name per platform, so the latest
// release redirect is enough and no API call is needed. ffmpeg on macOS
// comes from evermeet.cx because the BtbN builds do not cover darwin.
// aria2 only ships official binaries for Windows; other platforms get it
// from their package manager.
var releaseSources = map[Tool]releaseSource{
	YtDlp: {
		direct: map[string]string{
			"windows": "https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp.exe",
			"darwin":  "https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp_macos",
			"linux":   "https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp",
		},
	},
	FFmpeg: {
		repo:    "BtbN/FFmpeg-Builds",
		require: []string{"master-latest"},
		reject:  []string{"shared"},
		direct: map[string]string{
			"darwin": "https://evermeet.cx/ffmpeg/getrelease/zip",
		},
	},
	Aria2: {
		repo:   "aria2/aria2",
		onlyOS: []string{"windows"},
	},
	StreamRE: {
		repo: "nilaoda/N_m3u8DL-RE",
	},
}
