package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/unidown/unidown/internal/utils"
)

var (
	// ErrNetwork wraps failures reaching the release host.
	ErrNetwork = errors.New("network unavailable")
	// ErrNoAsset means the latest release carries nothing for this platform.
	ErrNoAsset = errors.New("no matching release asset")
)

const defaultAPIBase = "https://api.github.com"

// MirrorPrefix is prepended to github.com download URLs on networks where
// GitHub is slow or unreachable.
const MirrorPrefix = "https://ghproxy.net/"

// Release is the subset of the GitHub release API response the locator
// cares about.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

type Asset struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"browser_download_url"`
}

// Locator resolves the download URL of each tool's latest build for the
// current platform.
type Locator struct {
	client  utils.HTTPDoer
	mirror  bool
	apiBase string
	goos    string
	goarch  string
}

func NewLocator(client utils.HTTPDoer, mirror bool) *Locator {
	return &Locator{
		client:  client,
		mirror:  mirror,
		apiBase: defaultAPIBase,
		goos:    runtime.GOOS,
		goarch:  runtime.GOARCH,
	}
}

// ResolveAssetURL returns the download URL for the tool's latest build.
// An empty URL with a nil error means the tool is not published for this
// platform and installation should be skipped with a warning.
func (l *Locator) ResolveAssetURL(ctx context.Context, tool Tool) (string, error) {
	src, ok := releaseSources[tool]
	if !ok {
		return "", fmt.Errorf("no release source for tool %q", tool)
	}
	if len(src.onlyOS) > 0 && !containsString(src.onlyOS, l.goos) {
		return "", nil
	}
	if url, ok := src.direct[l.goos]; ok {
		return l.mirrored(url), nil
	}
	release, err := l.latestRelease(ctx, src.repo)
	if err != nil {
		return "", err
	}
	url := selectAsset(release.Assets, l.goos, l.goarch, src)
	if url == "" {
		return "", fmt.Errorf("%w for %s (%s/%s, release %s)", ErrNoAsset, tool, l.goos, l.goarch, release.TagName)
	}
	log.Debug().Str("op", "tools/locator").Str("tool", string(tool)).Str("tag", release.TagName).Msg("Resolved release asset")
	return l.mirrored(url), nil
}

func (l *Locator) latestRelease(ctx context.Context, repo string) (*Release, error) {
	apiURL := fmt.Sprintf("%s/repos/%s/releases/latest", l.apiBase, repo)
	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating API request: %v", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release API request for %s failed with status code: %d", repo, resp.StatusCode)
	}
	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("error decoding API response: %v", err)
	}
	if len(release.Assets) == 0 {
		return nil, fmt.Errorf("no assets found in the latest release of %s", repo)
	}
	return &release, nil
}

func (l *Locator) mirrored(url string) string {
	if l.mirror && strings.HasPrefix(url, "https://github.com/") {
		return MirrorPrefix + url
	}
	return url
}

var ignoredAssets = []string{
	"license", "readme", "changelog", "checksums", ".sha256", ".sig", ".asc", ".txt", ".json",
}

// matchKeywords drives the name heuristics for one GOOS/GOARCH pair.
// osStrip lists substrings removed from the name before the os keywords
// are tested, so that "win" does not fire inside "darwin". excludeOS is
// only applied to names that carry no keyword for our own platform, which
// keeps "mac" from disqualifying a darwin asset that also matches it.
type matchKeywords struct {
	os          []string
	arch        []string
	osStrip     []string
	excludeOS   []string
	excludeArch []string
}

var platformKeywords = map[string]matchKeywords{
	"windowsamd64": {
		os:          []string{"windows", "win", ".exe"},
		arch:        []string{"x86_64", "x86-64", "amd64", "x64", "win64", "64bit"},
		osStrip:     []string{"darwin"},
		excludeOS:   []string{"linux", "darwin", "mac", "osx", "apple", "android", "freebsd"},
		excludeArch: []string{"arm64", "aarch64", "armv7", "armv6", "arm32", "i686", "i386", "win32", "32bit"},
	},
	"windowsarm64": {
		os:          []string{"windows", "win", ".exe"},
		arch:        []string{"arm64", "aarch64"},
		osStrip:     []string{"darwin"},
		excludeOS:   []string{"linux", "darwin", "mac", "osx", "apple", "android", "freebsd"},
		excludeArch: []string{"x86_64", "x86-64", "amd64", "x64", "i686", "i386", "win32", "32bit"},
	},
	"linuxamd64": {
		os:          []string{"linux", "gnu"},
		arch:        []string{"x86_64", "x86-64", "amd64", "x64", "64bit"},
		excludeOS:   []string{"windows", "win", ".exe", "darwin", "mac", "osx", "apple", "android", "freebsd"},
		excludeArch: []string{"arm64", "aarch64", "armv7", "armv6", "arm32", "i686", "i386", "32bit"},
	},
	"linuxarm64": {
		os:          []string{"linux", "gnu"},
		arch:        []string{"arm64", "aarch64"},
		excludeOS:   []string{"windows", "win", ".exe", "darwin", "mac", "osx", "apple", "android", "freebsd"},
		excludeArch: []string{"x86_64", "x86-64", "amd64", "x64", "i686", "i386", "32bit"},
	},
	"darwinamd64": {
		os:          []string{"darwin", "mac", "osx", "apple"},
		arch:        []string{"x86_64", "x86-64", "amd64", "x64", "64bit"},
		excludeOS:   []string{"windows", "win", ".exe", "linux", "android", "freebsd"},
		excludeArch: []string{"arm64", "aarch64", "armv7", "armv6", "arm32", "i686", "i386", "32bit"},
	},
	"darwinarm64": {
		os:          []string{"darwin", "mac", "osx", "apple"},
		arch:        []string{"arm64", "aarch64"},
		excludeOS:   []string{"windows", "win", ".exe", "linux", "android", "freebsd"},
		excludeArch: []string{"x86_64", "x86-64", "amd64", "x64", "i686", "i386", "32bit"},
	},
}

// selectAsset picks the asset for the given platform out of a release.
// Assets are considered in release order. A strict pass requires both an
// os and an arch keyword; a relaxed pass accepts either, which covers
// single-asset releases with names like "tool.exe". The empty string
// means nothing usable is published for this platform.
func selectAsset(assets []Asset, goos, goarch string, src releaseSource) string {
	keywords, ok := platformKeywords[goos+goarch]
	if !ok {
		return ""
	}
	type candidate struct {
		url     string
		hasOS   bool
		hasArch bool
	}
	var candidates []candidate
	for _, asset := range assets {
		name := strings.ToLower(asset.Name)
		if containsAny(name, ignoredAssets) || containsAny(name, src.reject) {
			continue
		}
		if !containsAll(name, src.require) {
			continue
		}
		if containsAny(name, keywords.excludeArch) {
			continue
		}
		stripped := name
		for _, s := range keywords.osStrip {
			stripped = strings.ReplaceAll(stripped, s, "")
		}
		hasOS := containsAny(stripped, keywords.os)
		if !hasOS && containsAny(name, keywords.excludeOS) {
			continue
		}
		candidates = append(candidates, candidate{
			url:     asset.DownloadURL,
			hasOS:   hasOS,
			hasArch: containsAny(name, keywords.arch),
		})
	}
	for _, c := range candidates {
		if c.hasOS && c.hasArch {
			return c.url
		}
	}
	for _, c := range candidates {
		if c.hasOS || c.hasArch {
			return c.url
		}
	}
	return ""
}

func containsAny(name string, subs []string) bool {
	for _, s := range subs {
		if strings.Contains(name, s) {
			return true
		}
	}
	return false
}

func containsAll(name string, subs []string) bool {
	for _, s := range subs {
		if !strings.Contains(name, s) {
			return false
		}
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
