package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/unidown/unidown/internal/utils"
)

func namedAssets(names ...string) []Asset {
	assets := make([]Asset, len(names))
	for i, n := range names {
		assets[i] = Asset{Name: n, DownloadURL: "https://github.com/x/y/releases/download/v1/" + n}
	}
	return assets
}

func TestSelectAsset(t *testing.T) {
	triple := namedAssets("tool-win-x64.zip", "tool-linux-x64.tar.gz", "tool-mac-arm64.zip")
	tests := []struct {
		name   string
		assets []Asset
		goos   string
		goarch string
		src    releaseSource
		want   string // matched asset name, "" for no match
	}{
		{"windows amd64 from triple", triple, "windows", "amd64", releaseSource{}, "tool-win-x64.zip"},
		{"darwin arm64 from triple", triple, "darwin", "arm64", releaseSource{}, "tool-mac-arm64.zip"},
		{"linux amd64 from triple", triple, "linux", "amd64", releaseSource{}, "tool-linux-x64.tar.gz"},
		{"darwin amd64 has no build in triple", triple, "darwin", "amd64", releaseSource{}, ""},
		{
			"win keyword does not fire inside darwin",
			namedAssets("tool-darwin-x64.zip"),
			"windows", "amd64", releaseSource{}, "",
		},
		{
			"bare exe matches windows on relaxed pass",
			namedAssets("tool.exe"),
			"windows", "amd64", releaseSource{}, "tool.exe",
		},
		{
			"strict match wins over earlier relaxed match",
			namedAssets("tool-win.zip", "tool-win-x64.zip"),
			"windows", "amd64", releaseSource{}, "tool-win-x64.zip",
		},
		{
			"checksum files are ignored",
			namedAssets("checksums.txt", "tool-linux-amd64.tar.gz"),
			"linux", "amd64", releaseSource{}, "tool-linux-amd64.tar.gz",
		},
		{
			"require and reject narrow the candidates",
			namedAssets(
				"ffmpeg-n7.1-latest-linux64-gpl.tar.xz",
				"ffmpeg-master-latest-linux64-gpl-shared.tar.xz",
				"ffmpeg-master-latest-linux64-gpl.tar.xz",
				"ffmpeg-master-latest-linuxarm64-gpl.tar.xz",
			),
			"linux", "amd64",
			releaseSource{require: []string{"master-latest"}, reject: []string{"shared"}},
			"ffmpeg-master-latest-linux64-gpl.tar.xz",
		},
		{
			"32bit build is excluded",
			namedAssets("aria2-1.37.0-win-32bit-build1.zip", "aria2-1.37.0-win-64bit-build1.zip"),
			"windows", "amd64", releaseSource{}, "aria2-1.37.0-win-64bit-build1.zip",
		},
		{
			"source tarball without platform markers is skipped",
			namedAssets("aria2-1.37.0.tar.xz"),
			"windows", "amd64", releaseSource{}, "",
		},
		{
			"osx alias matches darwin",
			namedAssets("N_m3u8DL-RE_Beta_win-x64.zip", "N_m3u8DL-RE_Beta_osx-arm64.tar.gz"),
			"darwin", "arm64", releaseSource{}, "N_m3u8DL-RE_Beta_osx-arm64.tar.gz",
		},
		{
			"aarch64 alias matches arm64",
			namedAssets("tool-linux-aarch64.tar.gz"),
			"linux", "arm64", releaseSource{}, "tool-linux-aarch64.tar.gz",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectAsset(tt.assets, tt.goos, tt.goarch, tt.src)
			want := ""
			if tt.want != "" {
				want = "https://github.com/x/y/releases/download/v1/" + tt.want
			}
			if got != want {
				t.Errorf("selectAsset(%s/%s) = %q, want %q", tt.goos, tt.goarch, got, want)
			}
		})
	}
}

func testClient(t *testing.T) utils.HTTPDoer {
	t.Helper()
	return utils.NewHTTPClient(utils.HTTPClientConfig{Timeout: 5 * time.Second})
}

func TestResolveAssetURLDirect(t *testing.T) {
	l := NewLocator(testClient(t), false)
	l.goos, l.goarch = "linux", "amd64"
	url, err := l.ResolveAssetURL(context.Background(), YtDlp)
	if err != nil {
		t.Fatalf("ResolveAssetURL: %v", err)
	}
	want := "https://github.com/yt-dlp/yt-dlp/releases/latest/download/yt-dlp"
	if url != want {
		t.Errorf("url = %q, want %q", url, want)
	}

	l.mirror = true
	url, err = l.ResolveAssetURL(context.Background(), YtDlp)
	if err != nil {
		t.Fatalf("ResolveAssetURL with mirror: %v", err)
	}
	if url != MirrorPrefix+want {
		t.Errorf("mirrored url = %q, want prefix %q", url, MirrorPrefix)
	}
}

func TestResolveAssetURLUnpublishedPlatform(t *testing.T) {
	l := NewLocator(testClient(t), false)
	l.goos, l.goarch = "linux", "amd64"
	url, err := l.ResolveAssetURL(context.Background(), Aria2)
	if err != nil {
		t.Fatalf("ResolveAssetURL: %v", err)
	}
	if url != "" {
		t.Errorf("url = %q, want empty for platform without builds", url)
	}
}

func TestResolveAssetURLFromAPI(t *testing.T) {
	var gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/nilaoda/N_m3u8DL-RE/releases/latest" {
			http.NotFound(w, r)
			return
		}
		gotAccept = r.Header.Get("Accept")
		json.NewEncoder(w).Encode(Release{
			TagName: "v0.3.0-beta",
			Assets: []Asset{
				{Name: "N_m3u8DL-RE_v0.3.0-beta_win-x64.zip", DownloadURL: "https://github.com/d/l/win"},
				{Name: "N_m3u8DL-RE_v0.3.0-beta_linux-x64.tar.gz", DownloadURL: "https://github.com/d/l/linux"},
			},
		})
	}))
	defer server.Close()

	l := NewLocator(testClient(t), false)
	l.apiBase = server.URL
	l.goos, l.goarch = "linux", "amd64"
	url, err := l.ResolveAssetURL(context.Background(), StreamRE)
	if err != nil {
		t.Fatalf("ResolveAssetURL: %v", err)
	}
	if url != "https://github.com/d/l/linux" {
		t.Errorf("url = %q, want linux asset", url)
	}
	if !strings.Contains(gotAccept, "application/vnd.github") {
		t.Errorf("Accept header = %q", gotAccept)
	}
}

func TestResolveAssetURLNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Release{
			TagName: "v1", Assets: namedAssets("tool-mac-arm64.zip"),
		})
	}))
	defer server.Close()

	l := NewLocator(testClient(t), false)
	l.apiBase = server.URL
	l.goos, l.goarch = "darwin", "amd64"
	_, err := l.ResolveAssetURL(context.Background(), StreamRE)
	if !errors.Is(err, ErrNoAsset) {
		t.Errorf("err = %v, want ErrNoAsset", err)
	}
}

func TestResolveAssetURLNetworkDown(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	l := NewLocator(testClient(t), false)
	l.apiBase = base
	l.goos, l.goarch = "linux", "amd64"
	_, err := l.ResolveAssetURL(context.Background(), StreamRE)
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("err = %v, want ErrNetwork", err)
	}
}
