// Package cookies turns Netscape-format cookie export files into Cookie
// header strings for tools that cannot read browser stores themselves.
package cookies

import (
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// DefaultMaxLength caps the generated header. Longer headers get rejected
// by several CDNs, so the tail is dropped.
const DefaultMaxLength = 6000

// DefaultCacheSize bounds the number of cached (file, host) matches.
const DefaultCacheSize = 64

// Resolver matches cookie file entries against target hosts. Results are
// cached per (path, mtime, host, maxLen), so repeated downloads from the
// same site do not re-read the file until it changes on disk.
type Resolver struct {
	mu       sync.Mutex
	cache    *lruCache
	readFile func(string) ([]byte, error)
}

func NewResolver() *Resolver {
	return &Resolver{
		cache:    newLRU(DefaultCacheSize),
		readFile: os.ReadFile,
	}
}

// Resolve returns the "name=value; name2=value2" header for cookies whose
// domain matches the target URL's host. It never fails: a missing file,
// an unparsable URL or an empty match all yield "".
//
// Domain matching is substring-based in both directions, mirroring what
// browser cookie exports tolerate in practice: ".example.com" matches
// "sub.example.com" and vice versa. The imprecision (for example
// "example.com" matching "notexample.com") is accepted.
func (r *Resolver) Resolve(path, targetURL string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	host := hostOf(targetURL)
	if path == "" || host == "" {
		return ""
	}
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	key := cacheKey{Path: path, MTime: info.ModTime().UnixNano(), Host: host, MaxLen: maxLen}

	r.mu.Lock()
	if header, ok := r.cache.get(key); ok {
		r.mu.Unlock()
		log.Debug().Str("op", "cookies/resolver").Str("host", host).Msg("Cookie cache hit")
		return header
	}
	r.mu.Unlock()

	data, err := r.readFile(path)
	if err != nil {
		return ""
	}
	header := matchHeader(data, host, maxLen)

	r.mu.Lock()
	r.cache.put(key, header)
	r.mu.Unlock()
	log.Debug().Str("op", "cookies/resolver").Str("host", host).Int("len", len(header)).Msg("Cookie file matched")
	return header
}

func hostOf(targetURL string) string {
	u, err := url.Parse(targetURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// matchHeader scans a Netscape cookie file. Lines are tab-separated with
// at least 7 fields: domain, flag, path, secure, expiry, name, value.
func matchHeader(data []byte, host string, maxLen int) string {
	var parts []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 7 {
			continue
		}
		domain := fields[0]
		if domain == "" {
			continue
		}
		if strings.Contains(host, strings.Trim(domain, ".")) || strings.Contains(domain, host) {
			parts = append(parts, fields[5]+"="+fields[6])
		}
	}
	header := strings.Join(parts, "; ")
	if len(header) > maxLen {
		header = header[:maxLen]
	}
	return header
}
