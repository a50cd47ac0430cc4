package cookies

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestLRUEviction(t *testing.T) {
	c := newLRU(3)
	for i := 0; i < 4; i++ {
		c.put(cacheKey{Host: fmt.Sprintf("h%d", i)}, "v")
	}
	if c.len() != 3 {
		t.Fatalf("len = %d, want 3", c.len())
	}
	if _, ok := c.get(cacheKey{Host: "h0"}); ok {
		t.Error("oldest entry h0 survived eviction")
	}
	for i := 1; i < 4; i++ {
		if _, ok := c.get(cacheKey{Host: fmt.Sprintf("h%d", i)}); !ok {
			t.Errorf("entry h%d missing", i)
		}
	}
}

func TestLRUGetPromotes(t *testing.T) {
	c := newLRU(2)
	c.put(cacheKey{Host: "a"}, "1")
	c.put(cacheKey{Host: "b"}, "2")
	if _, ok := c.get(cacheKey{Host: "a"}); !ok {
		t.Fatal("entry a missing before promotion")
	}
	c.put(cacheKey{Host: "c"}, "3")
	if _, ok := c.get(cacheKey{Host: "a"}); !ok {
		t.Error("recently used entry a was evicted")
	}
	if _, ok := c.get(cacheKey{Host: "b"}); ok {
		t.Error("least recently used entry b survived")
	}
}

func TestLRUPutUpdates(t *testing.T) {
	c := newLRU(2)
	c.put(cacheKey{Host: "a"}, "old")
	c.put(cacheKey{Host: "a"}, "new")
	if c.len() != 1 {
		t.Fatalf("len = %d after duplicate put, want 1", c.len())
	}
	if v, _ := c.get(cacheKey{Host: "a"}); v != "new" {
		t.Errorf("value = %q, want %q", v, "new")
	}
}

func TestCachePersistence(t *testing.T) {
	cookiePath := writeCookieFile(t, cookieLine(".example.com", "sid", "abc123"))

	r := NewResolver()
	want := r.Resolve(cookiePath, "https://example.com", DefaultMaxLength)
	if want == "" {
		t.Fatal("fixture resolve returned empty header")
	}

	cacheFile := filepath.Join(t.TempDir(), "state", "cookie_match_cache.json")
	if err := r.SaveCache(cacheFile); err != nil {
		t.Fatalf("SaveCache: %v", err)
	}
	if _, err := os.Stat(cacheFile); err != nil {
		t.Fatalf("cache file missing: %v", err)
	}

	reads := 0
	restored := NewResolver()
	restored.readFile = func(name string) ([]byte, error) {
		reads++
		return os.ReadFile(name)
	}
	if err := restored.LoadCache(cacheFile); err != nil {
		t.Fatalf("LoadCache: %v", err)
	}
	if got := restored.Resolve(cookiePath, "https://example.com", DefaultMaxLength); got != want {
		t.Errorf("restored resolve = %q, want %q", got, want)
	}
	if reads != 0 {
		t.Errorf("restored resolver read the file %d times, want 0", reads)
	}
}

func TestLoadCacheMissingFile(t *testing.T) {
	r := NewResolver()
	if err := r.LoadCache(filepath.Join(t.TempDir(), "absent.json")); err != nil {
		t.Errorf("LoadCache(missing) = %v, want nil", err)
	}
}
