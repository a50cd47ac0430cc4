package cookies

import (
	"container/list"
	"encoding/json"
	"os"
	"path/filepath"
)

type cacheKey struct {
	Path   string `json:"path"`
	MTime  int64  `json:"mtime"`
	Host   string `json:"host"`
	MaxLen int    `json:"max_len"`
}

type cacheEntry struct {
	cacheKey
	Header string `json:"header"`
}

// lruCache is a small bounded map with least-recently-used eviction. The
// Resolver's mutex guards all access; the cache itself is not locked.
type lruCache struct {
	cap   int
	order *list.List
	items map[cacheKey]*list.Element
}

func newLRU(capacity int) *lruCache {
	if capacity < 1 {
		capacity = 1
	}
	return &lruCache{
		cap:   capacity,
		order: list.New(),
		items: make(map[cacheKey]*list.Element),
	}
}

func (c *lruCache) get(key cacheKey) (string, bool) {
	el, ok := c.items[key]
	if !ok {
		return "", false
	}
	c.order.MoveToFront(el)
	return el.Value.(cacheEntry).Header, true
}

func (c *lruCache) put(key cacheKey, header string) {
	if el, ok := c.items[key]; ok {
		el.Value = cacheEntry{cacheKey: key, Header: header}
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(cacheEntry{cacheKey: key, Header: header})
	for c.order.Len() > c.cap {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(cacheEntry).cacheKey)
	}
}

func (c *lruCache) len() int {
	return c.order.Len()
}

// entries returns the cache contents oldest-first, so replaying them in
// order reconstructs the same recency ranking.
func (c *lruCache) entries() []cacheEntry {
	out := make([]cacheEntry, 0, c.order.Len())
	for el := c.order.Back(); el != nil; el = el.Prev() {
		out = append(out, el.Value.(cacheEntry))
	}
	return out
}

// SaveCache persists the current match cache as JSON. Failing to persist
// is never fatal; the cache is a pure optimization.
func (r *Resolver) SaveCache(path string) error {
	r.mu.Lock()
	entries := r.cache.entries()
	r.mu.Unlock()
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadCache restores a previously saved match cache. Entries whose source
// file has changed since the save are naturally skipped later, because
// the stored mtime no longer matches.
func (r *Resolver) LoadCache(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	var entries []cacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		r.cache.put(e.cacheKey, e.Header)
	}
	return nil
}
