package utils

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DownloadEntry is one row of a batch list file. Engine is optional and
// falls back to the configured default when empty.
type DownloadEntry struct {
	URL    string `yaml:"link"`
	Engine string `yaml:"engine,omitempty"`
}

// ReadDownloadList parses a YAML batch file. Entries without a link are
// dropped; the skipped count is returned so callers can warn about them.
func ReadDownloadList(path string) ([]DownloadEntry, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("error reading batch file: %w", err)
	}
	var raw []DownloadEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("error parsing batch file: %w", err)
	}
	entries := make([]DownloadEntry, 0, len(raw))
	skipped := 0
	for _, entry := range raw {
		if entry.URL == "" {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}
	return entries, skipped, nil
}
