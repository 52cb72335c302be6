package ingest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadFile reads a description from disk. HTML files are converted the same
// way fetched pages are; anything else is treated as plain text.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user
	if err != nil {
		return "", fmt.Errorf("read description: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		profile, err := NewFetcher(nil).Convert(data)
		if err != nil {
			return "", fmt.Errorf("convert %s: %w", path, err)
		}
		return profile.Description(DefaultMaxChars), nil
	default:
		return truncate(string(bytes.TrimSpace(data)), DefaultMaxChars), nil
	}
}
