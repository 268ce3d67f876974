// Package images lists the background images shown behind the stopwatch.
package images

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extensions are the file suffixes treated as images (lower case).
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}

// List returns the image files directly inside dir, sorted by name, as
// paths joined with dir. Subdirectories and other files are skipped.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	var ids []string

	for _, e := range entries {
		if !e.Type().IsRegular() || !isImage(e.Name()) {
			continue
		}

		ids = append(ids, filepath.Join(dir, e.Name()))
	}

	sort.Strings(ids)

	return ids, nil
}

func isImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range Extensions {
		if ext == want {
			return true
		}
	}

	return false
}
