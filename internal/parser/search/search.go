// Package search recursively discovers candidate logger files under a
// directory tree, grounded on the teacher's trawl recursion shape but
// walking the local filesystem directly rather than a TileDB VFS (no
// object-store ingestion source appears in this pipeline's inputs).
package search

import (
	"os"
	"path/filepath"
)

// defaultPatterns covers every extension the parser registry recognizes
// (§4.1): csv, xyz, txt, geojson, and the wibl/.wibl.N family.
var defaultPatterns = []string{"*.csv", "*.xyz", "*.txt", "*.geojson", "*.wibl", "*.wibl.*"}

// trawl recurses dir, collecting files whose basename matches any of
// patterns.
func trawl(dir string, patterns []string, items []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return items, err
	}

	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			items, err = trawl(full, patterns, items)
			if err != nil {
				return items, err
			}
			continue
		}
		for _, pattern := range patterns {
			match, err := filepath.Match(pattern, entry.Name())
			if err != nil {
				return items, err
			}
			if match {
				items = append(items, full)
				break
			}
		}
	}

	return items, nil
}

// Find recursively searches root for files matching the supported logger
// extensions. An empty patterns slice uses defaultPatterns.
func Find(root string, patterns ...string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = defaultPatterns
	}
	return trawl(root, patterns, make([]string, 0))
}
