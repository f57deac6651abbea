package pipeline

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/backmassage/compatmux/internal/naming"
)

// Source file extensions (lowercase, with leading dot).
var sourceExtensions = map[string]bool{
	".mkv": true,
	".mp4": true,
}

// Discover collects source files under inputDir, sorted lexicographically
// for deterministic processing order. Without recursive only inputDir
// itself is listed. Files this program generated are skipped, and so are
// directories named after a sibling source (leftover temp directories).
func Discover(inputDir string, recursive bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == inputDir {
				return nil
			}
			if !recursive || isTempDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if sourceExtensions[ext] && !naming.IsGenerated(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// isTempDir reports whether dir sits next to a source of the same stem.
func isTempDir(dir string) bool {
	for ext := range sourceExtensions {
		if _, err := os.Stat(dir + ext); err == nil {
			return true
		}
	}
	return false
}
