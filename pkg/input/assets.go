package input

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ListAssets returns the names of the regular, non-hidden files in dir
// whose name ends in one of exts (all files when exts is empty). A missing
// dir yields no files and no error.
func ListAssets(dir string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !entry.Type().IsRegular() {
			continue
		}
		if len(exts) > 0 && !slices.ContainsFunc(exts, func(ext string) bool {
			return strings.HasSuffix(name, ext)
		}) {
			continue
		}
		files = append(files, name)
	}

	return files, nil
}

// ResolveAssetPath maps a user-supplied name to a file path. Bare names are
// looked up in dir; anything containing a path separator is used as-is.
func ResolveAssetPath(dir, name string) string {
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		return name
	}
	return filepath.Join(dir, name)
}
