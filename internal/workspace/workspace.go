// Package workspace discovers the source files a sync pass covers. It is
// the CLI analog of "open buffers": a walk over the workspace tree
// filtered by extension.
package workspace

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".jj":          true,
	".hg":          true,
	".svn":         true,
	".t2n":         true,
	"node_modules": true,
	"vendor":       true,
}

// Skipped reports whether a directory name is excluded from scans and
// watches.
func Skipped(name string) bool {
	return skipDirs[name]
}

// Scan walks root and returns the files whose extension is in
// extensions, in walk order.
func Scan(root string, extensions []string) ([]string, error) {
	extSet := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		extSet[strings.ToLower(ext)] = true
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if extSet[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	return files, nil
}
