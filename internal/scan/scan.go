// Package scan finds image files in a directory.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"imagesaid/internal/common/fsutil"
)

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".avif": true,
	".gif": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// IsImage reports whether name has a known image extension (case-insensitive).
func IsImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// Images scans dir for image files and returns their absolute paths, sorted.
// Hidden files are skipped. With recursive set, subdirectories are walked too
// (hidden directories excluded).
func Images(dir string, recursive bool) ([]string, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	var out []string
	if !recursive {
		entries, err := os.ReadDir(abs)
		if err != nil {
			return nil, fmt.Errorf("read dir: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !IsImage(e.Name()) {
				continue
			}
			out = append(out, filepath.Join(abs, e.Name()))
		}
		return out, nil
	}
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		hidden := strings.HasPrefix(d.Name(), ".") && p != abs
		if d.IsDir() {
			if hidden {
				return filepath.SkipDir
			}
			return nil
		}
		if !hidden && IsImage(d.Name()) {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk dir: %w", err)
	}
	sort.Strings(out)
	return out, nil
}
