package batch

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExtensions are the image formats that keep 16-bit samples.
var DefaultExtensions = []string{".tif", ".tiff", ".png"}

// DefaultSuffix is appended to input names to build output names.
const DefaultSuffix = "_adjusted"

// A Scanner finds input images under a set of directories.
type Scanner struct {
	// Extensions to accept, compared case-insensitively.
	Extensions []string
	// Files whose name (without extension) ends with Suffix are previous
	// outputs and are skipped.
	Suffix string
}

// Scan walks every root recursively and returns the absolute paths of the
// matching files, sorted and without duplicates. A root may also be a
// single file.
func (s Scanner) Scan(roots ...string) ([]string, error) {
	seen := make(map[string]bool)
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !s.accept(path) {
				return nil
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			seen[abs] = true
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

func (s Scanner) accept(path string) bool {
	ext := filepath.Ext(path)
	if s.Suffix != "" && strings.HasSuffix(strings.TrimSuffix(path, ext), s.Suffix) {
		return false
	}
	exts := s.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// OutputName derives the output path of an input image: the suffix is
// inserted before the extension, e.g. "cells.tif" becomes
// "cells_adjusted.tif".
func OutputName(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

// exists reports whether path names an existing file.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
