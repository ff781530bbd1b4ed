package datasets

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// isHidden reports dot-prefixed names.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// matchesExt reports whether name ends with one of exts (case-insensitive).
// An empty exts accepts every name.
func matchesExt(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// entryMode resolves the mode of a directory entry, following symlinks.
func entryMode(dir string, e fs.DirEntry) (fs.FileMode, error) {
	if e.Type()&fs.ModeSymlink == 0 {
		return e.Type(), nil
	}
	info, err := os.Stat(filepath.Join(dir, e.Name()))
	if err != nil {
		return 0, err
	}
	return info.Mode(), nil
}

// listDir returns the visible entries of dir matching want, in lexical order.
func listDir(dir string, want func(fs.FileMode) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if isHidden(e.Name()) {
			continue
		}
		mode, err := entryMode(dir, e)
		if err != nil {
			// Dangling symlink.
			continue
		}
		if want(mode) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func isDirMode(m fs.FileMode) bool  { return m.IsDir() }
func isFileMode(m fs.FileMode) bool { return m.IsRegular() }
