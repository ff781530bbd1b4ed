package datasets

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/Noofbiz/cliploader/cliperr"
)

// DefaultExtensions are the clip file extensions indexed by default.
var DefaultExtensions = []string{".npy"}

// ClipEntry is one indexed clip.
type ClipEntry struct {
	Path  string
	Label int
}

// ClipIndex is the flat list of clips under a root directory laid out as
// root/<class>/<clip>. Classes are numbered in directory listing order; the
// index is read-only after BuildClipIndex returns.
type ClipIndex struct {
	Root       string
	classNames []string
	entries    []ClipEntry
	counts     []int
	weights    []float64
}

// BuildClipIndex scans root. Hidden (dot-prefixed) directories and files are
// skipped. When exts is non-empty only files with those extensions are
// indexed. Classes with no clips are kept with weight 0 so class numbering
// stays stable.
func BuildClipIndex(root string, exts ...string) (*ClipIndex, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, cliperr.Wrap(cliperr.NotFound, "build clip index", root, err)
	}
	if !info.IsDir() {
		return nil, cliperr.NotFoundf("build clip index", root, "not a directory")
	}

	classes, err := listDir(root, isDirMode)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to list classes in %s", root)
	}

	idx := &ClipIndex{
		Root:       root,
		classNames: classes,
		counts:     make([]int, len(classes)),
		weights:    make([]float64, len(classes)),
	}
	for label, class := range classes {
		dir := filepath.Join(root, class)
		files, err := listDir(dir, isFileMode)
		if err != nil {
			return nil, errors.WithMessagef(err, "failed to list clips of class %q", class)
		}
		for _, name := range files {
			if !matchesExt(name, exts) {
				continue
			}
			idx.entries = append(idx.entries, ClipEntry{Path: filepath.Join(dir, name), Label: label})
			idx.counts[label]++
		}
		if n := idx.counts[label]; n > 0 {
			idx.weights[label] = 1 / float64(n)
		}
	}
	return idx, nil
}

// Len returns the number of clips.
func (x *ClipIndex) Len() int { return len(x.entries) }

// NumClasses returns K.
func (x *ClipIndex) NumClasses() int { return len(x.classNames) }

// ClassNames returns the class names ordered by class index.
func (x *ClipIndex) ClassNames() []string { return append([]string(nil), x.classNames...) }

// ClassCounts returns the number of clips per class.
func (x *ClipIndex) ClassCounts() []int { return append([]int(nil), x.counts...) }

// ClassWeights returns 1/count per class, 0 for empty classes.
func (x *ClipIndex) ClassWeights() []float64 { return append([]float64(nil), x.weights...) }

// Entry returns the clip at i.
func (x *ClipIndex) Entry(i int) (ClipEntry, error) {
	if i < 0 || i >= len(x.entries) {
		return ClipEntry{}, errors.Errorf("index %d out of range [0, %d)", i, len(x.entries))
	}
	return x.entries[i], nil
}

// Label returns the class index of clip i without reading the clip.
func (x *ClipIndex) Label(i int) (int, error) {
	e, err := x.Entry(i)
	return e.Label, err
}

// SampleWeights returns, for every clip, the weight of its class.
func (x *ClipIndex) SampleWeights() []float64 {
	w := make([]float64, len(x.entries))
	for i, e := range x.entries {
		w[i] = x.weights[e.Label]
	}
	return w
}

// Distribution maps class name to clip count.
func (x *ClipIndex) Distribution() map[string]int {
	dist := make(map[string]int, len(x.classNames))
	for i, name := range x.classNames {
		dist[name] = x.counts[i]
	}
	return dist
}

// SaveClassNames writes the class names, one per line, creating parent
// directories as needed.
func (x *ClipIndex) SaveClassNames(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create directory for class names %s", path)
		}
	}
	var b strings.Builder
	for _, name := range x.classNames {
		b.WriteString(name)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write class names %s", path)
	}
	return nil
}

// LoadClassNames reads a file written by SaveClassNames.
func LoadClassNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cliperr.Wrap(cliperr.NotFound, "load class names", path, err)
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		names = append(names, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read class names %s", path)
	}
	return names, nil
}
