// Package testsupport writes clip fixtures for tests.
package testsupport

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteNPY writes a version 1.0 .npy file. data must be a []uint8 or
// []float32 slice matching descr ("|u1" or "<f4").
func WriteNPY(t testing.TB, path, descr string, shape []int, data any) {
	t.Helper()

	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = fmt.Sprint(d)
	}
	tuple := strings.Join(dims, ", ")
	if len(shape) == 1 {
		tuple += ","
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }", descr, tuple)
	// magic(6) + version(2) + length(2) + header + '\n' is padded to 64 bytes.
	total := 10 + len(header) + 1
	if pad := total % 64; pad != 0 {
		header += strings.Repeat(" ", 64-pad)
	}
	header += "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.Write([]byte{1, 0})
	if err := binary.Write(&buf, binary.LittleEndian, uint16(len(header))); err != nil {
		t.Fatalf("failed to encode npy header length: %v", err)
	}
	buf.WriteString(header)
	if err := binary.Write(&buf, binary.LittleEndian, data); err != nil {
		t.Fatalf("failed to encode npy data: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create fixture dir: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write npy %s: %v", path, err)
	}
}

// WriteClip writes a (frames, h, w, 3) uint8 clip. Every pixel of frame t
// holds the value base+t on all channels, so frames can be told apart after
// decoding.
func WriteClip(t testing.TB, path string, frames, h, w int, base uint8) {
	t.Helper()
	data := make([]uint8, frames*h*w*3)
	per := h * w * 3
	for f := 0; f < frames; f++ {
		for i := 0; i < per; i++ {
			data[f*per+i] = base + uint8(f)
		}
	}
	WriteNPY(t, path, "|u1", []int{frames, h, w, 3}, data)
}

// Tree describes a dataset root: class name -> number of clips.
type Tree map[string]int

// WriteTree creates root/<class>/clip_<i>.npy for every class in tree. Each
// clip has frames frames of h x w pixels.
func WriteTree(t testing.TB, root string, tree Tree, frames, h, w int) {
	t.Helper()
	for class, n := range tree {
		dir := filepath.Join(root, class)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create class dir %s: %v", dir, err)
		}
		for i := 0; i < n; i++ {
			WriteClip(t, filepath.Join(dir, fmt.Sprintf("clip_%03d.npy", i)), frames, h, w, uint8(10*i))
		}
	}
}
