// Package temporal selects fixed-length frame windows from a clip.
//
// Samplers work on frame indices, so they do not care how frames are stored.
// A RandomCrop draws a new start offset on every call: the crop location
// varies per access, which is intended as training-time regularization.
// Pass a seeded *rand.Rand when reproducible windows are needed.
package temporal

import (
	"math/rand/v2"
	"strings"

	"github.com/Noofbiz/cliploader/cliperr"
)

// Policy decides how a clip shorter than the window is filled.
type Policy int

const (
	// Loop wraps around to the first frame: 0,1,..,T-1,0,1,...
	Loop Policy = iota
	// Pad repeats the last frame: 0,1,..,T-1,T-1,...
	Pad
)

func (p Policy) String() string {
	if p == Pad {
		return "pad"
	}
	return "loop"
}

// ParsePolicy maps "loop" (or "") and "pad" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "loop":
		return Loop, nil
	case "pad":
		return Pad, nil
	}
	return Loop, cliperr.Configurationf("temporal policy", "unknown policy %q (want loop or pad)", s)
}

// Sampler returns the frame indices of a window over a clip of total frames.
type Sampler interface {
	Indices(rng *rand.Rand, total int) ([]int, error)
	Length() int
}

// RandomCrop picks a window of Size consecutive frames with a uniformly random
// start in [0, total-Size].
type RandomCrop struct {
	Size   int
	Policy Policy
}

// NewRandomCrop returns a RandomCrop of the given size.
func NewRandomCrop(size int, policy Policy) (*RandomCrop, error) {
	if size < 1 {
		return nil, cliperr.Configurationf("temporal crop", "window length must be >= 1, got %d", size)
	}
	return &RandomCrop{Size: size, Policy: policy}, nil
}

// Length implements Sampler.
func (c *RandomCrop) Length() int { return c.Size }

// Indices implements Sampler. For total == Size the window is the whole clip
// and rng is not used.
func (c *RandomCrop) Indices(rng *rand.Rand, total int) ([]int, error) {
	if err := checkArgs(c.Size, total); err != nil {
		return nil, err
	}
	if total <= c.Size {
		return fill(total, c.Size, c.Policy), nil
	}
	start := rng.IntN(total - c.Size + 1)
	return window(start, c.Size), nil
}

// Center picks the middle window deterministically. Used for evaluation.
type Center struct {
	Size   int
	Policy Policy
}

// Length implements Sampler.
func (c *Center) Length() int { return c.Size }

// Indices implements Sampler; rng is ignored.
func (c *Center) Indices(_ *rand.Rand, total int) ([]int, error) {
	if err := checkArgs(c.Size, total); err != nil {
		return nil, err
	}
	if total <= c.Size {
		return fill(total, c.Size, c.Policy), nil
	}
	return window((total-c.Size)/2, c.Size), nil
}

// Apply returns frames[idx[0]], frames[idx[1]], ...
func Apply[T any](frames []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = frames[j]
	}
	return out
}

func checkArgs(size, total int) error {
	if size < 1 {
		return cliperr.Configurationf("temporal crop", "window length must be >= 1, got %d", size)
	}
	if total < 1 {
		return cliperr.CorruptDataf("temporal crop", "", "clip has %d frames", total)
	}
	return nil
}

func window(start, size int) []int {
	out := make([]int, size)
	for i := range out {
		out[i] = start + i
	}
	return out
}

// fill builds a window of size from a clip of total <= size frames.
func fill(total, size int, policy Policy) []int {
	out := make([]int, size)
	for i := range out {
		switch {
		case i < total:
			out[i] = i
		case policy == Pad:
			out[i] = total - 1
		default:
			out[i] = i % total
		}
	}
	return out
}
