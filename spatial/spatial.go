// Package spatial turns a window of raw frames into a normalized,
// channel-first tensor buffer, applying augmentation that is identical for
// every frame of the window.
//
// Usage is two-phase. Reset draws the geometric decision for one window and
// returns it as a State value; Apply consumes that State. Nothing random is
// stored on the Transform, so one Transform can serve many goroutines as long
// as each one uses its own *rand.Rand:
//
//	st := tr.Reset(rng)
//	win, err := tr.Apply(frames, st, rng)
package spatial

import (
	"image"
	"image/color"
	"math/rand/v2"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/Noofbiz/cliploader/cliperr"
)

// DefaultSize is the output frame size used when none is configured.
var DefaultSize = Size{Width: 224, Height: 224}

// Size is a frame size in pixels.
type Size struct {
	Width  int
	Height int
}

// ChannelOrder is the channel layout of the stored frames.
type ChannelOrder int

const (
	// BGR is what OpenCV-based extractors write.
	BGR ChannelOrder = iota
	RGB
)

// ParseChannelOrder maps "bgr" (or "") and "rgb" to a ChannelOrder.
func ParseChannelOrder(s string) (ChannelOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bgr":
		return BGR, nil
	case "rgb":
		return RGB, nil
	}
	return BGR, cliperr.Configurationf("channel order", "unknown channel order %q (want bgr or rgb)", s)
}

func (o ChannelOrder) String() string {
	if o == RGB {
		return "rgb"
	}
	return "bgr"
}

// Normalization subtracts Mean and divides by Std per RGB channel after
// scaling to [0,1].
type Normalization struct {
	Mean [3]float32
	Std  [3]float32
}

// Options configures a Transform.
type Options struct {
	OutputSize   Size
	ChannelOrder ChannelOrder
	Augmentation *Augmentation
	Normalize    *Normalization
}

// Frame is one stored frame in row-major HWC layout.
type Frame struct {
	Height, Width, Channels int
	Pix                     []float32
}

// Window is a transformed window in [Length, Channels, Height, Width] layout.
type Window struct {
	Length, Channels, Height, Width int
	Data                            []float32
}

// Dims returns the window dimensions.
func (w *Window) Dims() []int {
	return []int{w.Length, w.Channels, w.Height, w.Width}
}

// Transform resizes, augments and tensorizes frame windows.
type Transform struct {
	opts   Options
	jitter *ColorJitter
}

// New validates opts and returns a Transform. A zero OutputSize means
// DefaultSize.
func New(opts Options) (*Transform, error) {
	if opts.OutputSize == (Size{}) {
		opts.OutputSize = DefaultSize
	}
	if opts.OutputSize.Width < 1 || opts.OutputSize.Height < 1 {
		return nil, cliperr.Configurationf("spatial transform", "output size must be positive, got %dx%d",
			opts.OutputSize.Width, opts.OutputSize.Height)
	}
	if err := opts.Augmentation.Validate(); err != nil {
		return nil, err
	}
	if n := opts.Normalize; n != nil {
		for c, s := range n.Std {
			if s == 0 {
				return nil, cliperr.Configurationf("spatial transform", "normalize std[%d] must be non-zero", c)
			}
		}
	}
	t := &Transform{opts: opts}
	if a := opts.Augmentation; a != nil && a.Color != nil {
		jitter, err := NewColorJitter(a.Color)
		if err != nil {
			return nil, err
		}
		t.jitter = jitter
	}
	return t, nil
}

// OutputSize reports the configured output size.
func (t *Transform) OutputSize() Size { return t.opts.OutputSize }

// Reset draws the flip and rotation decision for the next window. Without an
// augmentation config, or for absent fields, the returned State is inert.
func (t *Transform) Reset(rng *rand.Rand) State {
	var st State
	a := t.opts.Augmentation
	if a == nil {
		return st
	}
	if a.HFlip != nil {
		st.Flip = rng.Float64() < *a.HFlip
	}
	if a.Rotation != nil {
		st.Rotate = true
		st.Angle = (rng.Float64()*2 - 1) * *a.Rotation
	}
	return st
}

// Images applies color conversion, resize and augmentation and returns the
// frames as images. rng is only used for color jitter.
func (t *Transform) Images(frames []Frame, st State, rng *rand.Rand) ([]*image.NRGBA, error) {
	if err := checkWindow(frames); err != nil {
		return nil, err
	}
	size := t.opts.OutputSize
	out := make([]*image.NRGBA, len(frames))
	for i, f := range frames {
		img := imaging.Resize(f.image(t.opts.ChannelOrder), size.Width, size.Height, imaging.Linear)
		if st.Flip {
			img = imaging.FlipH(img)
		}
		if st.Rotate && st.Angle != 0 {
			img = rotate(img, st.Angle, size)
		}
		if t.jitter != nil {
			img = t.jitter.Apply(img, rng)
		}
		out[i] = img
	}
	return out, nil
}

// Apply transforms frames into a [L, 3, H, W] window using the decision in st.
func (t *Transform) Apply(frames []Frame, st State, rng *rand.Rand) (*Window, error) {
	imgs, err := t.Images(frames, st, rng)
	if err != nil {
		return nil, err
	}
	size := t.opts.OutputSize
	w := &Window{
		Length:   len(imgs),
		Channels: 3,
		Height:   size.Height,
		Width:    size.Width,
	}
	plane := w.Height * w.Width
	w.Data = make([]float32, w.Length*w.Channels*plane)
	for l, img := range imgs {
		if err := t.tensorize(img, w.Height, w.Width, w.Data[l*w.Channels*plane:(l+1)*w.Channels*plane]); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// rotate turns img by angle degrees counter-clockwise about its centre and
// returns a size canvas, filling uncovered pixels with black.
func rotate(img *image.NRGBA, angle float64, size Size) *image.NRGBA {
	canvas := imaging.New(size.Width, size.Height, color.Black)
	return imaging.PasteCenter(canvas, imaging.Rotate(img, angle, color.Black))
}

// tensorize writes img as CHW floats in [0,1] (then normalized) into dst,
// which holds an h x w window frame.
func (t *Transform) tensorize(img *image.NRGBA, h, w int, dst []float32) error {
	if b := img.Bounds(); b.Dx() != w || b.Dy() != h {
		return cliperr.Shapef("spatial transform", "image is %dx%d, window frame is %dx%d", b.Dx(), b.Dy(), w, h)
	}
	plane := h * w
	norm := t.opts.Normalize
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				v := float32(row[x*4+c]) / 255
				if norm != nil {
					v = (v - norm.Mean[c]) / norm.Std[c]
				}
				dst[c*plane+y*w+x] = v
			}
		}
	}
	return nil
}

func checkWindow(frames []Frame) error {
	if len(frames) == 0 {
		return cliperr.Shapef("spatial transform", "empty window")
	}
	first := frames[0]
	for i, f := range frames {
		if f.Channels != 3 {
			return cliperr.Shapef("spatial transform", "frame %d has %d channels, want 3", i, f.Channels)
		}
		if f.Height < 1 || f.Width < 1 {
			return cliperr.Shapef("spatial transform", "frame %d has size %dx%d", i, f.Width, f.Height)
		}
		if f.Height != first.Height || f.Width != first.Width {
			return cliperr.Shapef("spatial transform", "frame %d is %dx%d, frame 0 is %dx%d",
				i, f.Width, f.Height, first.Width, first.Height)
		}
		if len(f.Pix) != f.Height*f.Width*f.Channels {
			return cliperr.Shapef("spatial transform", "frame %d has %d values, want %d",
				i, len(f.Pix), f.Height*f.Width*f.Channels)
		}
	}
	return nil
}

// image converts the frame to an RGB image. Values are clamped to [0,255].
func (f Frame) image(order ChannelOrder) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	r, b := 0, 2
	if order == BGR {
		r, b = 2, 0
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			src := f.Pix[(y*f.Width+x)*3:]
			dst := img.Pix[y*img.Stride+x*4:]
			dst[0] = clamp8(float64(src[r]))
			dst[1] = clamp8(float64(src[1]))
			dst[2] = clamp8(float64(src[b]))
			dst[3] = 255
		}
	}
	return img
}
