package spatial

import (
	"errors"
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/Noofbiz/cliploader/cliperr"
)

func ptr(v float64) *float64 { return &v }

// markedFrame returns a black HWC frame with one bright pixel at (x, y).
func markedFrame(w, h, x, y int) Frame {
	f := Frame{Height: h, Width: w, Channels: 3, Pix: make([]float32, w*h*3)}
	for c := 0; c < 3; c++ {
		f.Pix[(y*w+x)*3+c] = 200
	}
	return f
}

// at returns the value at channel c, row y, column x of window frame l.
func at(win *Window, l, c, y, x int) float32 {
	plane := win.Height * win.Width
	return win.Data[l*win.Channels*plane+c*plane+y*win.Width+x]
}

func TestResetFlipRate(t *testing.T) {
	tr, err := New(Options{OutputSize: Size{4, 4}, Augmentation: &Augmentation{HFlip: ptr(0.3)}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rng := rand.New(rand.NewPCG(3, 4))
	const trials = 20000
	flips := 0
	for i := 0; i < trials; i++ {
		if tr.Reset(rng).Flip {
			flips++
		}
	}
	rate := float64(flips) / trials
	if math.Abs(rate-0.3) > 0.02 {
		t.Fatalf("expected flip rate near 0.3, got %.4f", rate)
	}
}

func TestResetRotationRange(t *testing.T) {
	tr, _ := New(Options{OutputSize: Size{4, 4}, Augmentation: &Augmentation{Rotation: ptr(15)}})
	rng := rand.New(rand.NewPCG(5, 6))
	for i := 0; i < 1000; i++ {
		st := tr.Reset(rng)
		if !st.Rotate || st.Flip {
			t.Fatalf("unexpected state %+v", st)
		}
		if st.Angle < -15 || st.Angle > 15 {
			t.Fatalf("angle %v outside [-15,15]", st.Angle)
		}
	}
}

func TestResetWithoutAugmentationIsInert(t *testing.T) {
	tr, _ := New(Options{OutputSize: Size{4, 4}})
	if st := tr.Reset(nil); st != (State{}) {
		t.Fatalf("expected inert state, got %+v", st)
	}
	colorOnly, _ := New(Options{OutputSize: Size{4, 4}, Augmentation: &Augmentation{Color: []float64{0.1, 0.1, 0.1, 0.1}}})
	if st := colorOnly.Reset(rand.New(rand.NewPCG(1, 1))); st != (State{}) {
		t.Fatalf("expected inert geometric state with color-only augmentation, got %+v", st)
	}
}

func TestFlipIsConsistentAcrossWindow(t *testing.T) {
	const w, h = 6, 4
	tr, _ := New(Options{
		OutputSize:   Size{w, h},
		Augmentation: &Augmentation{Color: []float64{0.5, 0, 0, 0}, HFlip: ptr(1)},
	})
	rng := rand.New(rand.NewPCG(9, 9))
	frames := []Frame{markedFrame(w, h, 1, 2), markedFrame(w, h, 1, 2), markedFrame(w, h, 1, 2)}
	st := tr.Reset(rng)
	if !st.Flip {
		t.Fatalf("expected flip with probability 1")
	}
	win, err := tr.Apply(frames, st, rng)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := win.Dims(); got[0] != 3 || got[1] != 3 || got[2] != h || got[3] != w {
		t.Fatalf("unexpected dims %v", got)
	}
	for l := 0; l < win.Length; l++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				lit := at(win, l, 0, y, x) > 0
				want := y == 2 && x == w-1-1
				if lit != want {
					t.Fatalf("frame %d pixel (%d,%d): lit=%v want %v", l, x, y, lit, want)
				}
			}
		}
	}
}

func TestRotationIsConsistentAcrossWindow(t *testing.T) {
	const s = 5
	tr, _ := New(Options{OutputSize: Size{s, s}})
	frames := []Frame{markedFrame(s, s, 0, 2), markedFrame(s, s, 0, 2)}
	win, err := tr.Apply(frames, State{Rotate: true, Angle: 90}, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	plane := win.Channels * win.Height * win.Width
	first := win.Data[:plane]
	second := win.Data[plane:]
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("frames differ at %d: %v vs %v", i, first[i], second[i])
		}
	}
	// 90 degrees counter-clockwise moves the left edge centre to the bottom centre.
	if at(win, 0, 0, 2, 0) != 0 || at(win, 0, 0, s-1, 2) == 0 {
		t.Fatalf("expected marked pixel at bottom centre after rotation")
	}
}

func TestChannelOrderConversion(t *testing.T) {
	f := Frame{Height: 1, Width: 1, Channels: 3, Pix: []float32{10, 20, 30}}
	bgr, _ := New(Options{OutputSize: Size{1, 1}})
	win, err := bgr.Apply([]Frame{f}, State{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := win.Data[0] * 255; math.Abs(float64(got-30)) > 1e-3 {
		t.Fatalf("expected red channel 30 from BGR input, got %v", got)
	}
	rgb, _ := New(Options{OutputSize: Size{1, 1}, ChannelOrder: RGB})
	win, _ = rgb.Apply([]Frame{f}, State{}, nil)
	if got := win.Data[0] * 255; math.Abs(float64(got-10)) > 1e-3 {
		t.Fatalf("expected red channel 10 from RGB input, got %v", got)
	}
}

func TestNormalization(t *testing.T) {
	f := Frame{Height: 1, Width: 1, Channels: 3, Pix: []float32{255, 255, 255}}
	tr, err := New(Options{
		OutputSize: Size{1, 1},
		Normalize:  &Normalization{Mean: [3]float32{0.5, 0.5, 0.5}, Std: [3]float32{0.5, 0.25, 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	win, _ := tr.Apply([]Frame{f}, State{}, nil)
	want := []float32{1, 2, 0.5}
	for c, w := range want {
		if math.Abs(float64(win.Data[c]-w)) > 1e-5 {
			t.Fatalf("channel %d: expected %v, got %v", c, w, win.Data[c])
		}
	}
}

func TestResizeToDefaultSize(t *testing.T) {
	tr, _ := New(Options{})
	if tr.OutputSize() != DefaultSize {
		t.Fatalf("expected default size %v, got %v", DefaultSize, tr.OutputSize())
	}
	win, err := tr.Apply([]Frame{markedFrame(32, 16, 0, 0)}, State{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if win.Height != 224 || win.Width != 224 || len(win.Data) != 3*224*224 {
		t.Fatalf("unexpected window %dx%d len %d", win.Width, win.Height, len(win.Data))
	}
}

func TestMalformedColorJitter(t *testing.T) {
	cases := [][]float64{
		{0.1, 0.1, 0.1},
		{0.1, 0.1, 0.1, 0.1, 0.1},
		{-0.1, 0, 0, 0},
		{0, 0, 0, 0.6},
	}
	for _, c := range cases {
		_, err := New(Options{Augmentation: &Augmentation{Color: c}})
		if !errors.Is(err, cliperr.ErrConfiguration) {
			t.Fatalf("color %v: expected configuration error, got %v", c, err)
		}
	}
	if _, err := New(Options{Augmentation: &Augmentation{HFlip: ptr(1.5)}}); !errors.Is(err, cliperr.ErrConfiguration) {
		t.Fatalf("expected configuration error for h_flip 1.5, got %v", err)
	}
	if _, err := New(Options{Augmentation: &Augmentation{Rotation: ptr(-3)}}); !errors.Is(err, cliperr.ErrConfiguration) {
		t.Fatalf("expected configuration error for negative rotation, got %v", err)
	}
}

func TestInconsistentWindowIsShapeError(t *testing.T) {
	tr, _ := New(Options{OutputSize: Size{4, 4}})
	frames := []Frame{markedFrame(4, 4, 0, 0), markedFrame(5, 4, 0, 0)}
	if _, err := tr.Apply(frames, State{}, nil); !errors.Is(err, cliperr.ErrShape) {
		t.Fatalf("expected shape error, got %v", err)
	}
	bad := Frame{Height: 2, Width: 2, Channels: 4, Pix: make([]float32, 16)}
	if _, err := tr.Apply([]Frame{bad}, State{}, nil); !errors.Is(err, cliperr.ErrShape) {
		t.Fatalf("expected shape error for 4 channels, got %v", err)
	}
	short := Frame{Height: 2, Width: 2, Channels: 3, Pix: make([]float32, 5)}
	if _, err := tr.Apply([]Frame{short}, State{}, nil); !errors.Is(err, cliperr.ErrShape) {
		t.Fatalf("expected shape error for short buffer, got %v", err)
	}
	if _, err := tr.Apply(nil, State{}, nil); !errors.Is(err, cliperr.ErrShape) {
		t.Fatalf("expected shape error for empty window, got %v", err)
	}
}

func TestParseChannelOrder(t *testing.T) {
	if o, err := ParseChannelOrder("RGB"); err != nil || o != RGB {
		t.Fatalf("expected RGB, got %v %v", o, err)
	}
	if o, err := ParseChannelOrder(""); err != nil || o != BGR {
		t.Fatalf("expected BGR default, got %v %v", o, err)
	}
	if _, err := ParseChannelOrder("yuv"); !errors.Is(err, cliperr.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRotationKeepsNonSquareSize(t *testing.T) {
	tr, err := New(Options{OutputSize: Size{Width: 8, Height: 4}})
	if err != nil {
		t.Fatal(err)
	}
	frame := Frame{Height: 4, Width: 8, Channels: 3, Pix: make([]float32, 8*4*3)}
	for i := range frame.Pix {
		frame.Pix[i] = 200
	}
	for _, angle := range []float64{30, 60, 90} {
		imgs, err := tr.Images([]Frame{frame}, State{Rotate: true, Angle: angle}, nil)
		if err != nil {
			t.Fatalf("Images: %v", err)
		}
		if b := imgs[0].Bounds(); b.Dx() != 8 || b.Dy() != 4 {
			t.Fatalf("angle %v: image is %dx%d, want 8x4", angle, b.Dx(), b.Dy())
		}
	}

	win, err := tr.Apply([]Frame{frame}, State{Rotate: true, Angle: 90}, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if win.Height != 4 || win.Width != 8 {
		t.Fatalf("unexpected window %v", win.Dims())
	}
	// The rotated 4x8 frame covers only the middle four columns.
	for y := 0; y < 4; y++ {
		if at(win, 0, 0, y, 0) != 0 || at(win, 0, 0, y, 7) != 0 {
			t.Fatalf("row %d: expected black border columns", y)
		}
		if at(win, 0, 0, y, 3) == 0 || at(win, 0, 0, y, 4) == 0 {
			t.Fatalf("row %d: expected rotated content in the middle", y)
		}
	}
}

func TestTensorizeRejectsWrongImageSize(t *testing.T) {
	tr, _ := New(Options{OutputSize: Size{Width: 4, Height: 4}})
	img := image.NewNRGBA(image.Rect(0, 0, 3, 4))
	if err := tr.tensorize(img, 4, 4, make([]float32, 3*4*4)); !errors.Is(err, cliperr.ErrShape) {
		t.Fatalf("expected shape error, got %v", err)
	}
}

func TestRotateHue(t *testing.T) {
	green := rotateHue(color.NRGBA{R: 255, A: 255}, 1.0/3)
	if green.R > 1 || green.G != 255 || green.B > 1 {
		t.Fatalf("expected red to turn green, got %+v", green)
	}
	back := rotateHue(color.NRGBA{G: 255, A: 255}, -1.0/3)
	if back.R != 255 || back.G > 1 || back.B > 1 {
		t.Fatalf("expected green to turn red, got %+v", back)
	}
	grey := color.NRGBA{R: 90, G: 90, B: 90, A: 255}
	if got := rotateHue(grey, 0.25); got != grey {
		t.Fatalf("grey should be unchanged, got %+v", got)
	}
}

func TestHueJitterKeepsValue(t *testing.T) {
	j, err := NewColorJitter([]float64{0, 0, 0, 0.5})
	if err != nil {
		t.Fatal(err)
	}
	red := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	red.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})

	changed := false
	for seed := uint64(1); seed <= 10; seed++ {
		out := j.Apply(red, rand.New(rand.NewPCG(seed, seed)))
		c := out.NRGBAAt(0, 0)
		if max(c.R, c.G, c.B) != 255 {
			t.Fatalf("seed %d: value changed, got %+v", seed, c)
		}
		if c != (color.NRGBA{R: 255, A: 255}) {
			changed = true
		}
	}
	if !changed {
		t.Fatalf("hue jitter never changed a saturated pixel")
	}
}
