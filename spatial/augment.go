package spatial

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"

	"github.com/disintegration/imaging"

	"github.com/Noofbiz/cliploader/cliperr"
)

// Augmentation configures random geometric and photometric changes. A nil
// field disables that change.
type Augmentation struct {
	// Color holds the jitter ranges (brightness, contrast, saturation, hue).
	Color []float64
	// HFlip is the probability of mirroring the window horizontally.
	HFlip *float64
	// Rotation is the maximum rotation in degrees; angles are drawn from
	// [-Rotation, +Rotation].
	Rotation *float64
}

// Validate checks ranges. Errors match cliperr.ErrConfiguration.
func (a *Augmentation) Validate() error {
	if a == nil {
		return nil
	}
	if a.Color != nil {
		if _, err := NewColorJitter(a.Color); err != nil {
			return err
		}
	}
	if a.HFlip != nil && (*a.HFlip < 0 || *a.HFlip > 1 || math.IsNaN(*a.HFlip)) {
		return cliperr.Configurationf("augmentation", "h_flip must be a probability in [0,1], got %v", *a.HFlip)
	}
	if a.Rotation != nil && (*a.Rotation < 0 || math.IsNaN(*a.Rotation)) {
		return cliperr.Configurationf("augmentation", "rotation must be >= 0 degrees, got %v", *a.Rotation)
	}
	return nil
}

// State is the per-window augmentation decision. The zero value is inert.
type State struct {
	Flip   bool
	Rotate bool
	Angle  float64
}

// ColorJitter randomly changes brightness, contrast, saturation and hue of a
// frame. Factors are drawn per frame and the four operations run in random
// order, as torchvision's ColorJitter does.
type ColorJitter struct {
	Brightness float64
	Contrast   float64
	Saturation float64
	Hue        float64
}

// NewColorJitter builds a ColorJitter from a (brightness, contrast,
// saturation, hue) tuple.
func NewColorJitter(values []float64) (*ColorJitter, error) {
	if len(values) != 4 {
		return nil, cliperr.Configurationf("color jitter",
			"expected 4 values (brightness, contrast, saturation, hue), got %d", len(values))
	}
	for i, v := range values {
		if v < 0 || math.IsNaN(v) {
			return nil, cliperr.Configurationf("color jitter", "value %d must be >= 0, got %v", i, v)
		}
	}
	if values[3] > 0.5 {
		return nil, cliperr.Configurationf("color jitter", "hue must be in [0, 0.5], got %v", values[3])
	}
	return &ColorJitter{
		Brightness: values[0],
		Contrast:   values[1],
		Saturation: values[2],
		Hue:        values[3],
	}, nil
}

// Apply returns a jittered copy of img.
func (j *ColorJitter) Apply(img *image.NRGBA, rng *rand.Rand) *image.NRGBA {
	for _, op := range rng.Perm(4) {
		switch op {
		case 0:
			if f, ok := factor(rng, j.Brightness); ok {
				img = scale(img, f, func(*image.NRGBA) float64 { return 0 })
			}
		case 1:
			if f, ok := factor(rng, j.Contrast); ok {
				mean := meanGray(img)
				img = scale(img, f, func(*image.NRGBA) float64 { return mean })
			}
		case 2:
			if f, ok := factor(rng, j.Saturation); ok {
				img = saturate(img, f)
			}
		case 3:
			if j.Hue > 0 {
				img = shiftHue(img, (rng.Float64()*2-1)*j.Hue)
			}
		}
	}
	return img
}

// factor draws uniformly from [max(0, 1-r), 1+r].
func factor(rng *rand.Rand, r float64) (float64, bool) {
	if r <= 0 {
		return 1, false
	}
	lo := math.Max(0, 1-r)
	return lo + rng.Float64()*(1+r-lo), true
}

// scale blends every channel towards ref: f*c + (1-f)*ref.
func scale(img *image.NRGBA, f float64, ref func(*image.NRGBA) float64) *image.NRGBA {
	r := ref(img)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clamp8(f*float64(c.R) + (1-f)*r),
			G: clamp8(f*float64(c.G) + (1-f)*r),
			B: clamp8(f*float64(c.B) + (1-f)*r),
			A: c.A,
		}
	})
}

// saturate blends every pixel with its own grayscale value.
func saturate(img *image.NRGBA, f float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		g := gray(c)
		return color.NRGBA{
			R: clamp8(f*float64(c.R) + (1-f)*g),
			G: clamp8(f*float64(c.G) + (1-f)*g),
			B: clamp8(f*float64(c.B) + (1-f)*g),
			A: c.A,
		}
	})
}

// shiftHue rotates every pixel's hue by shift turns, keeping saturation and
// value.
func shiftHue(img *image.NRGBA, shift float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return rotateHue(c, shift)
	})
}

func rotateHue(c color.NRGBA, shift float64) color.NRGBA {
	h, s, v := toHSV(c)
	h = math.Mod(h+shift, 1)
	if h < 0 {
		h++
	}
	r, g, b := fromHSV(h, s, v)
	return color.NRGBA{R: clamp8(r * 255), G: clamp8(g * 255), B: clamp8(b * 255), A: c.A}
}

// toHSV returns hue in [0,1) turns, saturation and value in [0,1].
func toHSV(c color.NRGBA) (h, s, v float64) {
	r, g, b := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
	hi := math.Max(r, math.Max(g, b))
	lo := math.Min(r, math.Min(g, b))
	v = hi
	d := hi - lo
	if hi == 0 || d == 0 {
		return 0, 0, v
	}
	s = d / hi
	switch hi {
	case r:
		h = (g - b) / d
		if h < 0 {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return h / 6, s, v
}

func fromHSV(h, s, v float64) (r, g, b float64) {
	if s == 0 {
		return v, v, v
	}
	h *= 6
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

func gray(c color.NRGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

func meanGray(img *image.NRGBA) float64 {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}
	var sum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += gray(img.NRGBAAt(x, y))
		}
	}
	return sum / float64(n)
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}
