package datasets

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/sbinet/npyio/npy"

	"github.com/Noofbiz/cliploader/cliperr"
	"github.com/Noofbiz/cliploader/spatial"
)

// Clip is a decoded (T, H, W, C) frame array in row-major order.
type Clip struct {
	Path     string
	Frames   int
	Height   int
	Width    int
	Channels int
	Data     []float32
}

// Frame returns frame t as a spatial.Frame sharing the clip buffer.
func (c *Clip) Frame(t int) spatial.Frame {
	n := c.Height * c.Width * c.Channels
	return spatial.Frame{
		Height:   c.Height,
		Width:    c.Width,
		Channels: c.Channels,
		Pix:      c.Data[t*n : (t+1)*n],
	}
}

// FrameList returns every frame of the clip.
func (c *Clip) FrameList() []spatial.Frame {
	frames := make([]spatial.Frame, c.Frames)
	for t := range frames {
		frames[t] = c.Frame(t)
	}
	return frames
}

// ReadClip decodes a .npy file holding a (T, H, W, C) array of any integer or
// float dtype. Missing files report cliperr.NotFound; anything undecodable
// reports cliperr.CorruptData.
func ReadClip(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, cliperr.Wrap(cliperr.NotFound, "read clip", path, err)
		}
		return nil, cliperr.Wrap(cliperr.CorruptData, "read clip", path, err)
	}
	defer f.Close()

	r, err := npy.NewReader(f)
	if err != nil {
		return nil, cliperr.Wrap(cliperr.CorruptData, "read clip", path, err)
	}
	descr := r.Header.Descr
	if descr.Fortran {
		return nil, cliperr.CorruptDataf("read clip", path, "fortran-ordered arrays are not supported")
	}
	if len(descr.Shape) != 4 {
		return nil, cliperr.CorruptDataf("read clip", path, "expected rank 4 (T,H,W,C), got shape %v", descr.Shape)
	}
	if descr.Shape[0] < 1 {
		return nil, cliperr.CorruptDataf("read clip", path, "clip has no frames")
	}

	data, err := readFloat32(r, descr.Type)
	if err != nil {
		return nil, cliperr.Wrap(cliperr.CorruptData, "read clip", path, err)
	}
	want := descr.Shape[0] * descr.Shape[1] * descr.Shape[2] * descr.Shape[3]
	if len(data) != want {
		return nil, cliperr.CorruptDataf("read clip", path, "shape %v needs %d values, got %d", descr.Shape, want, len(data))
	}
	return &Clip{
		Path:     path,
		Frames:   descr.Shape[0],
		Height:   descr.Shape[1],
		Width:    descr.Shape[2],
		Channels: descr.Shape[3],
		Data:     data,
	}, nil
}

// readFloat32 reads the array body with the Go type matching the stored
// dtype and widens it to float32.
func readFloat32(r *npy.Reader, dtype string) ([]float32, error) {
	switch strings.TrimLeft(dtype, "<>|=") {
	case "u1":
		return readAs[uint8](r)
	case "i1":
		return readAs[int8](r)
	case "u2":
		return readAs[uint16](r)
	case "i2":
		return readAs[int16](r)
	case "u4":
		return readAs[uint32](r)
	case "i4":
		return readAs[int32](r)
	case "u8":
		return readAs[uint64](r)
	case "i8":
		return readAs[int64](r)
	case "f4":
		var out []float32
		if err := r.Read(&out); err != nil {
			return nil, err
		}
		return out, nil
	case "f8":
		return readAs[float64](r)
	}
	return nil, cliperr.CorruptDataf("read clip", "", "unsupported dtype %q", dtype)
}

type number interface {
	~uint8 | ~int8 | ~uint16 | ~int16 | ~uint32 | ~int32 | ~uint64 | ~int64 | ~float64
}

func readAs[T number](r *npy.Reader) ([]float32, error) {
	var raw []T
	if err := r.Read(&raw); err != nil {
		return nil, err
	}
	out := make([]float32, len(raw))
	for i, v := range raw {
		out[i] = float32(v)
	}
	return out, nil
}
