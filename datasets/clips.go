package datasets

import (
	"image"
	"math/rand/v2"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Noofbiz/cliploader/spatial"
	"github.com/Noofbiz/cliploader/temporal"
)

// ClipConfig configures a ClipDataset.
type ClipConfig struct {
	// Root is the directory with one subdirectory per class.
	Root string

	// OutFrameNum is the window length L (default 32).
	OutFrameNum int

	// TemporalPolicy fills windows longer than the clip.
	TemporalPolicy temporal.Policy

	// Sampler overrides the default RandomCrop of OutFrameNum frames.
	Sampler temporal.Sampler

	// Extensions filters clip files; empty indexes every visible file.
	Extensions []string

	// SaveClassName, when set, receives the class names one per line.
	SaveClassName string

	// Spatial configures resize, color order, augmentation and normalization.
	Spatial spatial.Options
}

// Option customizes a ClipDataset.
type Option func(*ClipDataset)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(d *ClipDataset) {
		if l != nil {
			d.logger = l
		}
	}
}

// ClipDataset lazily assembles samples from the clips of a ClipIndex.
type ClipDataset struct {
	index     *ClipIndex
	sampler   temporal.Sampler
	transform *spatial.Transform
	logger    *zap.Logger
}

var _ Dataset = (*ClipDataset)(nil)

// NewClipDataset indexes cfg.Root and prepares the transforms. Index errors
// are returned as is; no partial dataset is built.
func NewClipDataset(cfg ClipConfig, opts ...Option) (*ClipDataset, error) {
	d := &ClipDataset{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}

	if cfg.OutFrameNum == 0 {
		cfg.OutFrameNum = 32
	}
	d.sampler = cfg.Sampler
	if d.sampler == nil {
		crop, err := temporal.NewRandomCrop(cfg.OutFrameNum, cfg.TemporalPolicy)
		if err != nil {
			return nil, err
		}
		d.sampler = crop
	}
	tr, err := spatial.New(cfg.Spatial)
	if err != nil {
		return nil, err
	}
	d.transform = tr

	d.logger.Info("init data set", zap.String("root", cfg.Root))
	idx, err := BuildClipIndex(cfg.Root, cfg.Extensions...)
	if err != nil {
		return nil, err
	}
	d.index = idx
	d.logger.Info("indexed clips",
		zap.Int("clips", idx.Len()),
		zap.Int("classes", idx.NumClasses()))

	if cfg.SaveClassName != "" {
		if err := idx.SaveClassNames(cfg.SaveClassName); err != nil {
			return nil, err
		}
		d.logger.Info("save class name file", zap.String("path", cfg.SaveClassName))
	}
	return d, nil
}

// Len returns the number of clips.
func (d *ClipDataset) Len() int { return d.index.Len() }

// NumClasses returns K.
func (d *ClipDataset) NumClasses() int { return d.index.NumClasses() }

// Index exposes the underlying read-only index.
func (d *ClipDataset) Index() *ClipIndex { return d.index }

// Label returns the class of clip i without decoding it.
func (d *ClipDataset) Label(i int) (int, error) { return d.index.Label(i) }

// WindowLength returns L.
func (d *ClipDataset) WindowLength() int { return d.sampler.Length() }

// Transform returns the spatial transform.
func (d *ClipDataset) Transform() *spatial.Transform { return d.transform }

// window reads clip i and selects its temporal window.
func (d *ClipDataset) window(i int, rng *rand.Rand) (ClipEntry, []spatial.Frame, error) {
	entry, err := d.index.Entry(i)
	if err != nil {
		return entry, nil, err
	}
	clip, err := ReadClip(entry.Path)
	if err != nil {
		return entry, nil, err
	}
	idx, err := d.sampler.Indices(rng, clip.Frames)
	if err != nil {
		return entry, nil, errors.WithMessagef(err, "clip %s", entry.Path)
	}
	return entry, temporal.Apply(clip.FrameList(), idx), nil
}

// Example reads clip i and returns it as a [1, C, L, H, W] sample with a
// [1, K] one-hot label. All randomness comes from rng, which must not be
// shared with a concurrent call.
func (d *ClipDataset) Example(i int, rng *rand.Rand) (*Sample, error) {
	d.logger.Debug("get item", zap.Int("index", i))
	entry, frames, err := d.window(i, rng)
	if err != nil {
		return nil, err
	}
	st := d.transform.Reset(rng)
	win, err := d.transform.Apply(frames, st, rng)
	if err != nil {
		return nil, errors.WithMessagef(err, "clip %s", entry.Path)
	}
	return &Sample{
		Clip:     channelsFirst(win),
		ClipDims: []int{1, win.Channels, win.Length, win.Height, win.Width},
		Label:    OneHot(entry.Label, d.NumClasses()),
		Class:    entry.Label,
	}, nil
}

// Images returns the transformed window of clip i as images, for previews.
func (d *ClipDataset) Images(i int, rng *rand.Rand) ([]*image.NRGBA, spatial.State, error) {
	entry, frames, err := d.window(i, rng)
	if err != nil {
		return nil, spatial.State{}, err
	}
	st := d.transform.Reset(rng)
	imgs, err := d.transform.Images(frames, st, rng)
	if err != nil {
		return nil, st, errors.WithMessagef(err, "clip %s", entry.Path)
	}
	return imgs, st, nil
}

// Batch assembles indices sequentially with one rng and collates them.
func (d *ClipDataset) Batch(indices []int, rng *rand.Rand) (*ClipBatchFlat, error) {
	samples := make([]*Sample, len(indices))
	for pos, i := range indices {
		s, err := d.Example(i, rng)
		if err != nil {
			return nil, err
		}
		samples[pos] = s
	}
	return Collate(samples)
}

// channelsFirst permutes a [L, C, H, W] window into [C, L, H, W].
func channelsFirst(w *spatial.Window) []float32 {
	plane := w.Height * w.Width
	out := make([]float32, len(w.Data))
	for l := 0; l < w.Length; l++ {
		for c := 0; c < w.Channels; c++ {
			src := w.Data[(l*w.Channels+c)*plane : (l*w.Channels+c+1)*plane]
			copy(out[(c*w.Length+l)*plane:], src)
		}
	}
	return out
}
