// Package loader turns a ClipDataset into an epoch-based stream of collated
// batches. Batches are produced either in a per-epoch shuffled order or, when
// UseSampler is set, by drawing clips with replacement proportionally to
// their inverse class frequency.
//
// A Loader implements gomlx's train.Dataset, so it can be handed to a
// train.Loop directly or wrapped for background prefetching with Prefetch.
package loader

import (
	"context"
	"io"
	"iter"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Noofbiz/cliploader/cliperr"
	"github.com/Noofbiz/cliploader/datasets"
	"github.com/Noofbiz/cliploader/spatial"
	"github.com/Noofbiz/cliploader/temporal"
)

// Defaults applied by DefaultConfig and, for zero values, by New.
const (
	DefaultBatchSize   = 8
	DefaultOutFrameNum = 32
	DefaultNumWorkers  = 8
)

// Config configures a Loader.
type Config struct {
	// DataRoot holds one subdirectory per class. Required.
	DataRoot string

	BatchSize   int
	OutFrameNum int

	// NumWorkers bounds the goroutines assembling one batch. Zero assembles
	// on the calling goroutine.
	NumWorkers int

	// UseSampler switches from shuffling to class-balanced weighted sampling.
	UseSampler bool

	// SaveClassName, when set, receives the class names one per line.
	SaveClassName string

	// Augmentation is optional; nil disables all augmentation.
	Augmentation *spatial.Augmentation

	OutputSize     spatial.Size
	ChannelOrder   spatial.ChannelOrder
	TemporalPolicy temporal.Policy
	Normalize      *spatial.Normalization
	Extensions     []string

	// Seed drives every random decision of the loader. Zero picks a
	// time-based seed.
	Seed uint64
}

// DefaultConfig returns a Config with the documented defaults and no data
// root.
func DefaultConfig() Config {
	return Config{
		BatchSize:   DefaultBatchSize,
		OutFrameNum: DefaultOutFrameNum,
		NumWorkers:  DefaultNumWorkers,
		OutputSize:  spatial.DefaultSize,
		Extensions:  append([]string(nil), datasets.DefaultExtensions...),
	}
}

func (c *Config) validate() error {
	if c.DataRoot == "" {
		return cliperr.Configurationf("loader", "data root is required")
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.OutFrameNum == 0 {
		c.OutFrameNum = DefaultOutFrameNum
	}
	if c.BatchSize < 0 {
		return cliperr.Configurationf("loader", "batch size must be positive, got %d", c.BatchSize)
	}
	if c.OutFrameNum < 0 {
		return cliperr.Configurationf("loader", "out frame num must be positive, got %d", c.OutFrameNum)
	}
	if c.NumWorkers < 0 {
		return cliperr.Configurationf("loader", "num workers must be >= 0, got %d", c.NumWorkers)
	}
	return nil
}

// Option customizes a Loader.
type Option func(*Loader)

// WithLogger sets the logger used by the loader and its dataset.
func WithLogger(l *zap.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

func withName(name string) Option {
	return func(ld *Loader) { ld.name = name }
}

// Constructor builds a Loader from a Config.
type Constructor func(cfg Config, opts ...Option) (*Loader, error)

var constructors = map[string]Constructor{
	"RGB": NewRGB,
}

// Names lists the loader kinds Build accepts.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build looks up kind and runs its constructor. Unknown kinds are
// configuration errors.
func Build(kind string, cfg Config, opts ...Option) (*Loader, error) {
	ctor, ok := constructors[kind]
	if !ok {
		return nil, cliperr.Configurationf("loader", "unknown loader %q (known: %v)", kind, Names())
	}
	return ctor(cfg, opts...)
}

// NewRGB builds a loader over clips of RGB frames.
func NewRGB(cfg Config, opts ...Option) (*Loader, error) {
	return New(cfg, append(opts, withName("RGB"))...)
}

// Loader yields collated batches of a ClipDataset, epoch by epoch. Next,
// Yield and Reset are safe for concurrent use.
type Loader struct {
	name    string
	cfg     Config
	ds      *datasets.ClipDataset
	sampler sampler
	logger  *zap.Logger

	mu     sync.Mutex
	rng    *rand.Rand
	plan   []int
	seeds  []uint64
	cursor int
	epoch  int
}

// New indexes cfg.DataRoot, prepares the sampler and plans the first epoch.
func New(cfg Config, opts ...Option) (*Loader, error) {
	l := &Loader{name: "clips", logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	l.cfg = cfg
	l.rng = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed>>1|1))

	ds, err := datasets.NewClipDataset(datasets.ClipConfig{
		Root:           cfg.DataRoot,
		OutFrameNum:    cfg.OutFrameNum,
		TemporalPolicy: cfg.TemporalPolicy,
		Extensions:     cfg.Extensions,
		SaveClassName:  cfg.SaveClassName,
		Spatial: spatial.Options{
			OutputSize:   cfg.OutputSize,
			ChannelOrder: cfg.ChannelOrder,
			Augmentation: cfg.Augmentation,
			Normalize:    cfg.Normalize,
		},
	}, datasets.WithLogger(l.logger))
	if err != nil {
		return nil, err
	}
	l.ds = ds

	if cfg.UseSampler {
		l.logger.Info("Init weight sampler to avoid imbalance class")
		ws, err := newWeightedSampler(ds.Index().SampleWeights(), l.rng)
		if err != nil {
			return nil, err
		}
		l.sampler = ws
	} else {
		l.sampler = shuffleSampler{}
	}

	l.Reset()
	return l, nil
}

// Dataset returns the underlying dataset.
func (l *Loader) Dataset() *datasets.ClipDataset { return l.ds }

// Config returns the effective configuration, with defaults and seed filled.
func (l *Loader) Config() Config { return l.cfg }

// NumSamples returns the number of indexed clips.
func (l *Loader) NumSamples() int { return l.ds.Len() }

// Len returns the number of batches per epoch, ceil(N/B).
func (l *Loader) Len() int {
	n := l.ds.Len()
	return (n + l.cfg.BatchSize - 1) / l.cfg.BatchSize
}

// Epoch returns how many times Reset has planned an epoch.
func (l *Loader) Epoch() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.epoch
}

// Reset plans a new epoch: a fresh permutation in shuffle mode, fresh draws
// in weighted mode. Batches still being assembled are not affected.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.plan = l.sampler.draw(l.rng, l.ds.Len())
	l.seeds = make([]uint64, len(l.plan))
	for i := range l.seeds {
		l.seeds[i] = l.rng.Uint64()
	}
	l.cursor = 0
	l.epoch++
}

// next reserves the indices and seeds of the next batch.
func (l *Loader) next() (indices []int, seeds []uint64, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cursor >= len(l.plan) {
		return nil, nil, false
	}
	end := min(l.cursor+l.cfg.BatchSize, len(l.plan))
	indices, seeds = l.plan[l.cursor:end], l.seeds[l.cursor:end]
	l.cursor = end
	return indices, seeds, true
}

// Next returns the next batch of the current epoch, or io.EOF once the epoch
// is exhausted. The first failing sample aborts the batch.
func (l *Loader) Next(ctx context.Context) (*datasets.ClipBatchFlat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	indices, seeds, ok := l.next()
	if !ok {
		return nil, io.EOF
	}
	return l.assemble(ctx, indices, seeds)
}

// Batches iterates over the rest of the current epoch. Iteration stops after
// the first error, which is yielded with a nil batch.
func (l *Loader) Batches(ctx context.Context) iter.Seq2[*datasets.ClipBatchFlat, error] {
	return func(yield func(*datasets.ClipBatchFlat, error) bool) {
		for {
			b, err := l.Next(ctx)
			if err == io.EOF {
				return
			}
			if !yield(b, err) || err != nil {
				return
			}
		}
	}
}

// sampleRNG returns the source used for one planned sample.
func sampleRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
