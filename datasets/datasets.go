package datasets

import "math/rand/v2"

// This package turns a directory of pre-extracted video clips into training
// examples suitable for a video classifier.
//
// Layout and intended usage:
//
//	root/<class_name>/<clip_id>.npy   one (T, H, W, 3) array per video
//
// ClipIndex
//   - Scans the tree once and keeps (path, class index) pairs plus per-class
//     inverse-frequency weights.
//
// ClipDataset
//   - Lazily reads one clip per Example call, crops a temporal window,
//     augments it consistently across frames and returns a Sample shaped
//     [1, C, L, H, W] with a [1, K] one-hot label.
//
// Collate / ClipBatchFlat
//   - Concatenate samples into contiguous float32 buffers that convert to
//     gomlx tensors with ToGomlxTensors.
//
// Batching order, shuffling, weighted sampling and worker pools live in the
// loader package; this package never keeps random state between calls.

// Dataset is the minimal interface the loader needs from a clip dataset.
// Example must be safe for concurrent use as long as each call gets its own
// rng.
type Dataset interface {
	Len() int
	NumClasses() int
	Label(i int) (int, error)
	Example(i int, rng *rand.Rand) (*Sample, error)
}
