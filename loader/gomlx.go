package loader

import (
	"context"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/datasets"
	"github.com/gomlx/gomlx/pkg/ml/train"
)

var _ train.Dataset = (*Loader)(nil)

// Name implements train.Dataset.
func (l *Loader) Name() string { return l.name }

// Yield implements train.Dataset. It returns the loader as spec, the clips
// shaped [B, C, L, H, W] as the only input and the one-hot labels shaped
// [B, K] as the only label. io.EOF marks the end of the epoch.
func (l *Loader) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	batch, err := l.Next(context.Background())
	if err != nil {
		return nil, nil, nil, err
	}
	clips, onehot := batch.ToGomlxTensors()
	return l, []*tensors.Tensor{clips}, []*tensors.Tensor{onehot}, nil
}

// Prefetch wraps the loader so batches are assembled in background
// goroutines while the caller consumes earlier ones. Batch order across
// goroutines is not preserved.
func (l *Loader) Prefetch() train.Dataset {
	return datasets.Parallel(l)
}
