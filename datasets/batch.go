package datasets

import (
	"slices"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/Noofbiz/cliploader/cliperr"
)

// Sample is one assembled clip: a [1, C, L, H, W] buffer and a [1, K]
// one-hot label. The leading 1 marks it as a single unit awaiting
// concatenation.
type Sample struct {
	Clip     []float32
	ClipDims []int
	Label    []float32
	Class    int
}

// LabelDims returns [1, K].
func (s *Sample) LabelDims() []int { return []int{1, len(s.Label)} }

// ToGomlxTensors converts the sample into gomlx tensors.
func (s *Sample) ToGomlxTensors() (clip *tensors.Tensor, label *tensors.Tensor) {
	clip = tensors.FromFlatDataAndDimensions(s.Clip, s.ClipDims...)
	label = tensors.FromFlatDataAndDimensions(s.Label, s.LabelDims()...)
	return clip, label
}

// OneHot returns a length k vector with 1 at class.
func OneHot(class, k int) []float32 {
	v := make([]float32, k)
	if class >= 0 && class < k {
		v[class] = 1
	}
	return v
}

// ClipBatchFlat stores a batch in flat contiguous buffers.
type ClipBatchFlat struct {
	Clips      []float32
	Labels     []float32
	BatchSize  int
	ClipDims   []int // per-sample dims without the batch dimension: C, L, H, W
	NumClasses int
	Classes    []int
}

// Dims returns [N, C, L, H, W].
func (b *ClipBatchFlat) Dims() []int {
	return append([]int{b.BatchSize}, b.ClipDims...)
}

// LabelDims returns [N, K].
func (b *ClipBatchFlat) LabelDims() []int {
	return []int{b.BatchSize, b.NumClasses}
}

// Collate concatenates samples along their leading dimension, preserving
// order. Every sample must share the same non-batch dimensions and class
// count; a mismatch is a cliperr.Shape error.
func Collate(samples []*Sample) (*ClipBatchFlat, error) {
	if len(samples) == 0 {
		return nil, cliperr.Shapef("collate", "no samples")
	}
	first := samples[0]
	if err := checkSample(0, first); err != nil {
		return nil, err
	}
	clipDims := slices.Clone(first.ClipDims[1:])
	numClasses := len(first.Label)
	clipSize := len(first.Clip)

	b := &ClipBatchFlat{
		Clips:      make([]float32, 0, clipSize*len(samples)),
		Labels:     make([]float32, 0, numClasses*len(samples)),
		BatchSize:  len(samples),
		ClipDims:   clipDims,
		NumClasses: numClasses,
		Classes:    make([]int, len(samples)),
	}
	for i, s := range samples {
		if err := checkSample(i, s); err != nil {
			return nil, err
		}
		if !slices.Equal(s.ClipDims[1:], clipDims) {
			return nil, cliperr.Shapef("collate", "sample %d has dims %v, sample 0 has %v", i, s.ClipDims, first.ClipDims)
		}
		if len(s.Label) != numClasses {
			return nil, cliperr.Shapef("collate", "sample %d has %d classes, sample 0 has %d", i, len(s.Label), numClasses)
		}
		b.Clips = append(b.Clips, s.Clip...)
		b.Labels = append(b.Labels, s.Label...)
		b.Classes[i] = s.Class
	}
	return b, nil
}

func checkSample(i int, s *Sample) error {
	if s == nil {
		return cliperr.Shapef("collate", "sample %d is nil", i)
	}
	if len(s.ClipDims) == 0 || s.ClipDims[0] != 1 {
		return cliperr.Shapef("collate", "sample %d has dims %v, want a leading 1", i, s.ClipDims)
	}
	n := 1
	for _, d := range s.ClipDims {
		n *= d
	}
	if n != len(s.Clip) {
		return cliperr.Shapef("collate", "sample %d has %d values for dims %v", i, len(s.Clip), s.ClipDims)
	}
	return nil
}

// ToGomlxTensors converts the batch to a [N, C, L, H, W] clip tensor and a
// [N, K] label tensor.
func (b *ClipBatchFlat) ToGomlxTensors() (*tensors.Tensor, *tensors.Tensor) {
	clips := tensors.FromFlatDataAndDimensions(b.Clips, b.Dims()...)
	labels := tensors.FromFlatDataAndDimensions(b.Labels, b.LabelDims()...)
	return clips, labels
}
