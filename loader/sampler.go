package loader

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Noofbiz/cliploader/cliperr"
)

// sampler plans the n clip indices of one epoch, n being the number of clips.
type sampler interface {
	draw(rng *rand.Rand, n int) []int
}

// shuffleSampler visits every clip exactly once per epoch.
type shuffleSampler struct{}

func (shuffleSampler) draw(rng *rand.Rand, n int) []int {
	return rng.Perm(n)
}

// weightedSampler draws clips with replacement, proportionally to their
// weight.
type weightedSampler struct {
	dist distuv.Categorical
}

func newWeightedSampler(weights []float64, src rand.Source) (*weightedSampler, error) {
	var sum float64
	for i, w := range weights {
		if w < 0 {
			return nil, cliperr.Configurationf("weighted sampler", "weight %d is negative (%v)", i, w)
		}
		sum += w
	}
	if sum == 0 {
		return nil, cliperr.Configurationf("weighted sampler", "all %d sample weights are zero", len(weights))
	}
	return &weightedSampler{dist: distuv.NewCategorical(weights, src)}, nil
}

// draw ignores rng: the categorical distribution already reads from the
// loader's source.
func (s *weightedSampler) draw(_ *rand.Rand, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = int(s.dist.Rand())
	}
	return out
}
