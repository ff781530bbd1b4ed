package loader

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Noofbiz/cliploader/datasets"
)

// assemble builds the samples of one batch, in parallel when NumWorkers > 0,
// and collates them in plan order.
func (l *Loader) assemble(ctx context.Context, indices []int, seeds []uint64) (*datasets.ClipBatchFlat, error) {
	samples := make([]*datasets.Sample, len(indices))
	if l.cfg.NumWorkers == 0 {
		for pos, idx := range indices {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			s, err := l.ds.Example(idx, sampleRNG(seeds[pos]))
			if err != nil {
				return nil, err
			}
			samples[pos] = s
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(l.cfg.NumWorkers)
		for pos, idx := range indices {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				s, err := l.ds.Example(idx, sampleRNG(seeds[pos]))
				if err != nil {
					return err
				}
				samples[pos] = s
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	l.logger.Debug("collate batch", zap.Int("size", len(samples)))
	return datasets.Collate(samples)
}
