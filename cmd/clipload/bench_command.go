package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Noofbiz/cliploader/loader"
)

type benchResult struct {
	batches int
	samples int
	elapsed time.Duration
}

func newBenchCommand(ctx *commandContext) *cobra.Command {
	var epochs int
	var prefetch bool

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time full epochs of batch assembly",
		RunE: func(cmd *cobra.Command, args []string) error {
			if epochs < 1 {
				return fmt.Errorf("--epochs must be at least 1")
			}
			l, err := ctx.newLoader()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Loader %s: %s clips, %d batches of %d per epoch, %d workers\n",
				l.Name(), humanize.Comma(int64(l.NumSamples())), l.Len(), l.Config().BatchSize, l.Config().NumWorkers)

			var total benchResult
			for epoch := 0; epoch < epochs; epoch++ {
				if epoch > 0 {
					l.Reset()
				}
				res, err := benchEpoch(cmd.Context(), l, prefetch, out)
				if err != nil {
					return fmt.Errorf("epoch %d: %w", epoch+1, err)
				}
				total.batches += res.batches
				total.samples += res.samples
				total.elapsed += res.elapsed
			}

			rate := float64(total.samples) / max(total.elapsed.Seconds(), 1e-9)
			fmt.Fprintf(out, "Assembled %s samples in %s batches over %d epoch(s) in %s (%.1f samples/s)\n",
				humanize.Comma(int64(total.samples)), humanize.Comma(int64(total.batches)), epochs,
				total.elapsed.Round(time.Millisecond), rate)
			return nil
		},
	}

	cmd.Flags().IntVar(&epochs, "epochs", 1, "Number of epochs to run")
	cmd.Flags().BoolVar(&prefetch, "prefetch", false, "Assemble batches in background goroutines")
	return cmd
}

// benchEpoch drains one epoch, through the prefetching wrapper when asked.
func benchEpoch(ctx context.Context, l *loader.Loader, prefetch bool, out io.Writer) (benchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var bar *progressbar.ProgressBar
	if showProgress(out) {
		bar = progressbar.NewOptions(l.Len(),
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("batches"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var res benchResult
	start := time.Now()
	if prefetch {
		ds := l.Prefetch()
		for {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			_, inputs, _, err := ds.Yield()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return res, err
			}
			res.batches++
			res.samples += inputs[0].Shape().Dimensions[0]
			if bar != nil {
				_ = bar.Add(1)
			}
		}
	} else {
		for batch, err := range l.Batches(ctx) {
			if err != nil {
				return res, err
			}
			res.batches++
			res.samples += batch.BatchSize
			if bar != nil {
				_ = bar.Add(1)
			}
		}
	}
	res.elapsed = time.Since(start)
	if bar != nil {
		_ = bar.Finish()
	}
	return res, nil
}

func showProgress(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
