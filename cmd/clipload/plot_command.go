package main

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Noofbiz/cliploader/datasets"
)

func newPlotCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Chart the number of clips per class as a PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := ctx.buildIndex()
			if err != nil {
				return err
			}
			if err := plotDistribution(idx, outPath); err != nil {
				return fmt.Errorf("plot class distribution: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote class distribution of %d classes to %s\n", idx.NumClasses(), outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "class_distribution.png", "Output image path")
	return cmd
}

// plotDistribution writes a bar chart with one bar per class.
func plotDistribution(idx *datasets.ClipIndex, outPath string) error {
	if idx.NumClasses() == 0 {
		return fmt.Errorf("dataset %s has no classes", idx.Root)
	}
	counts := idx.ClassCounts()
	values := make(plotter.Values, len(counts))
	for i, c := range counts {
		values[i] = float64(c)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Clips per class (%d clips)", idx.Len())
	p.Y.Label.Text = "clips"

	bars, err := plotter.NewBarChart(values, vg.Points(16))
	if err != nil {
		return err
	}
	bars.Color = color.RGBA{R: 20, G: 80, B: 200, A: 220}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.Add(plotter.NewGrid())
	p.NominalX(idx.ClassNames()...)

	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	width := vg.Length(max(6, idx.NumClasses()/2)) * vg.Inch
	return p.Save(width, 4*vg.Inch, outPath)
}
