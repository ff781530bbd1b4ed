package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Noofbiz/cliploader/config"
	"github.com/Noofbiz/cliploader/datasets"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	var saveClassNames string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "List classes, clip counts and sampling weights",
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := ctx.buildIndex()
			if err != nil {
				return err
			}

			names := idx.ClassNames()
			counts := idx.ClassCounts()
			weights := idx.ClassWeights()
			rows := make([][]string, len(names))
			for i, name := range names {
				rows[i] = []string{
					strconv.Itoa(i),
					name,
					humanize.Comma(int64(counts[i])),
					strconv.FormatFloat(weights[i], 'f', 4, 64),
				}
			}
			footer := []string{"", "total", humanize.Comma(int64(idx.Len())), ""}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Dataset %s\n", idx.Root)
			fmt.Fprintln(out, renderTable(
				[]string{"Label", "Class", "Clips", "Weight"},
				rows,
				footer,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight},
			))

			if saveClassNames != "" {
				target, err := config.ExpandPath(saveClassNames)
				if err != nil {
					return fmt.Errorf("resolve class name path: %w", err)
				}
				if err := idx.SaveClassNames(target); err != nil {
					return fmt.Errorf("save class names: %w", err)
				}
				fmt.Fprintf(out, "Wrote %d class names to %s\n", idx.NumClasses(), target)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&saveClassNames, "save-class-names", "", "Write the class names, one per line, to this file")
	return cmd
}

// buildIndex indexes the configured data root without decoding any clip.
func (c *commandContext) buildIndex() (*datasets.ClipIndex, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	idx, err := datasets.BuildClipIndex(cfg.Loader.DataRoot, cfg.Loader.Extensions...)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", cfg.Loader.DataRoot, err)
	}
	return idx, nil
}
