package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Noofbiz/cliploader/datasets"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <index>",
		Short: "Assemble one sample and print its shapes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			l, err := ctx.newLoader()
			if err != nil {
				return err
			}
			ds := l.Dataset()
			entry, err := ds.Index().Entry(i)
			if err != nil {
				return err
			}
			clip, err := datasets.ReadClip(entry.Path)
			if err != nil {
				return err
			}
			info, err := os.Stat(entry.Path)
			if err != nil {
				return fmt.Errorf("stat clip: %w", err)
			}

			sample, err := ds.Example(i, sampleRNG(l.Config().Seed, i))
			if err != nil {
				return fmt.Errorf("assemble sample %d: %w", i, err)
			}
			clipT, labelT := sample.ToGomlxTensors()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Clip:    %s (%s on disk)\n", entry.Path, humanize.Bytes(uint64(info.Size())))
			fmt.Fprintf(out, "Class:   %s (label %d of %d)\n", ds.Index().ClassNames()[entry.Label], entry.Label, ds.NumClasses())
			fmt.Fprintf(out, "Stored:  %d frames of %dx%dx%d\n", clip.Frames, clip.Height, clip.Width, clip.Channels)
			fmt.Fprintf(out, "Sample:  %s (%s)\n", clipT.Shape(), humanize.Bytes(uint64(len(sample.Clip)*4)))
			fmt.Fprintf(out, "Label:   %s\n", labelT.Shape())
			return nil
		},
	}
}

func parseIndex(arg string) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid clip index %q", arg)
	}
	return i, nil
}

// sampleRNG gives single-sample commands a source that depends only on the
// configured seed and the clip index.
func sampleRNG(seed uint64, i int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(i)))
}
