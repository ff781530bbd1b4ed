package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
)

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "preview <index>",
		Short: "Write the augmented frames of one clip as PNG images",
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
			imgs, st, err := l.Dataset().Images(i, sampleRNG(l.Config().Seed, i))
			if err != nil {
				return fmt.Errorf("transform clip %d: %w", i, err)
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create preview directory %q: %w", outDir, err)
			}
			for t, img := range imgs {
				path := filepath.Join(outDir, fmt.Sprintf("clip%05d_frame%03d.png", i, t))
				if err := imaging.Save(img, path); err != nil {
					return fmt.Errorf("save frame %d: %w", t, err)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %d frames to %s\n", len(imgs), outDir)
			fmt.Fprintf(out, "Flip: %t  Rotate: %t (%.1f degrees)\n", st.Flip, st.Rotate, st.Angle)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "preview", "Output directory")
	return cmd
}
