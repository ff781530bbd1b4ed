package main

// Example command that indexes a class-per-directory clip dataset, assembles
// a couple of samples with augmentation and collates them into gomlx tensors.
//
// Clips are only read when a sample is assembled; indexing just lists the
// directories.
//
// Usage:
//   go run ./datasets/example -root data/train
//
// The root must contain one directory per class holding (T, H, W, 3) .npy
// clips.

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"

	"github.com/Noofbiz/cliploader/datasets"
	"github.com/Noofbiz/cliploader/spatial"
)

func main() {
	root := flag.String("root", "data/train", "dataset root")
	frames := flag.Int("frames", 16, "frames per window")
	flag.Parse()

	flip, rotation := 0.5, 10.0
	ds, err := datasets.NewClipDataset(datasets.ClipConfig{
		Root:        *root,
		OutFrameNum: *frames,
		Extensions:  datasets.DefaultExtensions,
		Spatial: spatial.Options{
			OutputSize: spatial.Size{Width: 112, Height: 112},
			Augmentation: &spatial.Augmentation{
				Color:    []float64{0.4, 0.4, 0.4, 0.1},
				HFlip:    &flip,
				Rotation: &rotation,
			},
		},
	})
	if err != nil {
		log.Fatalf("failed to load clip dataset: %v", err)
	}
	fmt.Printf("Using dataset root: %s\n", *root)
	fmt.Printf("Total clips available: %d in %d classes\n", ds.Len(), ds.NumClasses())
	for name, n := range ds.Index().Distribution() {
		fmt.Printf("  %-20s %d clips\n", name, n)
	}

	n := min(2, ds.Len())
	if n == 0 {
		fmt.Println("No clips found, nothing to assemble.")
		return
	}
	indices := make([]int, n)
	for i := range n {
		indices[i] = i
	}

	rng := rand.New(rand.NewPCG(42, 42))
	fmt.Printf("Assembling batch of %d clips...\n", n)
	batch, err := ds.Batch(indices, rng)
	if err != nil {
		log.Fatalf("failed to build clip batch: %v", err)
	}

	clips, labels := batch.ToGomlxTensors()
	fmt.Printf("Created tensors: clips=%s labels=%s\n", clips.Shape(), labels.Shape())
	fmt.Printf("  Classes in batch: %v\n", batch.Classes)

	fmt.Println("\nExample completed successfully!")
}
