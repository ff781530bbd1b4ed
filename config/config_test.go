package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/Noofbiz/cliploader/cliperr"
	"github.com/Noofbiz/cliploader/config"
	"github.com/Noofbiz/cliploader/spatial"
	"github.com/Noofbiz/cliploader/temporal"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clipload.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestSampleConfigLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "clipload.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if cfg.LoaderName() != "RGB" {
		t.Fatalf("unexpected loader name %q", cfg.LoaderName())
	}
	lc, err := cfg.LoaderConfig()
	if err != nil {
		t.Fatalf("LoaderConfig: %v", err)
	}
	if lc.BatchSize != 8 || lc.OutFrameNum != 32 || lc.NumWorkers != 8 {
		t.Fatalf("unexpected batching settings %+v", lc)
	}
	if lc.OutputSize != (spatial.Size{Width: 224, Height: 224}) {
		t.Fatalf("unexpected output size %+v", lc.OutputSize)
	}
	if lc.ChannelOrder != spatial.BGR || lc.TemporalPolicy != temporal.Loop {
		t.Fatalf("unexpected channel order %v or policy %v", lc.ChannelOrder, lc.TemporalPolicy)
	}
	a := lc.Augmentation
	if a == nil || len(a.Color) != 4 || a.HFlip == nil || *a.HFlip != 0.5 || a.Rotation == nil || *a.Rotation != 10 {
		t.Fatalf("unexpected augmentation %+v", a)
	}
	if lc.Normalize != nil {
		t.Fatalf("expected no normalization in the sample")
	}
	if !strings.Contains(config.Sample(), "[augmentation]") {
		t.Fatalf("sample is missing the augmentation table")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "[loader]\ndata_root = \"clips\"\n")
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Augmentation != nil {
		t.Fatalf("expected no augmentation without the table")
	}
	lc, err := cfg.LoaderConfig()
	if err != nil {
		t.Fatal(err)
	}
	if lc.DataRoot != "clips" || lc.BatchSize != 8 || lc.Augmentation != nil {
		t.Fatalf("unexpected loader config %+v", lc)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging defaults %+v", cfg.Logging)
	}
}

func TestLoadExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := writeConfig(t, "[loader]\ndata_root = \"~/clips\"\nsave_class_name = \"~/meta/classes.txt\"\n")
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Loader.DataRoot != filepath.Join(home, "clips") {
		t.Fatalf("unexpected data root %q", cfg.Loader.DataRoot)
	}
	if cfg.Loader.SaveClassName != filepath.Join(home, "meta", "classes.txt") {
		t.Fatalf("unexpected class name file %q", cfg.Loader.SaveClassName)
	}
}

func TestValidateMessages(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing root", "[loader]\nbatch_size = 4\n", "loader.data_root must be set"},
		{"batch size", "[loader]\ndata_root = \"d\"\nbatch_size = 0\n", "loader.batch_size must be positive"},
		{"workers", "[loader]\ndata_root = \"d\"\nnum_workers = -2\n", "loader.num_workers must be >= 0"},
		{"name", "[loader]\ndata_root = \"d\"\nname = \"Flow\"\n", "loader.name must be one of RGB"},
		{"size", "[loader]\ndata_root = \"d\"\n[transform]\noutput_size = [224]\n", "transform.output_size"},
		{"order", "[loader]\ndata_root = \"d\"\n[transform]\nchannel_order = \"yuv\"\n", "transform.channel_order must be bgr or rgb"},
		{"policy", "[loader]\ndata_root = \"d\"\n[transform]\ntemporal_policy = \"mirror\"\n", "transform.temporal_policy"},
		{"std", "[loader]\ndata_root = \"d\"\n[transform]\nmean = [0.5, 0.5, 0.5]\nstd = [0.5, 0.0, 0.5]\n", "transform.std values must be non-zero"},
		{"color", "[loader]\ndata_root = \"d\"\n[augmentation]\ncolor = [0.1, 0.2]\n", "augmentation.color must be 4 values"},
		{"hue", "[loader]\ndata_root = \"d\"\n[augmentation]\ncolor = [0.1, 0.1, 0.1, 0.9]\n", "hue must be in [0, 0.5]"},
		{"flip", "[loader]\ndata_root = \"d\"\n[augmentation]\nh_flip = 1.5\n", "augmentation.h_flip must be between 0 and 1"},
		{"negative color", "[loader]\ndata_root = \"d\"\n[augmentation]\ncolor = [0.1, -0.1, 0.1, 0.1]\n", "value 1 must be >= 0"},
		{"rotation", "[loader]\ndata_root = \"d\"\n[augmentation]\nrotation = -3.0\n", "augmentation.rotation must be >= 0"},
		{"level", "[loader]\ndata_root = \"d\"\n[logging]\nlevel = \"loud\"\n", "logging.level"},
		{"format", "[loader]\ndata_root = \"d\"\n[logging]\nformat = \"xml\"\n", "logging.format must be console or json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tc.body))
			if !errors.Is(err, cliperr.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestLoadRejectsUnknownKeysAndMissingFile(t *testing.T) {
	path := writeConfig(t, "[loader]\ndata_root = \"d\"\nbatchsize = 3\n")
	if _, err := config.Load(path); !errors.Is(err, cliperr.ErrConfiguration) {
		t.Fatalf("expected configuration error for unknown key, got %v", err)
	}
	if _, err := config.Load(filepath.Join(t.TempDir(), "none.toml")); !errors.Is(err, cliperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	flip, rot := 0.25, 5.0
	want := config.Default()
	want.Loader.DataRoot = "clips"
	want.Loader.UseSampler = true
	want.Loader.Seed = 99
	want.Transform.OutputSize = []int{112, 96}
	want.Transform.ChannelOrder = "rgb"
	want.Transform.TemporalPolicy = "pad"
	want.Transform.Mean = []float32{0.5, 0.5, 0.5}
	want.Transform.Std = []float32{0.25, 0.25, 0.25}
	want.Augmentation = &config.Augmentation{Color: []float64{0.1, 0.2, 0.3, 0.05}, HFlip: &flip, Rotation: &rot}

	data, err := toml.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	cfg, err := config.Load(writeConfig(t, string(data)))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	lc, err := cfg.LoaderConfig()
	if err != nil {
		t.Fatal(err)
	}
	if !lc.UseSampler || lc.Seed != 99 || lc.OutputSize != (spatial.Size{Width: 112, Height: 96}) {
		t.Fatalf("unexpected loader config %+v", lc)
	}
	if lc.ChannelOrder != spatial.RGB || lc.TemporalPolicy != temporal.Pad {
		t.Fatalf("unexpected order %v or policy %v", lc.ChannelOrder, lc.TemporalPolicy)
	}
	if lc.Normalize == nil || lc.Normalize.Std[1] != 0.25 {
		t.Fatalf("unexpected normalization %+v", lc.Normalize)
	}
	if lc.Augmentation == nil || *lc.Augmentation.HFlip != 0.25 || lc.Augmentation.Color[2] != 0.3 {
		t.Fatalf("unexpected augmentation %+v", lc.Augmentation)
	}
}
