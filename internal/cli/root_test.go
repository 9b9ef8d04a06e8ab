package cli

import (
	"io"
	"testing"

	"github.com/mathmotion/mathmotion/pkg/errors"
	"github.com/mathmotion/mathmotion/pkg/render"
)

func newTestCLI() *CLI {
	return New(io.Discard, LogInfo)
}

func TestRootCommandSubcommands(t *testing.T) {
	root := newTestCLI().RootCommand()

	want := map[string]bool{
		"render2d":   false,
		"render3d":   false,
		"volume":     false,
		"serve":      false,
		"cache":      false,
		"completion": false,
	}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		input   string
		want    render.AxisRange
		wantErr bool
	}{
		{input: "-6,6", want: render.AxisRange{Min: -6, Max: 6}},
		{input: " 0 , 4 ", want: render.AxisRange{Min: 0, Max: 4}},
		{input: "-3.5,3.5", want: render.AxisRange{Min: -3.5, Max: 3.5}},
		{input: "6", wantErr: true},
		{input: "1,2,3", wantErr: true},
		{input: "a,b", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseRange(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseRange(%q) succeeded, want error", tt.input)
				}
				if !errors.Is(err, errors.ErrCodeInvalidRange) {
					t.Errorf("error code = %q, want INVALID_RANGE", errors.GetCode(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRange(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseRange(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuildJob2D(t *testing.T) {
	opts := renderOpts{quality: "high", xrange: "-2,2", latex: true}
	cfg := defaultConfig()

	job, err := opts.buildJob(cfg, render.SceneGraph2D, "x^2")
	if err != nil {
		t.Fatalf("buildJob error: %v", err)
	}
	if job.Expr2D != "x^2" || job.Expr3D != "" {
		t.Errorf("expressions = %q / %q", job.Expr2D, job.Expr3D)
	}
	if job.Quality != render.QualityHigh {
		t.Errorf("quality = %q", job.Quality)
	}
	if job.X != (render.AxisRange{Min: -2, Max: 2}) {
		t.Errorf("X = %+v", job.X)
	}
	if !job.TypesetLabels {
		t.Error("TypesetLabels not set")
	}
	if job.OutputPath != "graph2d.mp4" {
		t.Errorf("OutputPath = %q", job.OutputPath)
	}
}

func TestBuildJob3DUsesExpr3D(t *testing.T) {
	opts := renderOpts{quality: "fast"}
	job, err := opts.buildJob(defaultConfig(), render.SceneGraph3D, "sin(x)*cos(y)")
	if err != nil {
		t.Fatalf("buildJob error: %v", err)
	}
	if job.Expr3D != "sin(x)*cos(y)" || job.Expr2D != "" {
		t.Errorf("expressions = %q / %q", job.Expr2D, job.Expr3D)
	}
	if job.OutputPath != "graph3d.mp4" {
		t.Errorf("OutputPath = %q", job.OutputPath)
	}
}

func TestBuildJobRejectsBadQuality(t *testing.T) {
	opts := renderOpts{quality: "best"}
	_, err := opts.buildJob(defaultConfig(), render.SceneGraph2D, "x")
	if !errors.Is(err, errors.ErrCodeInvalidQuality) {
		t.Fatalf("error code = %q, want INVALID_QUALITY", errors.GetCode(err))
	}
}

func TestOutputPathFlagWins(t *testing.T) {
	opts := renderOpts{output: "custom/name.mp4"}
	if got := opts.outputPath(defaultConfig(), render.SceneVolume); got != "custom/name.mp4" {
		t.Errorf("outputPath = %q", got)
	}
}

func TestNewCacheNone(t *testing.T) {
	c := newTestCLI()
	cfg := defaultConfig()
	cfg.Cache.Backend = "none"

	store := c.newCache(t.Context(), cfg, false)
	if _, hit, _ := store.Get(t.Context(), "anything"); hit {
		t.Error("null cache reported a hit")
	}
}
