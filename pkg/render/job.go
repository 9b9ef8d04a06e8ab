// Package render implements the render job protocol: it packages a validated
// expression and its axis ranges into one invocation of the external
// animation renderer, supervises the child process, and relocates the video
// artifact to the caller's target path.
//
// The renderer is an opaque collaborator. Job fields cross the process
// boundary as environment variables and argv entries, never a shell command
// line, and the renderer's exit status plus captured output streams are the
// whole result contract.
//
// # Usage
//
//	sub := render.NewSubmitter(cfg, estimator, logger)
//	job := &render.Job{
//	    Scene:      render.SceneGraph2D,
//	    Expr2D:     "sin(x)",
//	    X:          render.AxisRange{Min: -6, Max: 6},
//	    Quality:    render.QualityFast,
//	    OutputPath: "out/sine.mp4",
//	}
//	res, err := sub.Submit(ctx, job)
package render

import (
	"strconv"
	"time"

	"github.com/mathmotion/mathmotion/pkg/errors"
	"github.com/mathmotion/mathmotion/pkg/expr"
)

// Scene identifies which canned animation the renderer should run. The
// values are the scene class names the renderer expects on its command line.
type Scene string

// Supported scenes.
const (
	SceneGraph2D Scene = "Graph2DScene"
	SceneGraph3D Scene = "Graph3DScene"
	SceneVolume  Scene = "RotatingVolumeScene"
)

// ParseScene maps user-facing scene names to Scene values.
func ParseScene(s string) (Scene, error) {
	switch s {
	case "graph2d", "2d", string(SceneGraph2D):
		return SceneGraph2D, nil
	case "graph3d", "3d", string(SceneGraph3D):
		return SceneGraph3D, nil
	case "volume", string(SceneVolume):
		return SceneVolume, nil
	}
	return "", errors.New(errors.ErrCodeInvalidScene, "invalid scene: %q (must be 'graph2d', 'graph3d', or 'volume')", s)
}

// Quality is the ordered render quality tier.
type Quality string

// Quality tiers, fastest first.
const (
	QualityFast   Quality = "fast"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
	QualityUltra  Quality = "ultra"
)

// qualityCodes maps tiers to the single-letter codes the renderer's -q flag
// expects.
var qualityCodes = map[Quality]string{
	QualityFast:   "l",
	QualityMedium: "m",
	QualityHigh:   "h",
	QualityUltra:  "k",
}

// Code returns the renderer's single-letter code for the tier.
func (q Quality) Code() string {
	return qualityCodes[q]
}

// ParseQuality accepts tier names and renderer codes.
func ParseQuality(s string) (Quality, error) {
	switch s {
	case "fast", "l":
		return QualityFast, nil
	case "medium", "m":
		return QualityMedium, nil
	case "high", "h":
		return QualityHigh, nil
	case "ultra", "k", "4k":
		return QualityUltra, nil
	}
	return "", errors.New(errors.ErrCodeInvalidQuality, "invalid quality: %q (must be 'fast', 'medium', 'high', or 'ultra')", s)
}

// AxisRange is one axis extent with an optional tick step.
type AxisRange struct {
	Min, Max float64
	Step     float64
}

// Normalize returns a well-formed range: reversed bounds are swapped, a
// degenerate zero-width interval is widened to one unit, and a missing step
// gets a tick size of roughly a tenth of the span (minimum 1).
func (r AxisRange) Normalize() AxisRange {
	if r.Min > r.Max {
		r.Min, r.Max = r.Max, r.Min
	}
	if r.Min == r.Max {
		r.Max = r.Min + 1
	}
	if r.Step <= 0 {
		r.Step = (r.Max - r.Min) / 10
		if r.Step < 1 {
			r.Step = 1
		}
	}
	return r
}

// envString renders the range in the "min,max" form the renderer reads.
func (r AxisRange) envString() string {
	return strconv.FormatFloat(r.Min, 'g', -1, 64) + "," + strconv.FormatFloat(r.Max, 'g', -1, 64)
}

// Job is the unit of work handed to the renderer. A Job is constructed by a
// presentation shell, consumed exactly once by Submitter.Submit, and then
// discarded; the only durable trace is the artifact file.
type Job struct {
	// ID names the job in logs. Assigned during validation if empty.
	ID string

	// Scene selects the canned animation.
	Scene Scene

	// Expr2D is the y = f(x) expression (graph2d and volume scenes).
	Expr2D string

	// Expr3D is the z = f(x, y) expression (graph3d scene).
	Expr3D string

	// X, Y, Z are the axis extents. Zero values take scene defaults.
	X, Y, Z AxisRange

	// Quality is the render quality tier. Defaults to QualityFast.
	Quality Quality

	// TypesetLabels selects typeset (LaTeX) axis numbers and titles over
	// plain text.
	TypesetLabels bool

	// Preview asks the renderer to open the artifact when done.
	Preview bool

	// OutputPath is where the artifact must end up.
	OutputPath string

	// Compiled expressions, populated by validate.
	fn2D *expr.Function
	fn3D *expr.Function
}

// Default axis extents, matching the renderer's own defaults.
var (
	defaultXRange = AxisRange{Min: -6, Max: 6, Step: 1}
	defaultYRange = AxisRange{Min: -4, Max: 4, Step: 1}
	defaultZRange = AxisRange{Min: -3.5, Max: 3.5, Step: 1}
)

// validate checks every job field, compiles the expressions through the
// safety layer, and normalizes ranges in place. It is called by Submit
// before anything touches the filesystem or spawns a process.
func (j *Job) validate() error {
	if _, err := ParseScene(string(j.Scene)); err != nil {
		return err
	}

	if j.Quality == "" {
		j.Quality = QualityFast
	}
	if _, ok := qualityCodes[j.Quality]; !ok {
		return errors.New(errors.ErrCodeInvalidQuality, "invalid quality: %q", string(j.Quality))
	}

	if err := errors.ValidateOutputPath(j.OutputPath); err != nil {
		return err
	}

	if (j.X == AxisRange{}) {
		j.X = defaultXRange
	}
	if (j.Y == AxisRange{}) {
		j.Y = defaultYRange
	}
	if (j.Z == AxisRange{}) {
		j.Z = defaultZRange
	}
	j.X = j.X.Normalize()
	j.Y = j.Y.Normalize()
	j.Z = j.Z.Normalize()

	switch j.Scene {
	case SceneGraph3D:
		fn, err := expr.Parse(j.Expr3D, "x", "y")
		if err != nil {
			return err
		}
		j.fn3D = fn
	default:
		fn, err := expr.Parse(j.Expr2D, "x")
		if err != nil {
			return err
		}
		j.fn2D = fn
	}

	return nil
}

// Fn returns the compiled expression the scene animates, available after a
// successful Submit (or validate). Nil before validation.
func (j *Job) Fn() *expr.Function {
	if j.Scene == SceneGraph3D {
		return j.fn3D
	}
	return j.fn2D
}

// Label returns the display label for the job's expression.
func (j *Job) Label() string {
	fn := j.Fn()
	if fn == nil {
		return ""
	}
	return fn.Label(j.TypesetLabels)
}

// Result reports one finished render job. It is never partially populated:
// a Result exists only for a job whose artifact is in place at ArtifactPath.
type Result struct {
	JobID        string
	ArtifactPath string

	// Label is the display label for the rendered expression.
	Label string

	// Magnitude and IntegralTeX are the auxiliary display data from the
	// bound estimator (helper-backed or local).
	Magnitude   float64
	IntegralTeX string

	// Stdout and Stderr carry the renderer's captured streams.
	Stdout, Stderr string

	// Duration is the renderer wall-clock time.
	Duration time.Duration
}
