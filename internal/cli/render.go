package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mathmotion/mathmotion/pkg/errors"
	"github.com/mathmotion/mathmotion/pkg/expr"
	"github.com/mathmotion/mathmotion/pkg/render"
)

// renderOpts holds the command-line flags shared by the render commands.
type renderOpts struct {
	output     string // artifact path (defaults under the configured output dir)
	quality    string // quality tier name or renderer code
	xrange     string // x axis as "min,max"
	yrange     string // y axis as "min,max"
	zrange     string // z axis as "min,max"
	latex      bool   // typeset labels instead of plain text
	preview    bool   // open the artifact when done
	noCache    bool   // bypass the helper-result cache
	configPath string // explicit config file
}

// addRenderFlags registers the flags shared by render2d, render3d, and volume.
func addRenderFlags(cmd *cobra.Command, opts *renderOpts) {
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output video file (defaults under the configured output dir)")
	cmd.Flags().StringVarP(&opts.quality, "quality", "q", "fast", "render quality: fast, medium, high, ultra")
	cmd.Flags().StringVar(&opts.xrange, "xrange", "", `x axis as "min,max"`)
	cmd.Flags().StringVar(&opts.yrange, "yrange", "", `y axis as "min,max"`)
	cmd.Flags().StringVar(&opts.zrange, "zrange", "", `z axis as "min,max"`)
	cmd.Flags().BoolVar(&opts.latex, "latex", false, "typeset axis labels and titles with LaTeX")
	cmd.Flags().BoolVarP(&opts.preview, "preview", "p", false, "open the video when the render finishes")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the symbolic-helper result cache")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/mathmotion/config.toml)")
}

// render2DCommand creates the render2d command.
func (c *CLI) render2DCommand() *cobra.Command {
	opts := renderOpts{}
	cmd := &cobra.Command{
		Use:   "render2d <expression>",
		Short: "Animate y = f(x) on a 2D axis",
		Long: `Render an animated 2D graph of y = f(x).

Examples:
  mathmotion render2d "sin(x)*exp(-x/4)"
  mathmotion render2d "x^2 - 2*x" --xrange=-4,4 -q high --latex`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), &opts, render.SceneGraph2D, args[0])
		},
	}
	addRenderFlags(cmd, &opts)
	return cmd
}

// render3DCommand creates the render3d command.
func (c *CLI) render3DCommand() *cobra.Command {
	opts := renderOpts{}
	cmd := &cobra.Command{
		Use:   "render3d <expression>",
		Short: "Animate z = f(x, y) as a rotating surface",
		Long: `Render an animated 3D surface of z = f(x, y).

Examples:
  mathmotion render3d "sin(x)*cos(y)"
  mathmotion render3d "x^2 - y^2" --zrange=-8,8 -q medium`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), &opts, render.SceneGraph3D, args[0])
		},
	}
	addRenderFlags(cmd, &opts)
	return cmd
}

// volumeCommand creates the volume command. Without --interactive it renders
// directly like render2d; with it, a terminal form collects the parameters.
func (c *CLI) volumeCommand() *cobra.Command {
	opts := renderOpts{}
	var interactive bool
	cmd := &cobra.Command{
		Use:   "volume [expression]",
		Short: "Animate the solid of revolution of y = f(x)",
		Long: `Render the solid formed by rotating y = f(x) around the x axis.

Examples:
  mathmotion volume "sqrt(x)" --xrange=0,4
  mathmotion volume --interactive`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive {
				return c.runVolumeForm(cmd.Context(), &opts)
			}
			if len(args) != 1 {
				return errors.New(errors.ErrCodeInvalidInput, "an expression is required unless --interactive is set")
			}
			return c.runRender(cmd.Context(), &opts, render.SceneVolume, args[0])
		},
	}
	addRenderFlags(cmd, &opts)
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "collect parameters through a terminal form")
	return cmd
}

// runRender executes one render end to end: config, job, submit, report.
func (c *CLI) runRender(ctx context.Context, opts *renderOpts, scene render.Scene, exprText string) error {
	logger := loggerFromContext(ctx)

	cfg, err := LoadConfig(opts.configPath)
	if err != nil {
		return err
	}

	job, err := opts.buildJob(cfg, scene, exprText)
	if err != nil {
		return err
	}

	sub := c.newSubmitter(ctx, cfg, opts.noCache)
	prog := newProgress(logger)

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", filepath.Base(job.OutputPath)))
	spinner.Start()

	res, err := sub.Submit(ctx, job)
	if err != nil {
		spinner.StopWithError(errors.UserMessage(err))
		return err
	}
	spinner.Stop()

	prog.done(fmt.Sprintf("Rendered %s", filepath.Base(res.ArtifactPath)))
	printSuccess("%s", StyleValue.Render(res.ArtifactPath))
	printDetail("label: %s", res.Label)
	if res.IntegralTeX != "" {
		printDetail("integral: %s", res.IntegralTeX)
	}
	return nil
}

// buildJob turns flags plus config into a validated-by-Submit render job.
func (o *renderOpts) buildJob(cfg *Config, scene render.Scene, exprText string) (*render.Job, error) {
	quality, err := render.ParseQuality(o.quality)
	if err != nil {
		return nil, err
	}

	job := &render.Job{
		Scene:         scene,
		Quality:       quality,
		TypesetLabels: o.latex,
		Preview:       o.preview,
		OutputPath:    o.outputPath(cfg, scene),
	}
	if scene == render.SceneGraph3D {
		job.Expr3D = exprText
	} else {
		job.Expr2D = exprText
	}

	for _, axis := range []struct {
		flag string
		dst  *render.AxisRange
	}{
		{o.xrange, &job.X},
		{o.yrange, &job.Y},
		{o.zrange, &job.Z},
	} {
		if axis.flag == "" {
			continue
		}
		r, err := parseRange(axis.flag)
		if err != nil {
			return nil, err
		}
		*axis.dst = r
	}
	return job, nil
}

// outputPath picks the artifact path: the -o flag verbatim, or a scene-named
// file under the configured output directory.
func (o *renderOpts) outputPath(cfg *Config, scene render.Scene) string {
	if o.output != "" {
		return o.output
	}
	name := map[render.Scene]string{
		render.SceneGraph2D: "graph2d.mp4",
		render.SceneGraph3D: "graph3d.mp4",
		render.SceneVolume:  "volume.mp4",
	}[scene]
	return filepath.Join(cfg.Output.Dir, name)
}

// parseRange parses a "min,max" flag value. Each side takes any
// variable-free expression, so "--xrange=0,2*pi" works.
func parseRange(s string) (render.AxisRange, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return render.AxisRange{}, errors.New(errors.ErrCodeInvalidRange, `range %q must be "min,max"`, s)
	}
	min, err := expr.ParseBound(parts[0])
	if err != nil {
		return render.AxisRange{}, errors.New(errors.ErrCodeInvalidRange, "range minimum %q is not a number", strings.TrimSpace(parts[0]))
	}
	max, err := expr.ParseBound(parts[1])
	if err != nil {
		return render.AxisRange{}, errors.New(errors.ErrCodeInvalidRange, "range maximum %q is not a number", strings.TrimSpace(parts[1]))
	}
	return render.AxisRange{Min: min, Max: max}, nil
}
