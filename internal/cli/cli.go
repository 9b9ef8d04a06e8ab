package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mathmotion/mathmotion/pkg/bound"
	"github.com/mathmotion/mathmotion/pkg/buildinfo"
	"github.com/mathmotion/mathmotion/pkg/cache"
	"github.com/mathmotion/mathmotion/pkg/render"
)

const (
	// appName is the application name used for directories and display.
	appName = "mathmotion"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "MathMotion animates math expressions as videos",
		Long:         `MathMotion turns plain math expressions like sin(x)*exp(-x/4) into animated graph and volume videos by driving an external animation renderer.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.render2DCommand())
	root.AddCommand(c.render3DCommand())
	root.AddCommand(c.volumeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newSubmitter builds a renderer submitter from the loaded config.
func (c *CLI) newSubmitter(ctx context.Context, cfg *Config, noCache bool) *render.Submitter {
	return render.NewSubmitter(cfg.renderConfig(), c.newEstimator(ctx, cfg, noCache), c.Logger)
}

// newEstimator assembles the bound estimation chain: the symbolic helper
// when configured, always backed by the local numeric fallback.
func (c *CLI) newEstimator(ctx context.Context, cfg *Config, noCache bool) bound.Estimator {
	estimators := []bound.Estimator{}
	if !cfg.Wolfram.Disabled {
		estimators = append(estimators, bound.NewWolfram(bound.WolframConfig{
			Bin:    cfg.Wolfram.Bin,
			Script: cfg.Wolfram.Script,
		}, c.newCache(ctx, cfg, noCache)))
	}
	estimators = append(estimators, bound.NewLocal())
	return bound.NewChain(c.Logger, estimators...)
}

// newCache picks the helper-result cache backend. Backend failures degrade
// to the null cache: estimation still works, just without reuse.
func (c *CLI) newCache(ctx context.Context, cfg *Config, noCache bool) cache.Cache {
	if noCache || cfg.Cache.Backend == "none" {
		return cache.NewNullCache()
	}
	if cfg.Cache.Backend == "redis" {
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			c.Logger.Warn("redis cache unavailable, continuing without cache", "err", err)
			return cache.NewNullCache()
		}
		return rc
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache()
		}
		dir = d
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return fc
}
