package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mathmotion/mathmotion/internal/web"
)

// serveCommand creates the serve command running the web form.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		outDir     string
		noCache    bool
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web form",
		Long: `Serve a browser form for rendering expressions.

Example:
  mathmotion serve --addr :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = cfg.Output.Dir
			}
			if err := os.MkdirAll(outDir, 0755); err != nil {
				return err
			}

			ctx := cmd.Context()
			sub := c.newSubmitter(ctx, cfg, noCache)
			srv := &http.Server{
				Addr:    addr,
				Handler: web.NewServer(sub, outDir, c.Logger).Handler(),
			}

			errCh := make(chan error, 1)
			go func() {
				c.Logger.Info("serving web form", "addr", addr, "output", outDir)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
				return ctx.Err()
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVarP(&outDir, "output-dir", "o", "", "artifact directory (defaults to the configured output dir)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the symbolic-helper result cache")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default ~/.config/mathmotion/config.toml)")

	return cmd
}
