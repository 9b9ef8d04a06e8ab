package render

import (
	"path/filepath"
	"time"
)

// Default renderer invocation settings.
const (
	// DefaultBin is the renderer binary resolved from PATH.
	DefaultBin = "manim"

	// DefaultSceneFile is the scene module handed to the renderer.
	DefaultSceneFile = "equation_viz.py"

	// DefaultTimeout bounds one render's wall-clock time. High and ultra
	// tiers are slow; anything past this is treated as hung.
	DefaultTimeout = 10 * time.Minute
)

// Config describes how to invoke the external renderer. It is an explicit
// struct passed to NewSubmitter; there is no ambient process-global
// configuration, and serialization to the collaborator's env happens only
// at the Submit call site.
type Config struct {
	// Bin is the renderer executable. Defaults to DefaultBin.
	Bin string

	// SceneFile is the scene module path given to the renderer.
	// Defaults to DefaultSceneFile, resolved relative to WorkDir.
	SceneFile string

	// WorkDir is the renderer's working directory. The renderer writes
	// its media tree underneath it. Defaults to the current directory.
	WorkDir string

	// MediaDir is the root searched for the artifact after a successful
	// exit. Defaults to WorkDir/media.
	MediaDir string

	// Timeout is the per-job wall-clock limit. Defaults to DefaultTimeout.
	Timeout time.Duration
}

// withDefaults returns a copy with zero fields filled in.
func (c Config) withDefaults() Config {
	if c.Bin == "" {
		c.Bin = DefaultBin
	}
	if c.SceneFile == "" {
		c.SceneFile = DefaultSceneFile
	}
	if c.WorkDir == "" {
		c.WorkDir = "."
	}
	if c.MediaDir == "" {
		c.MediaDir = filepath.Join(c.WorkDir, "media")
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
