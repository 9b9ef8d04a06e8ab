package cli

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/mathmotion/mathmotion/pkg/errors"
	"github.com/mathmotion/mathmotion/pkg/render"
)

// Config is the mathmotion configuration file, loaded from TOML. Every
// field has a working default; the file and all sections are optional, and
// command-line flags override file values.
type Config struct {
	Renderer RendererConfig `toml:"renderer"`
	Output   OutputConfig   `toml:"output"`
	Wolfram  WolframConfig  `toml:"wolfram"`
	Cache    CacheConfig    `toml:"cache"`
}

// RendererConfig selects the external renderer installation.
type RendererConfig struct {
	Bin            string `toml:"bin"`
	SceneFile      string `toml:"scene_file"`
	WorkDir        string `toml:"work_dir"`
	MediaDir       string `toml:"media_dir"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// OutputConfig controls where artifacts land.
type OutputConfig struct {
	Dir string `toml:"dir"`
}

// WolframConfig selects the optional symbolic helper.
type WolframConfig struct {
	Bin      string `toml:"bin"`
	Script   string `toml:"script"`
	Disabled bool   `toml:"disabled"`
}

// CacheConfig selects the helper-result cache backend: "file" (default),
// "redis", or "none".
type CacheConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// LoadConfig reads the TOML config at path. An empty path means the default
// location (~/.config/mathmotion/config.toml); a missing file there is not
// an error and yields pure defaults. An explicitly named file must exist.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, "config.toml")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return nil, errors.New(errors.ErrCodeInvalidPath, "config file not found: %s", path)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	return cfg, nil
}

// defaultConfig returns the built-in configuration.
func defaultConfig() *Config {
	return &Config{
		Renderer: RendererConfig{
			Bin:            render.DefaultBin,
			SceneFile:      render.DefaultSceneFile,
			TimeoutSeconds: int(render.DefaultTimeout / time.Second),
		},
		Output:  OutputConfig{Dir: "."},
		Wolfram: WolframConfig{Bin: "wolframscript"},
		Cache:   CacheConfig{Backend: "file"},
	}
}

// renderConfig converts the file section into the render package's config.
func (c *Config) renderConfig() render.Config {
	return render.Config{
		Bin:       c.Renderer.Bin,
		SceneFile: c.Renderer.SceneFile,
		WorkDir:   c.Renderer.WorkDir,
		MediaDir:  c.Renderer.MediaDir,
		Timeout:   time.Duration(c.Renderer.TimeoutSeconds) * time.Second,
	}
}

// configDir returns the config directory using XDG standard
// (~/.config/mathmotion/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// cacheDir returns the cache directory using XDG standard
// (~/.cache/mathmotion/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
