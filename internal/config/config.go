package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"starfocus/pkg/starfocus"
)

const envPrefix = "STARFOCUS_"

// Config is the CLI configuration: logging, tile workers and detector params.
type Config struct {
	LogLevel string           `mapstructure:"log_level" yaml:"log_level"`
	Workers  int              `mapstructure:"workers" yaml:"workers"`
	Detector starfocus.Params `mapstructure:"detector" yaml:"detector"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Workers:  runtime.NumCPU(),
		Detector: *starfocus.DefaultParams(),
	}
}

// Load reads path (optional) over the defaults, then applies STARFOCUS_*
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		var doc map[string]interface{}
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
		if err := decode(doc, cfg); err != nil {
			return nil, fmt.Errorf("decoding config %s: %w", path, err)
		}
	}

	if err := decode(envOverrides(), cfg); err != nil {
		return nil, fmt.Errorf("decoding environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the top-level fields and the detector params together.
func (c *Config) Validate() error {
	var err error
	if c.Workers < 1 {
		err = multierr.Append(err, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	return multierr.Append(err, c.Detector.Validate())
}

func decode(input map[string]interface{}, cfg *Config) error {
	if len(input) == 0 {
		return nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

var detectorEnvKeys = []string{
	"noise_region_count",
	"noise_mass_ratio",
	"ray_samples",
	"min_ray_hits",
	"min_scan_radius",
	"hfr_step",
	"median_filter",
	"high_contrast",
	"gaussian_kernel",
}

func envOverrides() map[string]interface{} {
	out := make(map[string]interface{})
	for _, key := range []string{"log_level", "workers"} {
		if v := getEnv(envName(key), ""); v != "" {
			out[key] = v
		}
	}
	detector := make(map[string]interface{})
	for _, key := range detectorEnvKeys {
		if v := getEnv(envName(key), ""); v != "" {
			detector[key] = v
		}
	}
	if len(detector) > 0 {
		out["detector"] = detector
	}
	return out
}

func envName(key string) string {
	return envPrefix + strings.ToUpper(key)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// FileName is the config file looked up in the working directory.
const FileName = "starfocus.yaml"

// DefaultPaths lists the config locations searched when no path is given:
// the working directory, then starfocus/config.yaml under the user config
// directory ($XDG_CONFIG_HOME on Linux).
func DefaultPaths() []string {
	paths := []string{FileName}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "starfocus", "config.yaml"))
	}
	return paths
}

// ErrNoConfig is returned by Find when no config file exists.
var ErrNoConfig = errors.New("config: no config file found")

// Find returns the first existing file among candidates.
func Find(candidates ...string) (string, error) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", ErrNoConfig
}
