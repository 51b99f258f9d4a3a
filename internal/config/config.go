// Package config loads extraction defaults from the environment.
//
// Values are resolved in order: built-in defaults, a .env file in the
// working directory, SWATCH_* environment variables. Command-line flags
// override the result.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"

	"github.com/jmylchreest/swatch/internal/colour"
	"github.com/jmylchreest/swatch/internal/seed"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SWATCH_"

// Config holds the defaults for the extract command.
type Config struct {
	Colours            int
	Method             colour.Method
	Format             string
	IncludeTransparent bool
	AlphaThreshold     int
	Levels             int
	SampleStep         int
	Iterations         int
	MaxDimension       int
	SeedMode           seed.Mode
	CacheDir           string
	LogLevel           hclog.Level
}

// Default returns the built-in defaults.
func Default() Config {
	cc := colour.DefaultConfig()
	return Config{
		Colours:        cc.Count,
		Method:         cc.Method,
		Format:         "hex",
		AlphaThreshold: int(cc.AlphaThreshold),
		Levels:         cc.QuantizeLevels,
		Iterations:     cc.MaxIterations,
		SeedMode:       seed.ModeContent,
		LogLevel:       hclog.Info,
	}
}

// Load reads .env (if present) and the environment on top of the defaults.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from a lookup function such as os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var err error

	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	getInt := func(key string, dst *int) {
		if err != nil {
			return
		}
		if v, ok := get(key); ok {
			n, convErr := strconv.Atoi(v)
			if convErr != nil {
				err = fmt.Errorf("%s%s: %q is not an integer", EnvPrefix, key, v)
				return
			}
			*dst = n
		}
	}

	getInt("COLOURS", &cfg.Colours)
	getInt("ALPHA_THRESHOLD", &cfg.AlphaThreshold)
	getInt("LEVELS", &cfg.Levels)
	getInt("SAMPLE_STEP", &cfg.SampleStep)
	getInt("ITERATIONS", &cfg.Iterations)
	getInt("MAX_DIMENSION", &cfg.MaxDimension)
	if err != nil {
		return Config{}, err
	}

	if v, ok := get("METHOD"); ok {
		m, parseErr := colour.ParseMethod(v)
		if parseErr != nil {
			return Config{}, fmt.Errorf("%sMETHOD: %w", EnvPrefix, parseErr)
		}
		cfg.Method = m
	}
	if v, ok := get("FORMAT"); ok {
		cfg.Format = v
	}
	if v, ok := get("INCLUDE_TRANSPARENT"); ok {
		b, parseErr := strconv.ParseBool(v)
		if parseErr != nil {
			return Config{}, fmt.Errorf("%sINCLUDE_TRANSPARENT: %q is not a boolean", EnvPrefix, v)
		}
		cfg.IncludeTransparent = b
	}
	if v, ok := get("SEED_MODE"); ok {
		mode, parseErr := seed.ParseMode(v)
		if parseErr != nil {
			return Config{}, fmt.Errorf("%sSEED_MODE: %w", EnvPrefix, parseErr)
		}
		cfg.SeedMode = mode
	}
	if v, ok := get("CACHE_DIR"); ok {
		cfg.CacheDir = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		level := hclog.LevelFromString(v)
		if level == hclog.NoLevel {
			return Config{}, fmt.Errorf("%sLOG_LEVEL: unknown level %q", EnvPrefix, v)
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}

// ExtractorConfig converts the defaults into a colour.Config.
func (c Config) ExtractorConfig() colour.Config {
	return colour.Config{
		Method:             c.Method,
		Count:              c.Colours,
		IncludeTransparent: c.IncludeTransparent,
		AlphaThreshold:     clampAlpha(c.AlphaThreshold),
		QuantizeLevels:     c.Levels,
		SampleStep:         c.SampleStep,
		MaxIterations:      c.Iterations,
	}
}

// Validate checks the values that colour.Config cannot represent.
func (c Config) Validate() error {
	if c.AlphaThreshold < 0 || c.AlphaThreshold > 255 {
		return &colour.ConfigurationError{Field: "alpha threshold", Value: c.AlphaThreshold, Reason: "must be between 0 and 255"}
	}
	if c.MaxDimension < 0 {
		return &colour.ConfigurationError{Field: "max dimension", Value: c.MaxDimension, Reason: "must not be negative"}
	}
	return c.ExtractorConfig().Validate()
}

func clampAlpha(v int) uint8 {
	return uint8(max(0, min(255, v))) // #nosec G115 -- clamped to uint8 range
}
