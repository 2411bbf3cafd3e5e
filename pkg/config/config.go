// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/driftbench/driftbench/pkg/bench"
)

// DefaultConfigFileName is the config file name, without extension.
const DefaultConfigFileName = "driftbench"

// Config holds all configuration for the benchmark engine.
// Priority: CLI flags > config file > env vars > defaults.
type Config struct {
	// DataDir is computed from DRIFTBENCH_DATA_DIR or ~/.driftbench.
	// Not loaded from the config file.
	DataDir string `mapstructure:"-"`

	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Benchmark BenchmarkConfig `mapstructure:"benchmark"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds the read-API listener configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig selects the score-store backend. A non-empty URL picks
// Postgres; otherwise the embedded SQLite file under Path is used.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
	// URL is a postgres:// DSN, usually from DATABASE_URL.
	URL string `mapstructure:"url"`
}

// BenchmarkConfig tunes the sweep.
type BenchmarkConfig struct {
	// Python is the sandbox interpreter binary.
	Python string `mapstructure:"python"`
	// CanaryMode: "strict" (default), "relaxed", or "off".
	CanaryMode string `mapstructure:"canary_mode"`
	// BatchTimestamp overrides the sweep timestamp, RFC3339. Only for
	// deterministic test runs.
	BatchTimestamp string `mapstructure:"batch_timestamp"`
	// PricingFile points at the pricing-table JSON for the price sort.
	PricingFile string `mapstructure:"pricing_file"`
}

// ScoringConfig is the operator calibration: y = scale·x + lift clamped
// to [min,max].
type ScoringConfig struct {
	Scale float64 `mapstructure:"scale"`
	Lift  float64 `mapstructure:"lift"`
	Min   float64 `mapstructure:"min"`
	Max   float64 `mapstructure:"max"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

// Load reads configuration from the config file (if present), the
// environment, and defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(GetDataDir())
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/driftbench/")
		v.SetConfigName(DefaultConfigFileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	v.SetEnvPrefix("DRIFTBENCH")
	v.AutomaticEnv()

	// The tuning knobs keep their historic un-prefixed names.
	bindings := map[string]string{
		"scoring.scale":             "SCORE_SCALE",
		"scoring.lift":              "SCORE_LIFT",
		"scoring.min":               "SCORE_MIN",
		"scoring.max":               "SCORE_MAX",
		"benchmark.canary_mode":     "CANARY_MODE",
		"benchmark.batch_timestamp": "BATCH_TIMESTAMP",
		"database.url":              "DATABASE_URL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.DataDir = GetDataDir()
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)

	v.SetDefault("database.path", filepath.Join(GetDataDir(), "driftbench.db"))

	v.SetDefault("benchmark.python", "python3")
	v.SetDefault("benchmark.canary_mode", "strict")

	v.SetDefault("scoring.scale", 1.0)
	v.SetDefault("scoring.lift", 0.0)
	v.SetDefault("scoring.min", 0.0)
	v.SetDefault("scoring.max", 100.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Database.Path == "" && c.Database.URL == "" {
		return fmt.Errorf("database.path or database.url is required")
	}
	switch c.Benchmark.CanaryMode {
	case "strict", "relaxed", "off":
	default:
		return fmt.Errorf("invalid canary mode %q (must be strict, relaxed, or off)", c.Benchmark.CanaryMode)
	}
	if c.Scoring.Min > c.Scoring.Max {
		return fmt.Errorf("scoring.min %v exceeds scoring.max %v", c.Scoring.Min, c.Scoring.Max)
	}
	if _, err := c.BatchTimestamp(); err != nil {
		return err
	}
	return nil
}

// Calibration converts the scoring section into the engine's calibration.
func (c *Config) Calibration() bench.Calibration {
	return bench.Calibration{
		Scale: c.Scoring.Scale,
		Lift:  c.Scoring.Lift,
		Min:   c.Scoring.Min,
		Max:   c.Scoring.Max,
	}
}

// BatchTimestamp parses the BATCH_TIMESTAMP override. The zero time
// means "use the wall clock".
func (c *Config) BatchTimestamp() (time.Time, error) {
	if c.Benchmark.BatchTimestamp == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339, c.Benchmark.BatchTimestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid BATCH_TIMESTAMP %q: %w", c.Benchmark.BatchTimestamp, err)
	}
	return ts.UTC(), nil
}

// ListenAddr is the host:port the read API binds.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
