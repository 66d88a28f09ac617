// Package config loads score-grep settings from file, environment and
// defaults via viper. The config file is optional; missing files fall
// back to defaults silently.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/dygy/score-grep/internal/pipeline"
	"github.com/dygy/score-grep/internal/quality"
)

// Config is the complete score-grep configuration.
type Config struct {
	Analysis pipeline.Config `mapstructure:"analysis"`
	Server   ServerConfig    `mapstructure:"server"`
	Cache    CacheConfig     `mapstructure:"cache"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	// Port the server listens on
	Port int `mapstructure:"port"`
	// JobTTLMinutes is how long finished jobs stay retrievable
	JobTTLMinutes int `mapstructure:"job_ttl_minutes"`
	// MaxUploadMB caps uploaded file size
	MaxUploadMB int `mapstructure:"max_upload_mb"`
}

// CacheConfig controls the analysis result cache.
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Dir overrides the default user cache directory when set
	Dir string `mapstructure:"dir"`
}

// Default returns a Config with standard values.
func Default() *Config {
	return &Config{
		Analysis: pipeline.DefaultConfig(),
		Server: ServerConfig{
			Port:          8080,
			JobTTLMinutes: 30,
			MaxUploadMB:   32,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
	}
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("analysis.window_size", defaults.Analysis.WindowSize)
	viper.SetDefault("analysis.min_motif_length", defaults.Analysis.MinMotifLength)
	viper.SetDefault("analysis.max_motif_length", defaults.Analysis.MaxMotifLength)
	viper.SetDefault("analysis.gap_threshold", defaults.Analysis.GapThreshold)
	viper.SetDefault("analysis.typical_phrase_length", defaults.Analysis.TypicalPhraseLength)
	viper.SetDefault("analysis.max_notes", defaults.Analysis.MaxNotes)
	viper.SetDefault("analysis.weights.technical", defaults.Analysis.Weights.Technical)
	viper.SetDefault("analysis.weights.musical", defaults.Analysis.Weights.Musical)
	viper.SetDefault("analysis.weights.structure", defaults.Analysis.Weights.Structure)

	viper.SetDefault("server.port", defaults.Server.Port)
	viper.SetDefault("server.job_ttl_minutes", defaults.Server.JobTTLMinutes)
	viper.SetDefault("server.max_upload_mb", defaults.Server.MaxUploadMB)

	viper.SetDefault("cache.enabled", defaults.Cache.Enabled)
	viper.SetDefault("cache.dir", defaults.Cache.Dir)
}

// Init wires viper to the config file and environment. cfgFile overrides
// the default search path when non-empty.
func Init(cfgFile string) error {
	SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".score-grep")
		viper.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("SCORE_GREP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			return nil
		}
		if cfgFile == "" && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Load reads the configuration from viper and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges the analysis stages cannot correct themselves.
func (c *Config) Validate() error {
	if c.Analysis.WindowSize < 0 {
		return fmt.Errorf("analysis.window_size must be positive, got %d", c.Analysis.WindowSize)
	}
	if c.Analysis.MinMotifLength > 0 && c.Analysis.MaxMotifLength > 0 &&
		c.Analysis.MinMotifLength > c.Analysis.MaxMotifLength {
		return fmt.Errorf("analysis.min_motif_length (%.2f) exceeds max_motif_length (%.2f)",
			c.Analysis.MinMotifLength, c.Analysis.MaxMotifLength)
	}
	w := c.Analysis.Weights
	if w.Technical < 0 || w.Musical < 0 || w.Structure < 0 {
		return fmt.Errorf("weights must be non-negative")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// Weights returns the scoring weights, falling back to defaults when
// the configured mix sums to zero.
func (c *Config) Weights() quality.Weights {
	w := c.Analysis.Weights
	if w.Technical+w.Musical+w.Structure <= 0 {
		return quality.DefaultWeights()
	}
	return w
}

// CacheDir resolves the cache directory.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolving cache dir: %w", err)
	}
	return filepath.Join(base, "score-grep"), nil
}
