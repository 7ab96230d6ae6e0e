package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/jk/internal/parallel"
)

// Config represents the jk configuration file (~/.config/jk/config.yaml).
// Pointer fields distinguish "not set" from zero values. Flags given on
// the command line always win over the file.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Kernel execution
	Workers      *int `yaml:"workers"`
	MinChunkSize *int `yaml:"min_chunk_size"`

	// Server
	ServerAddress string `yaml:"server_address"`
	MaxBasis      *int   `yaml:"max_basis"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "jk", "config.yaml")
}

// LoadConfig reads the config file at path. An empty path selects the
// default location, where a missing file yields a zero Config. An explicit
// path must exist.
func LoadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = configPath()
		if path == "" {
			return Config{}, nil
		}
	}
	//nolint:gosec // G304: config path comes from the user
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyGlobalConfig applies config file defaults to the root flags.
func applyGlobalConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyParallelConfig applies config file defaults to the worker flags.
func applyParallelConfig(c *cli.Command, cfg Config) {
	if cfg.Workers != nil && !c.IsSet("workers") {
		workers = *cfg.Workers
	}
	if cfg.MinChunkSize != nil && !c.IsSet("min-chunk") {
		minChunkSize = *cfg.MinChunkSize
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string, maxBasis *int) {
	applyParallelConfig(c, cfg)
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.MaxBasis != nil && !c.IsSet("max-basis") {
		*maxBasis = *cfg.MaxBasis
	}
}

func parallelConfig(workers, minChunk int) parallel.Config {
	cfg := parallel.WithWorkers(workers)
	if minChunk > 0 {
		cfg.MinChunkSize = minChunk
	}
	return cfg
}
