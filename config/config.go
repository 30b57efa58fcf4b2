// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package config loads covrpt settings from defaults, an optional
// covrpt.yaml file and COVRPT_ environment variables.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mdhender/covrpt/export"
	"github.com/mdhender/covrpt/parsers"
	"github.com/mdhender/covrpt/pipelines/chunks"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is prepended to every environment variable, e.g. COVRPT_PARSE_WORKERS.
const EnvPrefix = "COVRPT"

type Config struct {
	Parse   Parse   `mapstructure:"parse"`
	Export  Export  `mapstructure:"export"`
	Log     Log     `mapstructure:"log"`
	Store   Store   `mapstructure:"store"`
	Metrics Metrics `mapstructure:"metrics"`
}

type Parse struct {
	// ThresholdBytes is the file size at which the parallel pipeline is used.
	ThresholdBytes int64 `mapstructure:"threshold_bytes" validate:"gte=0"`
	Workers        int   `mapstructure:"workers" validate:"gte=1,lte=1024"`
	PoolBlockSize  int   `mapstructure:"pool_block_size" validate:"gte=4096"`
	AutoEOL        bool  `mapstructure:"auto_eol"`
	StripCR        bool  `mapstructure:"strip_cr"`
}

type Export struct {
	Format string `mapstructure:"format" validate:"oneof=xml json yaml msgpack"`
}

type Log struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

type Store struct {
	// SQLitePath is empty when runs are not saved.
	SQLitePath string `mapstructure:"sqlite_path"`
}

type Metrics struct {
	// Textfile is empty when metrics are not written.
	Textfile string `mapstructure:"textfile"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("parse.threshold_bytes", parsers.DefaultThreshold)
	v.SetDefault("parse.workers", runtime.NumCPU())
	v.SetDefault("parse.pool_block_size", chunks.DefaultBlockSize)
	v.SetDefault("parse.auto_eol", false)
	v.SetDefault("parse.strip_cr", true)
	v.SetDefault("export.format", string(export.XMLFormat))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("store.sqlite_path", "")
	v.SetDefault("metrics.textfile", "")
}

// Load reads the configuration. When path is empty, covrpt.yaml is looked
// for in the current directory and a missing file is not an error.
func Load(fs afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("covrpt")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration with no file and no environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// ParserOptions returns the parser options for the parse settings.
func (c *Config) ParserOptions() []parsers.Option {
	return []parsers.Option{
		parsers.WithThreshold(c.Parse.ThresholdBytes),
		parsers.WithWorkers(c.Parse.Workers),
		parsers.WithBlockSize(c.Parse.PoolBlockSize),
		parsers.WithAutoEOL(c.Parse.AutoEOL),
		parsers.WithStripCR(c.Parse.StripCR),
	}
}

// Logger builds the logger described by the log settings.
func (c *Config) Logger() (*zap.SugaredLogger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	var zc zap.Config
	if c.Log.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.DisableStacktrace = true
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
