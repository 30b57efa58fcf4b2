// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package parsers

import (
	"fmt"
	"runtime"

	"github.com/mdhender/covrpt/pipelines/chunks"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DefaultThreshold is the file size at which ForFile switches to the parallel pipeline.
const DefaultThreshold = 10 * 1024 * 1024

type Config struct {
	log       *zap.SugaredLogger
	fs        afero.Fs
	autoEOL   bool
	stripCR   bool
	workers   int
	threshold int64
	blockSize int
}

type Option func(c *Config) error

func newConfig(opts ...Option) (*Config, error) {
	c := &Config{
		log:       zap.NewNop().Sugar(),
		fs:        afero.NewOsFs(),
		stripCR:   true,
		workers:   runtime.NumCPU(),
		threshold: DefaultThreshold,
		blockSize: chunks.DefaultBlockSize,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Config) error {
		if log == nil {
			return fmt.Errorf("logger: nil")
		}
		c.log = log
		return nil
	}
}

// WithFs sets the file system used by the sequential parsers and by ForFile.
// The parallel pipeline always maps files from the operating system.
func WithFs(fs afero.Fs) Option {
	return func(c *Config) error {
		if fs == nil {
			return fmt.Errorf("fs: nil")
		}
		c.fs = fs
		return nil
	}
}

// WithAutoEOL treats a lone CR as a line ending.
func WithAutoEOL(flag bool) Option {
	return func(c *Config) error {
		c.autoEOL = flag
		return nil
	}
}

// WithStripCR removes the CR from CR+LF line endings.
func WithStripCR(flag bool) Option {
	return func(c *Config) error {
		c.stripCR = flag
		return nil
	}
}

func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return fmt.Errorf("workers: %d: must be positive", n)
		}
		c.workers = n
		return nil
	}
}

func WithThreshold(bytes int64) Option {
	return func(c *Config) error {
		if bytes < 0 {
			return fmt.Errorf("threshold: %d: must not be negative", bytes)
		}
		c.threshold = bytes
		return nil
	}
}

// WithBlockSize sets the block size of the per-worker arenas.
func WithBlockSize(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return fmt.Errorf("block size: %d: must be positive", n)
		}
		c.blockSize = n
		return nil
	}
}
