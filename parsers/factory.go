// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package parsers

import (
	"context"

	"github.com/mdhender/covrpt/model"
	"github.com/spf13/afero"
)

// ForFile returns the parser for kind that suits the size of the file at path.
// Files larger than the threshold use the parallel parser when the kind
// supports it and the file system is the operating system's. Everything
// else, including files that cannot be stat'ed, uses the sequential parser.
func ForFile(kind Kind, path string, opts ...Option) (Parser, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	if cfg.wantParallel(kind, path) {
		return newParallel(kind, cfg)
	}
	return newSequential(kind, cfg)
}

func (c *Config) wantParallel(kind Kind, path string) bool {
	if !SupportsParallel(kind) {
		return false
	} else if _, ok := c.fs.(*afero.OsFs); !ok {
		return false
	}
	fi, err := c.fs.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return false
	}
	return fi.Size() > c.threshold
}

// Auto is a reusable parser that makes the ForFile choice on every call.
// The parallel parser, and so its arenas, is kept between calls.
type Auto struct {
	cfg        *Config
	kind       Kind
	sequential Parser
	parallel   Parser
}

// NewAuto returns an Auto parser for kind.
func NewAuto(kind Kind, opts ...Option) (*Auto, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	sequential, err := newSequential(kind, cfg)
	if err != nil {
		return nil, err
	}
	a := &Auto{cfg: cfg, kind: kind, sequential: sequential}
	if SupportsParallel(kind) {
		if a.parallel, err = newParallel(kind, cfg); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Kind returns the report kind the parser reads.
func (a *Auto) Kind() Kind {
	return a.kind
}

func (a *Auto) Parse(ctx context.Context, path string, db *model.CoverageDatabase) (Stats, error) {
	if a.parallel != nil && a.cfg.wantParallel(a.kind, path) {
		return a.parallel.Parse(ctx, path, db)
	}
	return a.sequential.Parse(ctx, path, db)
}

// Allocated returns the arena bytes used by the last parallel parse, or 0.
func (a *Auto) Allocated() int64 {
	if p, ok := a.parallel.(interface{ Allocated() int64 }); ok {
		return p.Allocated()
	}
	return 0
}
