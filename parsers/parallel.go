// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package parsers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mdhender/covrpt/model"
	"github.com/mdhender/covrpt/pipelines/chunks"
)

// SupportsParallel reports whether kind has a parallel parser.
// The dashboard is a state machine over the whole file and is always sequential.
func SupportsParallel(kind Kind) bool {
	switch kind {
	case Groups, Hierarchy, ModuleList, Assert:
		return true
	}
	return false
}

// NewParallel returns the memory mapped, chunked parser for kind.
func NewParallel(kind Kind, opts ...Option) (Parser, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	return newParallel(kind, cfg)
}

func newParallel(kind Kind, cfg *Config) (Parser, error) {
	switch kind {
	case Groups:
		return &ParallelParser[*model.CoverageGroup]{cfg: cfg, kind: kind, recognize: groupLine, add: (*model.CoverageDatabase).AddGroup}, nil
	case Hierarchy:
		return &ParallelParser[*model.HierarchyInstance]{cfg: cfg, kind: kind, recognize: hierarchyLine, add: (*model.CoverageDatabase).AddHierarchy}, nil
	case ModuleList:
		return &ParallelParser[*model.ModuleDefinition]{cfg: cfg, kind: kind, recognize: moduleLine, add: (*model.CoverageDatabase).AddModule}, nil
	case Assert:
		return &ParallelParser[*model.AssertCoverage]{cfg: cfg, kind: kind, recognize: assertLine, add: (*model.CoverageDatabase).AddAssert}, nil
	}
	return nil, fmt.Errorf("%v: parallel: %w", kind, model.ErrInvalidParameter)
}

// ParallelParser maps the file, splits it into line aligned chunks and
// parses the chunks concurrently. Each chunk owns its arena and its output;
// the outputs are added to the database on the calling goroutine.
//
// Files are always read from the operating system; WithFs is ignored.
type ParallelParser[T any] struct {
	cfg       *Config
	kind      Kind
	recognize recognizer[T]
	add       func(*model.CoverageDatabase, T)
	pools     []*chunks.Pool
}

// chunkResult is the output of one chunk.
type chunkResult[T any] struct {
	records   []T
	processed int
	skipped   int
}

func (p *ParallelParser[T]) Parse(ctx context.Context, path string, db *model.CoverageDatabase) (stats Stats, err error) {
	started := time.Now()
	defer recoverParse(path, &err)
	if db == nil {
		return stats, fmt.Errorf("database: %w", model.ErrInvalidParameter)
	}
	if path == "" {
		return stats, &model.ParseError{Op: "map", Path: path, Err: model.ErrInvalidParameter}
	}

	m, err := chunks.Map(path)
	if errors.Is(err, chunks.ErrEmptyFile) {
		p.reset(0)
		stats.finish(started)
		return stats, nil
	} else if err != nil {
		return stats, &model.ParseError{Op: "map", Path: path, Err: fmt.Errorf("%w: %w", model.ErrFileNotFound, err)}
	}
	defer m.Close()

	data := m.Bytes()
	stats.FileSize = int64(len(data))
	list := chunks.Split(data, p.cfg.workers)
	p.reset(len(list))
	stats.Threads = min(len(list), p.cfg.workers)

	results, err := chunks.Run(ctx, data, list, p.cfg.workers, func(_ context.Context, i int, b []byte) (chunkResult[T], error) {
		var out chunkResult[T]
		out.processed, out.skipped = scanLines(b, p.recognize, p.pools[i].String, nil, func(record T) {
			out.records = append(out.records, record)
		})
		return out, nil
	})
	if err != nil {
		return stats, &model.ParseError{Op: "parse", Path: path, Err: fmt.Errorf("%w: %w", model.ErrParseFailed, err)}
	}

	for _, out := range results {
		for _, record := range out.records {
			p.add(db, record)
		}
		stats.Records += len(out.records)
		stats.LinesProcessed += out.processed
		stats.LinesSkipped += out.skipped
	}
	stats.BytesAllocated = p.Allocated()
	stats.finish(started)
	p.cfg.log.Infof("%s: %s: %d records, %d lines, %d skipped, %d chunks in %v (%.1f MB/s)",
		p.kind, path, stats.Records, stats.LinesProcessed, stats.LinesSkipped, len(list), stats.Duration, stats.ThroughputMBps)
	return stats, nil
}

// reset prepares one arena per chunk, reusing the arenas of earlier calls.
func (p *ParallelParser[T]) reset(n int) {
	for _, pool := range p.pools {
		pool.Reset()
	}
	for len(p.pools) < n {
		p.pools = append(p.pools, chunks.NewPool(p.cfg.blockSize))
	}
}

// Allocated returns the bytes handed out by the arenas during the last call to Parse.
func (p *ParallelParser[T]) Allocated() int64 {
	var n int64
	for _, pool := range p.pools {
		n += pool.Allocated()
	}
	return n
}
