// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package parsers loads coverage reports into a model.CoverageDatabase.
//
// Every parser reads its input as lines. A line that is not recognized is
// skipped and counted; only a file that cannot be read is an error.
package parsers

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/mdhender/covrpt/model"
	"github.com/mdhender/covrpt/pipelines/chunks"
	"github.com/spf13/afero"
)

// Parser loads one report file into a database.
// A Parser must not be used by two goroutines at the same time.
type Parser interface {
	Parse(ctx context.Context, path string, db *model.CoverageDatabase) (Stats, error)
}

// New returns the sequential parser for kind.
func New(kind Kind, opts ...Option) (Parser, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	return newSequential(kind, cfg)
}

func newSequential(kind Kind, cfg *Config) (Parser, error) {
	switch kind {
	case Dashboard:
		return &DashboardParser{cfg: cfg}, nil
	case Groups:
		return &LineParser[*model.CoverageGroup]{cfg: cfg, kind: kind, recognize: groupLine, add: (*model.CoverageDatabase).AddGroup}, nil
	case Hierarchy:
		return &LineParser[*model.HierarchyInstance]{cfg: cfg, kind: kind, recognize: hierarchyLine, add: (*model.CoverageDatabase).AddHierarchy}, nil
	case ModuleList:
		return &LineParser[*model.ModuleDefinition]{cfg: cfg, kind: kind, recognize: moduleLine, add: (*model.CoverageDatabase).AddModule}, nil
	case Assert:
		return &LineParser[*model.AssertCoverage]{cfg: cfg, kind: kind, recognize: assertLine, add: (*model.CoverageDatabase).AddAssert}, nil
	}
	return nil, fmt.Errorf("%v: %w", kind, model.ErrInvalidParameter)
}

// LineParser is the sequential parser for the row oriented reports.
type LineParser[T any] struct {
	cfg       *Config
	kind      Kind
	recognize recognizer[T]
	add       func(*model.CoverageDatabase, T)
}

func (p *LineParser[T]) Parse(ctx context.Context, path string, db *model.CoverageDatabase) (stats Stats, err error) {
	started := time.Now()
	defer recoverParse(path, &err)
	if db == nil {
		return stats, fmt.Errorf("database: %w", model.ErrInvalidParameter)
	}

	data, err := readFile(p.cfg, path)
	if err != nil {
		return stats, err
	}
	stats.FileSize, stats.Threads = int64(len(data)), 1

	stats.LinesProcessed, stats.LinesSkipped = scanLines(data, p.recognize, heapString, p.skipped(path), func(record T) {
		p.add(db, record)
		stats.Records++
	})
	stats.finish(started)
	p.cfg.log.Infof("%s: %s: %d records, %d lines, %d skipped in %v", p.kind, path, stats.Records, stats.LinesProcessed, stats.LinesSkipped, stats.Duration)
	return stats, nil
}

func (p *LineParser[T]) skipped(path string) func(int, []byte) {
	return func(lineNo int, line []byte) {
		p.cfg.log.Debugf("%s: %s: %d: skipped %q", p.kind, path, lineNo, line)
	}
}

// scanLines runs recognize over every line of data and reports each record to emit.
// Blank lines are neither processed nor skipped.
func scanLines[T any](data []byte, recognize recognizer[T], intern interner, skip func(lineNo int, line []byte), emit func(T)) (processed, skipped int) {
	fields := make([][]byte, 0, 16)
	lineNo := 0
	chunks.Lines(data, func(line []byte) bool {
		lineNo++
		fields = chunks.Fields(line, fields[:0])
		if len(fields) == 0 {
			return true
		}
		processed++
		record, ok := recognize(line, fields, intern)
		if !ok {
			skipped++
			if skip != nil {
				skip(lineNo, line)
			}
			return true
		}
		emit(record)
		return true
	})
	return processed, skipped
}

// readFile loads the whole file and normalizes its line endings.
func readFile(cfg *Config, path string) ([]byte, error) {
	if path == "" {
		return nil, &model.ParseError{Op: "open", Path: path, Err: model.ErrInvalidParameter}
	}
	data, err := afero.ReadFile(cfg.fs, path)
	if err != nil {
		return nil, &model.ParseError{Op: "open", Path: path, Err: fmt.Errorf("%w: %w", model.ErrFileNotFound, err)}
	}
	if cfg.autoEOL {
		data = bytes.ReplaceAll(data, []byte{'\r', '\n'}, []byte{'\n'})
		data = bytes.ReplaceAll(data, []byte{'\r'}, []byte{'\n'})
	} else if cfg.stripCR {
		data = bytes.ReplaceAll(data, []byte{'\r', '\n'}, []byte{'\n'})
	}
	return data, nil
}

// recoverParse converts a panic during a parse into model.ErrParseFailed.
func recoverParse(path string, err *error) {
	if r := recover(); r != nil {
		*err = &model.ParseError{Op: "parse", Path: path, Err: fmt.Errorf("%w: %v", model.ErrParseFailed, r)}
	}
}

