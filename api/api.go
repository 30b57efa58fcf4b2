// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package api is a handle based boundary over the parsers, the database
// and the exporters. Every operation reports a model.ResultCode; callers
// turn a code into a message with ErrorString.
//
// Handles index slots in an Arena. A slot's generation is bumped when its
// object is destroyed, so a stale handle is rejected instead of reaching
// a reused slot.
package api

import (
	"context"
	"fmt"
	"sync"

	"github.com/mdhender/covrpt/export"
	"github.com/mdhender/covrpt/model"
	"github.com/mdhender/covrpt/parsers"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DatabaseHandle refers to a database owned by an Arena.
// The zero value is never valid.
type DatabaseHandle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h is the zero handle.
func (h DatabaseHandle) IsZero() bool {
	return h.gen == 0
}

func (h DatabaseHandle) String() string {
	return fmt.Sprintf("db:%d.%d", h.index, h.gen)
}

// ParserHandle refers to a parser owned by an Arena.
// The zero value is never valid.
type ParserHandle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h is the zero handle.
func (h ParserHandle) IsZero() bool {
	return h.gen == 0
}

func (h ParserHandle) String() string {
	return fmt.Sprintf("parser:%d.%d", h.index, h.gen)
}

type slot[T any] struct {
	gen   uint32
	value *T
}

// slots is a free-list of generation checked entries.
type slots[T any] struct {
	entries []slot[T]
	free    []uint32
}

func (s *slots[T]) insert(v *T) (index, gen uint32) {
	if n := len(s.free); n > 0 {
		index = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		index = uint32(len(s.entries))
		s.entries = append(s.entries, slot[T]{})
	}
	e := &s.entries[index]
	e.gen++
	e.value = v
	return index, e.gen
}

func (s *slots[T]) get(index, gen uint32) (*T, bool) {
	if gen == 0 || int(index) >= len(s.entries) {
		return nil, false
	}
	e := &s.entries[index]
	if e.gen != gen || e.value == nil {
		return nil, false
	}
	return e.value, true
}

func (s *slots[T]) remove(index, gen uint32) bool {
	if _, ok := s.get(index, gen); !ok {
		return false
	}
	e := &s.entries[index]
	e.value = nil
	e.gen++
	s.free = append(s.free, index)
	return true
}

func (s *slots[T]) live() int {
	return len(s.entries) - len(s.free)
}

type Arena struct {
	mu        sync.Mutex
	log       *zap.SugaredLogger
	fs        afero.Fs
	opts      []parsers.Option
	databases slots[model.CoverageDatabase]
	parsers   slots[parsers.Auto]
	lastAlloc int64
}

type Option func(a *Arena) error

// WithLogger sets the logger used by the arena and its parsers.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(a *Arena) error {
		if log == nil {
			return fmt.Errorf("logger: nil")
		}
		a.log = log
		a.opts = append(a.opts, parsers.WithLogger(log))
		return nil
	}
}

// WithFs sets the file system used for parsing and exporting.
func WithFs(fs afero.Fs) Option {
	return func(a *Arena) error {
		if fs == nil {
			return fmt.Errorf("fs: nil")
		}
		a.fs = fs
		a.opts = append(a.opts, parsers.WithFs(fs))
		return nil
	}
}

// WithParserOptions adds options passed to every parser the arena creates.
func WithParserOptions(opts ...parsers.Option) Option {
	return func(a *Arena) error {
		a.opts = append(a.opts, opts...)
		return nil
	}
}

func NewArena(opts ...Option) (*Arena, error) {
	a := &Arena{
		log: zap.NewNop().Sugar(),
		fs:  afero.NewOsFs(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// CreateDatabase returns a handle to a new, empty database.
func (a *Arena) CreateDatabase() DatabaseHandle {
	a.mu.Lock()
	defer a.mu.Unlock()
	index, gen := a.databases.insert(model.NewCoverageDatabase())
	return DatabaseHandle{index: index, gen: gen}
}

// DestroyDatabase releases the database. Destroying an invalid handle
// returns InvalidParameter.
func (a *Arena) DestroyDatabase(h DatabaseHandle) model.ResultCode {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.databases.remove(h.index, h.gen) {
		return model.InvalidParameter
	}
	return model.Success
}

// Database returns the database behind h, or nil if h is not valid.
func (a *Arena) Database(h DatabaseHandle) *model.CoverageDatabase {
	a.mu.Lock()
	defer a.mu.Unlock()
	db, _ := a.databases.get(h.index, h.gen)
	return db
}

// CreateParser returns a handle to a parser for kind. The zero handle is
// returned when kind is unknown or the arena's parser options are invalid.
func (a *Arena) CreateParser(kind parsers.Kind) (ParserHandle, model.ResultCode) {
	p, err := parsers.NewAuto(kind, a.opts...)
	if err != nil {
		a.log.Errorf("api: create parser %v: %v", kind, err)
		return ParserHandle{}, model.InvalidParameter
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	index, gen := a.parsers.insert(p)
	return ParserHandle{index: index, gen: gen}, model.Success
}

// DestroyParser releases the parser and its arenas.
func (a *Arena) DestroyParser(h ParserHandle) model.ResultCode {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.parsers.remove(h.index, h.gen) {
		return model.InvalidParameter
	}
	return model.Success
}

// Parse reads path into the database with the parser.
func (a *Arena) Parse(ctx context.Context, ph ParserHandle, path string, dh DatabaseHandle) model.ResultCode {
	if path == "" {
		return model.InvalidParameter
	}
	a.mu.Lock()
	p, pok := a.parsers.get(ph.index, ph.gen)
	db, dok := a.databases.get(dh.index, dh.gen)
	a.mu.Unlock()
	if !pok || !dok {
		return model.InvalidParameter
	}

	stats, err := p.Parse(ctx, path, db)
	a.mu.Lock()
	a.lastAlloc = stats.BytesAllocated
	a.mu.Unlock()
	if err != nil {
		a.log.Debugf("api: parse %s: %v", path, err)
	}
	return model.Code(err)
}

// Validate reports whether the database holds records and every record
// is consistent. An invalid handle is not valid.
func (a *Arena) Validate(h DatabaseHandle) bool {
	db := a.Database(h)
	return db != nil && db.IsValid()
}

// OverallScore returns the covered-weighted group score, or 0 for an
// invalid handle.
func (a *Arena) OverallScore(h DatabaseHandle) float64 {
	if db := a.Database(h); db != nil {
		return db.CalculateOverallScore()
	}
	return 0
}

func (a *Arena) CountGroups(h DatabaseHandle) uint32 {
	return a.count(h, (*model.CoverageDatabase).NumGroups)
}

func (a *Arena) CountHierarchyInstances(h DatabaseHandle) uint32 {
	return a.count(h, (*model.CoverageDatabase).NumHierarchy)
}

func (a *Arena) CountModules(h DatabaseHandle) uint32 {
	return a.count(h, (*model.CoverageDatabase).NumModules)
}

func (a *Arena) CountAsserts(h DatabaseHandle) uint32 {
	return a.count(h, (*model.CoverageDatabase).NumAsserts)
}

func (a *Arena) count(h DatabaseHandle, n func(*model.CoverageDatabase) int) uint32 {
	if db := a.Database(h); db != nil {
		return uint32(n(db))
	}
	return 0
}

// ExportXML writes the database to path as XML.
func (a *Arena) ExportXML(h DatabaseHandle, path string) model.ResultCode {
	return a.exportTo(h, path, export.XMLFormat)
}

// ExportJSON writes the database to path as JSON.
func (a *Arena) ExportJSON(h DatabaseHandle, path string) model.ResultCode {
	return a.exportTo(h, path, export.JSONFormat)
}

func (a *Arena) exportTo(h DatabaseHandle, path string, format export.Format) model.ResultCode {
	if path == "" {
		return model.InvalidParameter
	}
	db := a.Database(h)
	if db == nil {
		return model.InvalidParameter
	}
	err := export.ToFile(a.fs, path, format, db)
	if err != nil {
		a.log.Debugf("api: export %s: %v", path, err)
	}
	return model.Code(err)
}

// MemoryUsage returns the bytes handed out by the worker arenas during the
// most recent parse. It is 0 after a sequential parse.
func (a *Arena) MemoryUsage() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastAlloc
}

// Live returns the number of databases and parsers not yet destroyed.
func (a *Arena) Live() (dbs, ps int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.databases.live(), a.parsers.live()
}

// ErrorString returns the message for code.
func ErrorString(code model.ResultCode) string {
	return code.Message()
}
