// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Validation failures reported by CoverageDatabase.Validate.
var (
	ErrEmptyDatabase = errors.New("database is empty")
	ErrEmptyKey      = errors.New("record has an empty key")
	ErrImpossible    = errors.New("group covers bins but expects none")
)

// CoverageDatabase is the in-memory store for parsed coverage reports.
// Records are keyed by name; adding a record with an existing key replaces it
// and records with an empty key are ignored.
//
// A database is safe for concurrent readers, but parsers populate it from a
// single goroutine.
type CoverageDatabase struct {
	mu           sync.RWMutex
	id           uuid.UUID
	dashboard    *DashboardData
	groups       map[string]*CoverageGroup
	hierarchy    map[string]*HierarchyInstance
	modules      map[string]*ModuleDefinition
	asserts      map[string]*AssertCoverage
	lastModified time.Time
}

// NewCoverageDatabase returns an empty database with a fresh identifier.
func NewCoverageDatabase() *CoverageDatabase {
	db := &CoverageDatabase{id: uuid.New()}
	db.reset()
	return db
}

// ID identifies the database in snapshots and persistent stores.
func (db *CoverageDatabase) ID() uuid.UUID {
	return db.id
}

// SetID replaces the identifier. It is used when loading a saved database.
func (db *CoverageDatabase) SetID(id uuid.UUID) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.id = id
}

// LastModified is the time of the most recent mutation.
func (db *CoverageDatabase) LastModified() time.Time {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.lastModified
}

func (db *CoverageDatabase) touch() {
	db.lastModified = time.Now()
}

// Reset removes every record and the dashboard.
func (db *CoverageDatabase) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.reset()
}

func (db *CoverageDatabase) reset() {
	db.dashboard = nil
	db.groups = make(map[string]*CoverageGroup)
	db.hierarchy = make(map[string]*HierarchyInstance)
	db.modules = make(map[string]*ModuleDefinition)
	db.asserts = make(map[string]*AssertCoverage)
	db.touch()
}

// SetDashboard replaces the dashboard record. A nil dashboard is ignored.
func (db *CoverageDatabase) SetDashboard(d *DashboardData) {
	if d == nil {
		return
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.dashboard = d
	db.touch()
}

// Dashboard returns the dashboard record, or nil if none was parsed.
func (db *CoverageDatabase) Dashboard() *DashboardData {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.dashboard
}

// AddGroup inserts or replaces a group.
func (db *CoverageDatabase) AddGroup(g *CoverageGroup) {
	if g == nil || g.Name == "" {
		return
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.groups[g.Name] = g
	db.touch()
}

// AddHierarchy inserts or replaces a hierarchy instance.
func (db *CoverageDatabase) AddHierarchy(h *HierarchyInstance) {
	if h == nil || h.InstancePath == "" {
		return
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.hierarchy[h.InstancePath] = h
	db.touch()
}

// AddModule inserts or replaces a module definition.
func (db *CoverageDatabase) AddModule(m *ModuleDefinition) {
	if m == nil || m.ModuleName == "" {
		return
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.modules[m.ModuleName] = m
	db.touch()
}

// AddAssert inserts or replaces an assertion.
func (db *CoverageDatabase) AddAssert(a *AssertCoverage) {
	if a == nil || a.AssertName == "" {
		return
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.asserts[a.AssertName] = a
	db.touch()
}

// FindGroup returns the group with the given name, or nil.
func (db *CoverageDatabase) FindGroup(name string) *CoverageGroup {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.groups[name]
}

// FindHierarchy returns the instance with the given path, or nil.
func (db *CoverageDatabase) FindHierarchy(path string) *HierarchyInstance {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.hierarchy[path]
}

// FindModule returns the module with the given name, or nil.
func (db *CoverageDatabase) FindModule(name string) *ModuleDefinition {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.modules[name]
}

// FindAssert returns the assertion with the given name, or nil.
func (db *CoverageDatabase) FindAssert(name string) *AssertCoverage {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.asserts[name]
}

func (db *CoverageDatabase) NumGroups() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.groups)
}

func (db *CoverageDatabase) NumHierarchy() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.hierarchy)
}

func (db *CoverageDatabase) NumModules() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.modules)
}

func (db *CoverageDatabase) NumAsserts() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.asserts)
}

// IsEmpty is true when no records (other than a dashboard) are stored.
func (db *CoverageDatabase) IsEmpty() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.isEmpty()
}

func (db *CoverageDatabase) isEmpty() bool {
	return len(db.groups) == 0 && len(db.hierarchy) == 0 && len(db.modules) == 0 && len(db.asserts) == 0
}

// Groups returns all groups sorted by name.
func (db *CoverageDatabase) Groups() []*CoverageGroup {
	db.mu.RLock()
	defer db.mu.RUnlock()
	result := make([]*CoverageGroup, 0, len(db.groups))
	for _, g := range db.groups {
		result = append(result, g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Hierarchy returns all instances sorted by path.
func (db *CoverageDatabase) Hierarchy() []*HierarchyInstance {
	db.mu.RLock()
	defer db.mu.RUnlock()
	result := make([]*HierarchyInstance, 0, len(db.hierarchy))
	for _, h := range db.hierarchy {
		result = append(result, h)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].InstancePath < result[j].InstancePath })
	return result
}

// Modules returns all modules sorted by name.
func (db *CoverageDatabase) Modules() []*ModuleDefinition {
	db.mu.RLock()
	defer db.mu.RUnlock()
	result := make([]*ModuleDefinition, 0, len(db.modules))
	for _, m := range db.modules {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ModuleName < result[j].ModuleName })
	return result
}

// Asserts returns all assertions sorted by name.
func (db *CoverageDatabase) Asserts() []*AssertCoverage {
	db.mu.RLock()
	defer db.mu.RUnlock()
	result := make([]*AssertCoverage, 0, len(db.asserts))
	for _, a := range db.asserts {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AssertName < result[j].AssertName })
	return result
}

// Children returns the instances whose parent is path, sorted by path.
func (db *CoverageDatabase) Children(path string) []*HierarchyInstance {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var result []*HierarchyInstance
	for _, h := range db.hierarchy {
		if h.ParentPath() == path && h.InstancePath != path {
			result = append(result, h)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].InstancePath < result[j].InstancePath })
	return result
}

// CalculateOverallScore pools the covered and expected counts of every group.
// It returns 0 when there are no groups.
func (db *CoverageDatabase) CalculateOverallScore() float64 {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var covered, expected uint64
	for _, g := range db.groups {
		covered += uint64(g.Coverage.Covered)
		expected += uint64(g.Coverage.Expected)
	}
	if expected == 0 {
		return 0.0
	}
	return 100.0 * float64(covered) / float64(expected)
}

// GroupsByPattern returns the groups whose name contains substr.
// The order of the result is not defined.
func (db *CoverageDatabase) GroupsByPattern(substr string) []*CoverageGroup {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var result []*CoverageGroup
	for name, g := range db.groups {
		if strings.Contains(name, substr) {
			result = append(result, g)
		}
	}
	return result
}

// UncoveredGroups returns the groups with no covered bins.
// The order of the result is not defined.
func (db *CoverageDatabase) UncoveredGroups() []*CoverageGroup {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var result []*CoverageGroup
	for _, g := range db.groups {
		if g.Coverage.Covered == 0 {
			result = append(result, g)
		}
	}
	return result
}

// GenerateStatistics summarizes the groups in a single pass.
// A group with nothing covered counts as zero coverage, even when it expects
// nothing; only groups with covered > 0 and covered == expected count as full.
func (db *CoverageDatabase) GenerateStatistics() Statistics {
	db.mu.RLock()
	defer db.mu.RUnlock()
	var stats Statistics
	var covered, expected uint64
	for _, g := range db.groups {
		covered += uint64(g.Coverage.Covered)
		expected += uint64(g.Coverage.Expected)
		if g.Coverage.Covered == 0 {
			stats.NumZeroCoverageGroups++
		} else if g.Coverage.Covered == g.Coverage.Expected {
			stats.NumFullCoverageGroups++
		}
	}
	if expected > 0 {
		stats.OverallCoverageScore = 100.0 * float64(covered) / float64(expected)
	}
	stats.TotalCoveragePoints = saturate32(expected)
	stats.CoveredPoints = saturate32(covered)
	return stats
}

// saturate32 clamps a pooled count to the largest uint32.
func saturate32(n uint64) uint32 {
	if n > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(n)
}

// Validate checks the database for consistency.
// It fails when the database holds no records, when a record has an empty
// key, or when a group reports covered bins while expecting none.
func (db *CoverageDatabase) Validate() error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.isEmpty() {
		return ErrEmptyDatabase
	}
	for key, g := range db.groups {
		if key == "" || g == nil || g.Name == "" {
			return fmt.Errorf("group %q: %w", key, ErrEmptyKey)
		}
		if g.Coverage.Expected == 0 && g.Coverage.Covered > 0 {
			return fmt.Errorf("group %q: %w", key, ErrImpossible)
		}
	}
	for key, h := range db.hierarchy {
		if key == "" || h == nil || h.InstancePath == "" {
			return fmt.Errorf("instance %q: %w", key, ErrEmptyKey)
		}
	}
	for key, m := range db.modules {
		if key == "" || m == nil || m.ModuleName == "" {
			return fmt.Errorf("module %q: %w", key, ErrEmptyKey)
		}
	}
	for key, a := range db.asserts {
		if key == "" || a == nil || a.AssertName == "" {
			return fmt.Errorf("assert %q: %w", key, ErrEmptyKey)
		}
	}
	return nil
}

// IsValid reports whether Validate succeeds.
func (db *CoverageDatabase) IsValid() bool {
	return db.Validate() == nil
}

// Merge copies every record of other into db, replacing records with the same key.
// The dashboard of other replaces db's dashboard when present.
// Records are copied so the two databases never share storage.
func (db *CoverageDatabase) Merge(other *CoverageDatabase) {
	if other == nil || other == db {
		return
	}
	if d := other.Dashboard(); d != nil {
		cp := *d
		db.SetDashboard(&cp)
	}
	for _, g := range other.Groups() {
		cp := *g
		db.AddGroup(&cp)
	}
	for _, h := range other.Hierarchy() {
		db.AddHierarchy(NewHierarchyInstance(h.InstancePath, h.TotalScore, h.AssertCoverage))
	}
	for _, m := range other.Modules() {
		cp := *m
		db.AddModule(&cp)
	}
	for _, a := range other.Asserts() {
		cp := *a
		db.AddAssert(&cp)
	}
}
