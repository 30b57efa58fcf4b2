// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package export

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/mdhender/covrpt/model"
	"github.com/spf13/afero"
	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotVersion is written into every snapshot and checked on load.
const SnapshotVersion = 1

var ErrSnapshotVersion = errors.New("unsupported snapshot version")

// snapshot is the msgpack encoding of a whole database.
type snapshot struct {
	Version   int                        `msgpack:"version"`
	ID        string                     `msgpack:"id"`
	SavedAt   time.Time                  `msgpack:"saved_at"`
	Dashboard *model.DashboardData       `msgpack:"dashboard,omitempty"`
	Groups    []*model.CoverageGroup     `msgpack:"groups"`
	Hierarchy []*model.HierarchyInstance `msgpack:"hierarchy"`
	Modules   []*model.ModuleDefinition  `msgpack:"modules"`
	Asserts   []*model.AssertCoverage    `msgpack:"asserts"`
}

// SaveSnapshot writes every record of db to w.
func SaveSnapshot(w io.Writer, db *model.CoverageDatabase) error {
	return msgpack.NewEncoder(w).Encode(&snapshot{
		Version:   SnapshotVersion,
		ID:        db.ID().String(),
		SavedAt:   time.Now().UTC(),
		Dashboard: db.Dashboard(),
		Groups:    db.Groups(),
		Hierarchy: db.Hierarchy(),
		Modules:   db.Modules(),
		Asserts:   db.Asserts(),
	})
}

// LoadSnapshot reads a database written by SaveSnapshot.
// Hierarchy instances are rebuilt from their paths.
func LoadSnapshot(r io.Reader) (*model.CoverageDatabase, error) {
	var s snapshot
	if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("snapshot: %w: %w", model.ErrInvalidFormat, err)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot: version %d: %w", s.Version, ErrSnapshotVersion)
	}
	db := model.NewCoverageDatabase()
	if id, err := uuid.Parse(s.ID); err == nil {
		db.SetID(id)
	}
	db.SetDashboard(s.Dashboard)
	for _, g := range s.Groups {
		db.AddGroup(g)
	}
	for _, h := range s.Hierarchy {
		if h != nil {
			db.AddHierarchy(model.NewHierarchyInstance(h.InstancePath, h.TotalScore, h.AssertCoverage))
		}
	}
	for _, m := range s.Modules {
		db.AddModule(m)
	}
	for _, a := range s.Asserts {
		db.AddAssert(a)
	}
	return db, nil
}

// LoadSnapshotFile reads a snapshot from path.
func LoadSnapshotFile(fs afero.Fs, path string) (*model.CoverageDatabase, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, &model.ParseError{Op: "open", Path: path, Err: fmt.Errorf("%w: %w", model.ErrFileNotFound, err)}
	}
	defer f.Close()
	db, err := LoadSnapshot(f)
	if err != nil {
		return nil, &model.ParseError{Op: "parse", Path: path, Err: err}
	}
	return db, nil
}
