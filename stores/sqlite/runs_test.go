// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/mdhender/covrpt/model"
	store "github.com/mdhender/covrpt/stores/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *model.CoverageDatabase {
	db := model.NewCoverageDatabase()
	db.SetDashboard(&model.DashboardData{
		Date:                     "Mon Sep  8 14:06:30 2025",
		User:                     "verif_eng",
		Version:                  "U-2023.03-SP2-9",
		CommandLine:              "urg -dir simv.vdb",
		TotalScore:               75.32,
		AssertCoverage:           model.ReportedMetric(68.45, 12584, 18392),
		GroupCoverage:            model.ReportedMetric(82.19, 25847, 31456),
		NumHierarchicalInstances: 2847,
	})
	db.AddGroup(&model.CoverageGroup{Name: "tb.cpu.alu::arithmetic_ops", Coverage: model.NewCoverageMetric(45, 50),
		Instances: 2, Weight: 3, Goal: 95, AtLeast: 2, PerInstance: 1, AutoBinMax: 128, PrintMissing: 32, Comment: "High priority group"})
	db.AddGroup(&model.CoverageGroup{Name: "tb.cpu.alu::logic_ops", Coverage: model.NewCoverageMetric(0, 16), Weight: 1, Goal: 100})
	db.AddHierarchy(model.NewHierarchyInstance("top.cpu.alu", 92.15, model.ReportedMetric(92.15, 123, 133)))
	db.AddHierarchy(model.NewHierarchyInstance("top", 0, model.CoverageMetric{}))
	db.AddModule(&model.ModuleDefinition{ModuleName: "cpu_core", TotalScore: 95.67, AssertCoverage: model.ReportedMetric(95.67, 287, 300)})
	db.AddAssert(&model.AssertCoverage{AssertName: "check_data_integrity", Severity: "FAIL", InstancePath: "tb.mem.ctrl", FileLocation: "mem_ctrl.sv", LineNumber: 123})
	db.AddAssert(&model.AssertCoverage{AssertName: "simple_assertion", Severity: "COVERED", IsCovered: true, HitCount: 1, InstancePath: "tb.simple", FileLocation: "simple.sv", LineNumber: 10})
	return db
}

func requireSameDatabase(t *testing.T, want, got *model.CoverageDatabase) {
	t.Helper()
	assert.Equal(t, want.ID(), got.ID())
	assert.Equal(t, want.Dashboard(), got.Dashboard())
	assert.Equal(t, want.Groups(), got.Groups())
	assert.Equal(t, want.Hierarchy(), got.Hierarchy())
	assert.Equal(t, want.Modules(), got.Modules())
	assert.Equal(t, want.Asserts(), got.Asserts())
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewSQLiteStore()
	require.NoError(t, err)
	defer s.Close()

	src := sample()
	require.NoError(t, s.Save(ctx, src, "nightly"))
	got, err := s.Load(ctx, src.ID())
	require.NoError(t, err)
	requireSameDatabase(t, src, got)

	// saving again replaces the run
	src.AddGroup(&model.CoverageGroup{Name: "tb.mem::hits", Coverage: model.NewCoverageMetric(128, 128)})
	require.NoError(t, s.Save(ctx, src, "nightly"))
	got, err = s.Load(ctx, src.ID())
	require.NoError(t, err)
	assert.Equal(t, 3, got.NumGroups())

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, src.ID(), runs[0].ID)
	assert.Equal(t, "nightly", runs[0].Label)
	assert.InDelta(t, src.CalculateOverallScore(), runs[0].OverallScore, 1e-9)
	assert.False(t, runs[0].CreatedAt.IsZero())
}

func TestLoad_WithoutDashboard(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewSQLiteStore()
	require.NoError(t, err)
	defer s.Close()

	src := model.NewCoverageDatabase()
	src.AddGroup(&model.CoverageGroup{Name: "g", Coverage: model.NewCoverageMetric(1, 2)})
	require.NoError(t, s.Save(ctx, src, ""))
	got, err := s.Load(ctx, src.ID())
	require.NoError(t, err)
	assert.Nil(t, got.Dashboard())
	assert.Equal(t, 1, got.NumGroups())
}

func TestStoresAreIsolated(t *testing.T) {
	ctx := context.Background()
	a, err := store.NewSQLiteStore()
	require.NoError(t, err)
	defer a.Close()
	b, err := store.NewSQLiteStore()
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Save(ctx, sample(), "a"))
	runs, err := b.Runs(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestDeleteRun(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewSQLiteStore()
	require.NoError(t, err)
	defer s.Close()

	src := sample()
	require.NoError(t, s.Save(ctx, src, ""))
	require.NoError(t, s.DeleteRun(ctx, src.ID()))
	_, err = s.Load(ctx, src.ID())
	assert.ErrorIs(t, err, store.ErrRunNotFound)
	assert.ErrorIs(t, s.DeleteRun(ctx, src.ID()), store.ErrRunNotFound)
	_, err = s.Load(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrRunNotFound)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "coverage.db")

	_, err := store.NewSQLiteStoreWithConfig(store.StoreConfig{Path: path})
	assert.ErrorIs(t, err, store.ErrDatabaseMissing)

	s, err := store.Open(path)
	require.NoError(t, err)
	src := sample()
	require.NoError(t, s.Save(ctx, src, "file"))
	require.NoError(t, s.Close())

	assert.ErrorIs(t, store.InitDatabase(path), store.ErrDatabaseExists)

	s, err = store.NewSQLiteStoreWithConfig(store.StoreConfig{Path: path})
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Load(ctx, src.ID())
	require.NoError(t, err)
	requireSameDatabase(t, src, got)
}
