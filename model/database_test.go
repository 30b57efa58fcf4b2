// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model_test

import (
	"math"
	"sort"
	"testing"
	"time"

	"github.com/mdhender/covrpt/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func group(name string, covered, expected uint32) *model.CoverageGroup {
	return &model.CoverageGroup{Name: name, Coverage: model.NewCoverageMetric(covered, expected), Weight: 1, Goal: 100}
}

func names(groups []*model.CoverageGroup) []string {
	var result []string
	for _, g := range groups {
		result = append(result, g.Name)
	}
	sort.Strings(result)
	return result
}

func TestCoverageMetric(t *testing.T) {
	m := model.NewCoverageMetric(45, 50)
	assert.True(t, m.IsValid)
	assert.InDelta(t, 90.0, m.Score, 0.01)
	assert.True(t, m.MeetsGoal(90))
	assert.False(t, m.MeetsGoal(95))
	assert.False(t, m.IsEmpty())
	assert.Equal(t, "Coverage: 45/50 (90.00%)", m.String())

	empty := model.NewCoverageMetric(0, 0)
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, 0.0, empty.Score)

	reported := model.ReportedMetric(68.45, 12584, 18392)
	assert.Equal(t, 68.45, reported.Score)
	assert.InDelta(t, 68.42, reported.Percentage(), 0.01)
}

func TestCoverageGroup_Derived(t *testing.T) {
	g := &model.CoverageGroup{Name: "tb.cpu.alu::arithmetic_ops", Coverage: model.NewCoverageMetric(45, 50), Weight: 3, Goal: 95}
	assert.False(t, g.MeetsGoal())
	assert.InDelta(t, 2.7, g.WeightedScore(), 0.001)
	assert.False(t, g.IsEmpty())

	g.Goal = 90
	assert.True(t, g.MeetsGoal())
}

func TestHierarchyInstance_DepthLaw(t *testing.T) {
	h := model.NewHierarchyInstance("top.cpu.alu", 92.15, model.NewCoverageMetric(123, 133))
	assert.Equal(t, uint32(2), h.DepthLevel)
	assert.Equal(t, "alu", h.ModuleName)
	assert.Equal(t, "top.cpu", h.ParentPath())
	assert.Equal(t, []string{"top", "cpu", "alu"}, h.PathComponents())
	assert.False(t, h.IsRoot())

	root := model.NewHierarchyInstance("top", 0, model.CoverageMetric{})
	assert.Equal(t, uint32(0), root.DepthLevel)
	assert.Equal(t, "top", root.ModuleName)
	assert.Equal(t, "", root.ParentPath())
	assert.True(t, root.IsRoot())
}

func TestAssertCoverage_Derived(t *testing.T) {
	a := &model.AssertCoverage{AssertName: "check_data_integrity", Severity: "FAIL", FileLocation: "mem_ctrl.sv", LineNumber: 123}
	assert.Equal(t, "mem_ctrl.sv:123", a.FullLocation())
	assert.True(t, a.IsCritical())

	for severity, covered := range map[string]bool{"PASS": true, "COVERED": true, "FAIL": false, "UNCOVERED": false, "pass": true} {
		assert.Equal(t, covered, model.IsCoveredSeverity(severity), severity)
	}
	assert.False(t, (&model.AssertCoverage{Severity: "COVERED"}).IsCritical())
	assert.True(t, (&model.AssertCoverage{Severity: "UNCOVERED"}).IsCritical())
}

func TestDashboardData_IsValid(t *testing.T) {
	d := &model.DashboardData{Date: "Mon Sep  8 14:06:30 2025", User: "u", Version: "v"}
	assert.False(t, d.IsValid())
	d.CommandLine = "urg"
	assert.True(t, d.IsValid())
	ts, ok := d.Timestamp()
	require.True(t, ok)
	assert.Equal(t, 2025, ts.Year())
}

func TestDatabase_AddIsIdempotentByKey(t *testing.T) {
	db := model.NewCoverageDatabase()
	before := db.LastModified()
	time.Sleep(time.Millisecond)

	db.AddGroup(group("g1", 1, 2))
	db.AddGroup(group("g1", 2, 2))
	require.Equal(t, 1, db.NumGroups())
	assert.Equal(t, uint32(2), db.FindGroup("g1").Coverage.Covered)
	assert.True(t, db.LastModified().After(before))

	db.AddGroup(group("", 1, 1))
	db.AddGroup(nil)
	db.AddHierarchy(model.NewHierarchyInstance("", 0, model.CoverageMetric{}))
	db.AddModule(&model.ModuleDefinition{})
	db.AddAssert(&model.AssertCoverage{})
	assert.Equal(t, 1, db.NumGroups())
	assert.Equal(t, 0, db.NumHierarchy())
	assert.Equal(t, 0, db.NumModules())
	assert.Equal(t, 0, db.NumAsserts())
	assert.Nil(t, db.FindGroup("missing"))
}

func TestDatabase_ScenarioD(t *testing.T) {
	db := model.NewCoverageDatabase()
	db.AddGroup(group("g1", 0, 16))
	db.AddGroup(group("g2", 128, 128))

	assert.Equal(t, []string{"g1"}, names(db.UncoveredGroups()))
	assert.InDelta(t, 88.89, db.CalculateOverallScore(), 0.01)

	stats := db.GenerateStatistics()
	assert.InDelta(t, 88.89, stats.OverallCoverageScore, 0.01)
	assert.Equal(t, uint32(144), stats.TotalCoveragePoints)
	assert.Equal(t, uint32(128), stats.CoveredPoints)
	assert.Equal(t, uint32(1), stats.NumZeroCoverageGroups)
	assert.Equal(t, uint32(1), stats.NumFullCoverageGroups)
}

func TestDatabase_StatisticsEmptyGroupCountsAsZero(t *testing.T) {
	db := model.NewCoverageDatabase()
	db.AddGroup(group("empty", 0, 0))
	stats := db.GenerateStatistics()
	assert.Equal(t, uint32(1), stats.NumZeroCoverageGroups)
	assert.Equal(t, uint32(0), stats.NumFullCoverageGroups)
	assert.Equal(t, 0.0, stats.OverallCoverageScore)
}

func TestDatabase_PooledTotalsPastUint32(t *testing.T) {
	db := model.NewCoverageDatabase()
	db.AddGroup(group("full", math.MaxUint32, math.MaxUint32))
	db.AddGroup(group("none", 0, math.MaxUint32))
	assert.InDelta(t, 50.0, db.CalculateOverallScore(), 1e-9)

	stats := db.GenerateStatistics()
	assert.Equal(t, uint32(math.MaxUint32), stats.TotalCoveragePoints, "clamped, not wrapped")
	assert.Equal(t, uint32(math.MaxUint32), stats.CoveredPoints)
	assert.InDelta(t, 50.0, stats.OverallCoverageScore, 1e-9)
	assert.Equal(t, uint32(1), stats.NumFullCoverageGroups)
	assert.Equal(t, uint32(1), stats.NumZeroCoverageGroups)
}

func TestDatabase_OverallScoreIgnoresNonGroups(t *testing.T) {
	db := model.NewCoverageDatabase()
	assert.Equal(t, 0.0, db.CalculateOverallScore())
	db.AddHierarchy(model.NewHierarchyInstance("top", 50, model.NewCoverageMetric(1, 2)))
	assert.Equal(t, 0.0, db.CalculateOverallScore())
}

func TestDatabase_GroupsByPattern(t *testing.T) {
	db := model.NewCoverageDatabase()
	db.AddGroup(group("tb.cpu.alu::ops", 1, 1))
	db.AddGroup(group("tb.cpu.fpu::ops", 1, 1))
	db.AddGroup(group("tb.mem::miss", 1, 1))
	assert.Equal(t, []string{"tb.cpu.alu::ops", "tb.cpu.fpu::ops"}, names(db.GroupsByPattern("cpu")))
	assert.Empty(t, db.GroupsByPattern("dma"))
	assert.Len(t, db.GroupsByPattern(""), 3)
}

func TestDatabase_Validate(t *testing.T) {
	db := model.NewCoverageDatabase()
	assert.ErrorIs(t, db.Validate(), model.ErrEmptyDatabase)

	db.SetDashboard(&model.DashboardData{User: "u"})
	assert.ErrorIs(t, db.Validate(), model.ErrEmptyDatabase)

	db.AddGroup(group("ok", 0, 16))
	assert.NoError(t, db.Validate())
	assert.True(t, db.IsValid())

	db.AddGroup(&model.CoverageGroup{Name: "bad", Coverage: model.CoverageMetric{Covered: 3, Expected: 0}})
	assert.ErrorIs(t, db.Validate(), model.ErrImpossible)
	assert.False(t, db.IsValid())
}

func TestDatabase_Reset(t *testing.T) {
	db := model.NewCoverageDatabase()
	db.SetDashboard(&model.DashboardData{User: "u"})
	db.AddGroup(group("g", 1, 1))
	db.AddAssert(&model.AssertCoverage{AssertName: "a"})
	db.Reset()
	assert.Nil(t, db.Dashboard())
	assert.True(t, db.IsEmpty())
	assert.Equal(t, 0, db.NumAsserts())
}

func TestDatabase_ChildrenAndSortedSnapshots(t *testing.T) {
	db := model.NewCoverageDatabase()
	for _, p := range []string{"top.mem", "top", "top.cpu.alu", "top.cpu"} {
		db.AddHierarchy(model.NewHierarchyInstance(p, 0, model.CoverageMetric{}))
	}
	var paths []string
	for _, h := range db.Hierarchy() {
		paths = append(paths, h.InstancePath)
	}
	assert.Equal(t, []string{"top", "top.cpu", "top.cpu.alu", "top.mem"}, paths)

	children := db.Children("top")
	require.Len(t, children, 2)
	assert.Equal(t, "top.cpu", children[0].InstancePath)
	assert.Equal(t, "top.mem", children[1].InstancePath)
	assert.Len(t, db.Children(""), 1)
}

func TestDatabase_MergeCopiesRecords(t *testing.T) {
	src := model.NewCoverageDatabase()
	src.AddGroup(group("g", 1, 2))
	src.AddModule(&model.ModuleDefinition{ModuleName: "cpu_core", TotalScore: 95.67})
	src.SetDashboard(&model.DashboardData{User: "u"})

	dst := model.NewCoverageDatabase()
	dst.Merge(src)
	require.Equal(t, 1, dst.NumGroups())
	assert.Equal(t, "u", dst.Dashboard().User)
	assert.NotEqual(t, src.ID(), dst.ID())

	dst.FindGroup("g").Coverage.Covered = 2
	assert.Equal(t, uint32(1), src.FindGroup("g").Coverage.Covered)
}

func TestCode(t *testing.T) {
	assert.Equal(t, model.Success, model.Code(nil))
	err := &model.ParseError{Op: "open", Path: "x", Err: model.ErrFileNotFound}
	assert.Equal(t, model.FileNotFound, model.Code(err))
	assert.Equal(t, model.InvalidParameter, model.Code(model.ErrInvalidParameter))
	assert.Equal(t, model.ParseFailed, model.Code(assert.AnError))
	assert.Equal(t, "ERROR_FILE_NOT_FOUND", model.FileNotFound.String())
	assert.Equal(t, "UNKNOWN_ERROR", model.ResultCode(99).String())
}
