// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/mdhender/covrpt/textutil"
)

// CoverageMetric is a covered/expected pair with its score.
// When IsValid is set by NewCoverageMetric, Score is 100*Covered/Expected
// (or 0 when Expected is 0).
type CoverageMetric struct {
	Covered  uint32  `json:"covered" yaml:"covered" msgpack:"covered"`
	Expected uint32  `json:"expected" yaml:"expected" msgpack:"expected"`
	Score    float64 `json:"score" yaml:"score" msgpack:"score"`
	IsValid  bool    `json:"is_valid" yaml:"is_valid" msgpack:"is_valid"`
}

// NewCoverageMetric returns a valid metric with the score derived from the counts.
func NewCoverageMetric(covered, expected uint32) CoverageMetric {
	return CoverageMetric{
		Covered:  covered,
		Expected: expected,
		Score:    textutil.CalculateCoveragePercentage(covered, expected),
		IsValid:  true,
	}
}

// ReportedMetric returns a valid metric that keeps the score printed by the tool.
// Tools round and weight scores, so the printed value is authoritative.
func ReportedMetric(score float64, covered, expected uint32) CoverageMetric {
	return CoverageMetric{
		Covered:  covered,
		Expected: expected,
		Score:    score,
		IsValid:  true,
	}
}

// Percentage recomputes the score from the counts.
func (m CoverageMetric) Percentage() float64 {
	return textutil.CalculateCoveragePercentage(m.Covered, m.Expected)
}

// MeetsGoal reports whether the score reaches goal.
func (m CoverageMetric) MeetsGoal(goal float64) bool {
	return m.Score >= goal
}

// IsEmpty is true when nothing is expected.
func (m CoverageMetric) IsEmpty() bool {
	return m.Expected == 0
}

func (m CoverageMetric) String() string {
	return fmt.Sprintf("Coverage: %d/%d (%.2f%%)", m.Covered, m.Expected, m.Score)
}

// CoverageGroup is a named covergroup bin, keyed by Name.
type CoverageGroup struct {
	Name         string         `json:"name" yaml:"name" msgpack:"name"`
	Coverage     CoverageMetric `json:"coverage" yaml:"coverage" msgpack:"coverage"`
	Instances    uint32         `json:"instances" yaml:"instances" msgpack:"instances"`
	Weight       uint32         `json:"weight" yaml:"weight" msgpack:"weight"`
	Goal         uint32         `json:"goal" yaml:"goal" msgpack:"goal"`
	AtLeast      uint32         `json:"at_least" yaml:"at_least" msgpack:"at_least"`
	PerInstance  uint32         `json:"per_instance" yaml:"per_instance" msgpack:"per_instance"`
	AutoBinMax   uint32         `json:"auto_bin_max" yaml:"auto_bin_max" msgpack:"auto_bin_max"`
	PrintMissing uint32         `json:"print_missing" yaml:"print_missing" msgpack:"print_missing"`
	Comment      string         `json:"comment,omitempty" yaml:"comment,omitempty" msgpack:"comment,omitempty"`
}

// MeetsGoal reports whether the group's score reaches its goal.
func (g *CoverageGroup) MeetsGoal() bool {
	return g.Coverage.MeetsGoal(float64(g.Goal))
}

// WeightedScore returns score * weight / 100.
func (g *CoverageGroup) WeightedScore() float64 {
	return g.Coverage.Score * float64(g.Weight) / 100.0
}

// IsEmpty is true when the group expects no bins.
func (g *CoverageGroup) IsEmpty() bool {
	return g.Coverage.IsEmpty()
}

func (g *CoverageGroup) String() string {
	return fmt.Sprintf("Group: %s - %s", g.Name, g.Coverage)
}

// HierarchyInstance is a node of the design tree keyed by its dotted path.
// ModuleName and DepthLevel are derived from InstancePath by NewHierarchyInstance
// and must not be set independently.
type HierarchyInstance struct {
	InstancePath   string         `json:"instance_path" yaml:"instance_path" msgpack:"instance_path"`
	ModuleName     string         `json:"module_name" yaml:"module_name" msgpack:"module_name"`
	DepthLevel     uint32         `json:"depth_level" yaml:"depth_level" msgpack:"depth_level"`
	TotalScore     float64        `json:"total_score" yaml:"total_score" msgpack:"total_score"`
	AssertCoverage CoverageMetric `json:"assert_coverage" yaml:"assert_coverage" msgpack:"assert_coverage"`
}

// NewHierarchyInstance returns an instance with the derived fields filled in.
func NewHierarchyInstance(path string, totalScore float64, asserts CoverageMetric) *HierarchyInstance {
	h := &HierarchyInstance{
		InstancePath:   path,
		TotalScore:     totalScore,
		AssertCoverage: asserts,
	}
	h.derive()
	return h
}

func (h *HierarchyInstance) derive() {
	h.DepthLevel = uint32(strings.Count(h.InstancePath, "."))
	h.ModuleName = h.InstancePath
	if n := strings.LastIndexByte(h.InstancePath, '.'); n != -1 {
		h.ModuleName = h.InstancePath[n+1:]
	}
}

// ParentPath returns the path without its last component, or "" for a root.
func (h *HierarchyInstance) ParentPath() string {
	if n := strings.LastIndexByte(h.InstancePath, '.'); n != -1 {
		return h.InstancePath[:n]
	}
	return ""
}

// PathComponents splits the path on dots, dropping empty components.
func (h *HierarchyInstance) PathComponents() []string {
	var components []string
	for _, c := range strings.Split(h.InstancePath, ".") {
		if c != "" {
			components = append(components, c)
		}
	}
	return components
}

// IsRoot is true for instances without a parent.
func (h *HierarchyInstance) IsRoot() bool {
	return h.DepthLevel == 0
}

// ModuleDefinition is the aggregated coverage of a module across its instances.
type ModuleDefinition struct {
	ModuleName     string         `json:"module_name" yaml:"module_name" msgpack:"module_name"`
	TotalScore     float64        `json:"total_score" yaml:"total_score" msgpack:"total_score"`
	AssertCoverage CoverageMetric `json:"assert_coverage" yaml:"assert_coverage" msgpack:"assert_coverage"`
}

// Severity values found in assertion reports.
const (
	SeverityPass      = "PASS"
	SeverityFail      = "FAIL"
	SeverityCovered   = "COVERED"
	SeverityUncovered = "UNCOVERED"
)

// AssertCoverage is one assertion, keyed by AssertName.
type AssertCoverage struct {
	AssertName   string `json:"assert_name" yaml:"assert_name" msgpack:"assert_name"`
	Severity     string `json:"severity" yaml:"severity" msgpack:"severity"`
	IsCovered    bool   `json:"is_covered" yaml:"is_covered" msgpack:"is_covered"`
	HitCount     uint32 `json:"hit_count" yaml:"hit_count" msgpack:"hit_count"`
	InstancePath string `json:"instance_path" yaml:"instance_path" msgpack:"instance_path"`
	FileLocation string `json:"file_location" yaml:"file_location" msgpack:"file_location"`
	LineNumber   uint32 `json:"line_number" yaml:"line_number" msgpack:"line_number"`
}

// FullLocation returns "file:line".
func (a *AssertCoverage) FullLocation() string {
	return fmt.Sprintf("%s:%d", a.FileLocation, a.LineNumber)
}

// IsCritical is true when the severity reports a failure.
func (a *AssertCoverage) IsCritical() bool {
	switch strings.ToUpper(a.Severity) {
	case SeverityFail, SeverityUncovered:
		return true
	}
	return false
}

// IsCoveredSeverity normalizes the two status vocabularies.
// PASS and COVERED are covered; everything else is not.
func IsCoveredSeverity(severity string) bool {
	switch strings.ToUpper(severity) {
	case SeverityPass, SeverityCovered:
		return true
	}
	return false
}

// IsKnownSeverity reports whether severity belongs to either vocabulary.
func IsKnownSeverity(severity string) bool {
	switch strings.ToUpper(severity) {
	case SeverityPass, SeverityFail, SeverityCovered, SeverityUncovered:
		return true
	}
	return false
}

// DashboardData is the run summary at the top of a dashboard report.
type DashboardData struct {
	Date                     string         `json:"date" yaml:"date" msgpack:"date"`
	User                     string         `json:"user" yaml:"user" msgpack:"user"`
	Version                  string         `json:"version" yaml:"version" msgpack:"version"`
	CommandLine              string         `json:"command_line" yaml:"command_line" msgpack:"command_line"`
	TotalScore               float64        `json:"total_score" yaml:"total_score" msgpack:"total_score"`
	AssertCoverage           CoverageMetric `json:"assert_coverage" yaml:"assert_coverage" msgpack:"assert_coverage"`
	GroupCoverage            CoverageMetric `json:"group_coverage" yaml:"group_coverage" msgpack:"group_coverage"`
	NumHierarchicalInstances uint32         `json:"num_hierarchical_instances" yaml:"num_hierarchical_instances" msgpack:"num_hierarchical_instances"`
}

// IsValid is true once every labelled header field has been populated.
func (d *DashboardData) IsValid() bool {
	return d.Date != "" && d.User != "" && d.Version != "" && d.CommandLine != ""
}

// Timestamp parses Date. It returns false if the date is missing or unrecognized.
func (d *DashboardData) Timestamp() (time.Time, bool) {
	return textutil.ParseDateTime(d.Date)
}

// Statistics summarizes the coverage groups of a database.
type Statistics struct {
	OverallCoverageScore  float64 `json:"overall_coverage_score"`
	TotalCoveragePoints   uint32  `json:"total_coverage_points"`
	CoveredPoints         uint32  `json:"covered_points"`
	NumZeroCoverageGroups uint32  `json:"num_zero_coverage_groups"`
	NumFullCoverageGroups uint32  `json:"num_full_coverage_groups"`
}
