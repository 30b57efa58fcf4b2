// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package parsers

import (
	"bytes"

	"github.com/mdhender/covrpt/model"
	"github.com/mdhender/covrpt/pipelines/chunks"
	"github.com/mdhender/covrpt/textutil"
)

// interner turns a byte slice from the input into a string that outlives the input.
type interner func(b []byte) string

func heapString(b []byte) string {
	return string(b)
}

// recognizer turns one tokenized line into a record.
// It returns false for headers, separators and malformed lines.
type recognizer[T any] func(line []byte, fields [][]byte, intern interner) (T, bool)

var (
	separator = []byte("---")
	space     = []byte(" ")
)

// minGroupFields is the ten numeric columns plus the name.
const minGroupFields = 11

// groupLine recognizes
//
//	covered expected score instances weight goal at_least per_instance auto_bin_max print_missing [comment...] name
//
// The metric is derived from the counts; the printed score must still be numeric.
func groupLine(line []byte, fields [][]byte, intern interner) (*model.CoverageGroup, bool) {
	if len(fields) < minGroupFields || bytes.Contains(line, separator) {
		return nil, false
	}
	covered, err := chunks.ParseUint(fields[0])
	if err != nil {
		return nil, false
	}
	expected, err := chunks.ParseUint(fields[1])
	if err != nil {
		return nil, false
	}
	if _, err := chunks.ParseFloat(fields[2]); err != nil {
		return nil, false
	}
	instances, err := chunks.ParseFloat(fields[3])
	if err != nil || instances < 0 {
		return nil, false
	}
	var counts [6]uint32
	for i := range counts {
		if counts[i], err = chunks.ParseUint(fields[4+i]); err != nil {
			return nil, false
		}
	}
	g := &model.CoverageGroup{
		Name:         intern(fields[len(fields)-1]),
		Coverage:     model.NewCoverageMetric(covered, expected),
		Instances:    uint32(instances),
		Weight:       counts[0],
		Goal:         counts[1],
		AtLeast:      counts[2],
		PerInstance:  counts[3],
		AutoBinMax:   counts[4],
		PrintMissing: counts[5],
	}
	if comment := fields[minGroupFields-1 : len(fields)-1]; len(comment) != 0 {
		g.Comment = textutil.RemoveQuotes(intern(bytes.Join(comment, space)))
	}
	return g, true
}

// scoreRow is the "score assert_score covered/expected name" row shared by
// the hierarchy, module list and dashboard reports.
type scoreRow struct {
	score       float64
	assertScore float64
	covered     uint32
	expected    uint32
	name        []byte
}

func parseScoreRow(fields [][]byte) (scoreRow, bool) {
	if len(fields) != 4 {
		return scoreRow{}, false
	}
	var row scoreRow
	var err error
	if row.score, err = chunks.ParseFloat(fields[0]); err != nil {
		return scoreRow{}, false
	}
	if row.assertScore, err = chunks.ParseFloat(fields[1]); err != nil {
		return scoreRow{}, false
	}
	if row.covered, row.expected, err = chunks.ParseRatio(fields[2]); err != nil {
		return scoreRow{}, false
	}
	row.name = fields[3]
	return row, true
}

func (r scoreRow) metric() model.CoverageMetric {
	return model.ReportedMetric(r.assertScore, r.covered, r.expected)
}

func hierarchyLine(_ []byte, fields [][]byte, intern interner) (*model.HierarchyInstance, bool) {
	row, ok := parseScoreRow(fields)
	if !ok {
		return nil, false
	}
	return model.NewHierarchyInstance(intern(row.name), row.score, row.metric()), true
}

func moduleLine(_ []byte, fields [][]byte, intern interner) (*model.ModuleDefinition, bool) {
	row, ok := parseScoreRow(fields)
	if !ok {
		return nil, false
	}
	return &model.ModuleDefinition{
		ModuleName:     intern(row.name),
		TotalScore:     row.score,
		AssertCoverage: row.metric(),
	}, true
}

// assertLine recognizes
//
//	PASS|FAIL hits name instance file:line
//	COVERED|UNCOVERED n/m name instance file:line
func assertLine(_ []byte, fields [][]byte, intern interner) (*model.AssertCoverage, bool) {
	if len(fields) < 5 {
		return nil, false
	}
	severity := string(fields[0])
	if !model.IsKnownSeverity(severity) {
		return nil, false
	}
	var hits uint32
	var err error
	if bytes.IndexByte(fields[1], '/') != -1 {
		hits, _, err = chunks.ParseRatio(fields[1])
	} else {
		hits, err = chunks.ParseUint(fields[1])
	}
	if err != nil {
		return nil, false
	}
	location := fields[len(fields)-1]
	colon := bytes.LastIndexByte(location, ':')
	if colon < 1 {
		return nil, false
	}
	lineNo, err := chunks.ParseUint(location[colon+1:])
	if err != nil {
		return nil, false
	}
	return &model.AssertCoverage{
		AssertName:   intern(fields[2]),
		Severity:     intern(fields[0]),
		IsCovered:    model.IsCoveredSeverity(severity),
		HitCount:     hits,
		InstancePath: intern(fields[3]),
		FileLocation: intern(location[:colon]),
		LineNumber:   lineNo,
	}, true
}
