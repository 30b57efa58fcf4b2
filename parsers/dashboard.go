// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package parsers

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/mdhender/covrpt/model"
	"github.com/mdhender/covrpt/pipelines/chunks"
	"github.com/mdhender/covrpt/textutil"
)

// DashboardParser reads the run summary report.
//
// Labelled lines set the header fields, the first "score score c/e score c/e"
// row sets the summary metrics, and the rows that follow the top-level
// instances banner are loaded as hierarchy instances.
type DashboardParser struct {
	cfg *Config
}

var (
	labelDate      = []byte("Date:")
	labelUser      = []byte("User:")
	labelVersion   = []byte("Version:")
	labelCommand   = []byte("Command line:")
	labelTotal     = []byte("Total:")
	labelInstances = []byte("Number of Hierarchical instances processed:")
	bannerTopLevel = []byte("top-level instances")
)

// dashboardState carries what has been seen so far in one file.
type dashboardState struct {
	data      model.DashboardData
	found     bool // at least one dashboard field was set
	summary   bool // the summary row has been consumed
	topLevel  bool // inside the top-level instances section
	instances []*model.HierarchyInstance
}

func (s *dashboardState) line(line []byte, fields [][]byte) bool {
	trimmed := bytes.TrimSpace(line)
	switch {
	case bytes.HasPrefix(trimmed, labelDate):
		s.data.Date = label(trimmed, labelDate)
	case bytes.HasPrefix(trimmed, labelUser):
		s.data.User = label(trimmed, labelUser)
	case bytes.HasPrefix(trimmed, labelVersion):
		s.data.Version = label(trimmed, labelVersion)
	case bytes.HasPrefix(trimmed, labelCommand):
		s.data.CommandLine = label(trimmed, labelCommand)
	case bytes.HasPrefix(trimmed, labelTotal):
		total, err := chunks.ParseFloat(bytes.TrimSpace(trimmed[len(labelTotal):]))
		if err != nil {
			return false
		}
		s.data.TotalScore = total
	case bytes.HasPrefix(trimmed, labelInstances):
		n, err := chunks.ParseUint(bytes.TrimSpace(trimmed[len(labelInstances):]))
		if err != nil {
			return false
		}
		s.data.NumHierarchicalInstances = n
	case bytes.Contains(bytes.ToLower(trimmed), bannerTopLevel):
		s.topLevel = true
		return true
	case !s.summary && len(fields) == 5:
		if !s.summaryRow(fields) {
			return false
		}
		s.summary = true
	case s.topLevel:
		row, ok := parseScoreRow(fields)
		if !ok {
			return false
		}
		s.instances = append(s.instances, model.NewHierarchyInstance(string(row.name), row.score, row.metric()))
		return true
	default:
		return false
	}
	s.found = true
	return true
}

// summaryRow recognizes "score assert_score ac/ae group_score gc/ge".
func (s *dashboardState) summaryRow(fields [][]byte) bool {
	total, err := chunks.ParseFloat(fields[0])
	if err != nil {
		return false
	}
	assertScore, err := chunks.ParseFloat(fields[1])
	if err != nil {
		return false
	}
	ac, ae, err := chunks.ParseRatio(fields[2])
	if err != nil {
		return false
	}
	groupScore, err := chunks.ParseFloat(fields[3])
	if err != nil {
		return false
	}
	gc, ge, err := chunks.ParseRatio(fields[4])
	if err != nil {
		return false
	}
	s.data.TotalScore = total
	s.data.AssertCoverage = model.ReportedMetric(assertScore, ac, ae)
	s.data.GroupCoverage = model.ReportedMetric(groupScore, gc, ge)
	return true
}

func label(line, prefix []byte) string {
	return textutil.Trim(string(line[len(prefix):]))
}

func (p *DashboardParser) Parse(ctx context.Context, path string, db *model.CoverageDatabase) (stats Stats, err error) {
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

	var state dashboardState
	fields := make([][]byte, 0, 16)
	lineNo := 0
	chunks.Lines(data, func(line []byte) bool {
		lineNo++
		fields = chunks.Fields(line, fields[:0])
		if len(fields) == 0 {
			return true
		}
		stats.LinesProcessed++
		if !state.line(line, fields) {
			stats.LinesSkipped++
			p.cfg.log.Debugf("%s: %s: %d: skipped %q", Dashboard, path, lineNo, line)
		}
		return true
	})

	if state.found {
		db.SetDashboard(&state.data)
		stats.Records++
	}
	for _, h := range state.instances {
		db.AddHierarchy(h)
		stats.Records++
	}
	stats.finish(started)
	p.cfg.log.Infof("%s: %s: %d records, %d lines, %d skipped in %v", Dashboard, path, stats.Records, stats.LinesProcessed, stats.LinesSkipped, stats.Duration)
	return stats, nil
}
