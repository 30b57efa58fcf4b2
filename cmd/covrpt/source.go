// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mdhender/covrpt/export"
	"github.com/mdhender/covrpt/metrics"
	"github.com/mdhender/covrpt/model"
	"github.com/mdhender/covrpt/parsers"
	"github.com/mdhender/covrpt/reports"
	store "github.com/mdhender/covrpt/stores/sqlite"
	"github.com/spf13/cobra"
)

// source names where a command reads its database from.
// Report files and a report directory may be combined; a snapshot or a
// saved run replaces them.
type source struct {
	files    []string
	dir      string
	snapshot string
	sqlite   string
	run      string
}

func (s *source) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.dir, "dir", "d", s.dir, "load every report found in the directory")
	cmd.Flags().StringVar(&s.snapshot, "snapshot", s.snapshot, "load a msgpack snapshot")
	cmd.Flags().StringVar(&s.sqlite, "sqlite", s.sqlite, "sqlite database for saved runs (default from config)")
	cmd.Flags().StringVar(&s.run, "run", s.run, "load the saved run with this id")
}

func (s *source) sqlitePath() string {
	if s.sqlite != "" {
		return s.sqlite
	}
	return cfg.Store.SQLitePath
}

// parseFileArg accepts "kind=path" or a path whose name identifies its kind.
func parseFileArg(arg string) (parsers.Kind, string, error) {
	if k, path, ok := strings.Cut(arg, "="); ok {
		kind, err := parsers.ParseKind(k)
		return kind, path, err
	}
	kind, ok := reports.Detect(arg)
	if !ok {
		return 0, "", fmt.Errorf("%s: cannot tell report kind from name, use kind=path", arg)
	}
	return kind, arg, nil
}

func (s *source) load(ctx context.Context, collector *metrics.Collector) (*model.CoverageDatabase, error) {
	switch {
	case s.snapshot != "":
		db, err := export.LoadSnapshotFile(osFs, s.snapshot)
		if err != nil {
			return nil, err
		}
		logger.Infof("%s: loaded snapshot %s", s.snapshot, db.ID())
		return db, nil
	case s.run != "":
		id, err := uuid.Parse(s.run)
		if err != nil {
			return nil, fmt.Errorf("run: %w", err)
		}
		path := s.sqlitePath()
		if path == "" {
			return nil, errors.New("--run needs --sqlite or store.sqlite_path")
		}
		st, err := store.NewSQLiteStoreWithConfig(store.StoreConfig{Path: path})
		if err != nil {
			return nil, err
		}
		defer st.Close()
		return st.Load(ctx, id)
	case s.dir == "" && len(s.files) == 0:
		return nil, errors.New("nothing to load: give report files, --dir, --snapshot or --run")
	}

	db := model.NewCoverageDatabase()
	opts := cfg.ParserOptions()
	opts = append(opts, parsers.WithLogger(logger), parsers.WithFs(osFs))
	var failed int
	if s.dir != "" {
		results, err := reports.Load(ctx, osFs, s.dir, db, logger, opts...)
		if err != nil {
			return nil, err
		}
		for _, r := range results {
			collector.ObserveParse(r.Input.Kind, r.Stats, r.Err)
			if r.Err != nil {
				failed++
				logger.Errorf("%s: %s: %v", r.Input.Path, model.Code(r.Err), r.Err)
				continue
			}
			logParse(r.Input.Kind, r.Input.Path, r.Stats)
		}
	}
	for _, arg := range s.files {
		kind, path, err := parseFileArg(arg)
		if err != nil {
			return nil, err
		}
		p, err := parsers.ForFile(kind, path, opts...)
		if err != nil {
			return nil, err
		}
		stats, err := p.Parse(ctx, path, db)
		collector.ObserveParse(kind, stats, err)
		if err != nil {
			failed++
			logger.Errorf("%s: %s: %v", path, model.Code(err), err)
			continue
		}
		logParse(kind, path, stats)
	}
	if failed != 0 {
		return db, fmt.Errorf("%d report(s) failed to parse", failed)
	}
	return db, nil
}

func logParse(kind parsers.Kind, path string, stats parsers.Stats) {
	logger.Infof("%s: %s: %s records, %s skipped, %s in %v",
		kind, path,
		humanize.Comma(int64(stats.Records)),
		humanize.Comma(int64(stats.LinesSkipped)),
		humanize.IBytes(uint64(stats.FileSize)),
		stats.Duration)
}

// writeMetrics writes the collector to path when path is set.
func writeMetrics(collector *metrics.Collector, path string) error {
	if path == "" {
		path = cfg.Metrics.Textfile
	}
	if path == "" {
		return nil
	}
	if err := collector.WriteTextfile(path); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	logger.Debugf("%s: wrote metrics", path)
	return nil
}
