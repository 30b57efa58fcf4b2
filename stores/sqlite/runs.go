// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mdhender/covrpt/model"
)

// Run describes a saved database.
type Run struct {
	ID           uuid.UUID
	Label        string
	CreatedAt    time.Time
	LastModified time.Time
	OverallScore float64
}

// Save writes every record of cdb as the run cdb.ID(), replacing any earlier
// save of the same database.
func (s *SQLiteStore) Save(ctx context.Context, cdb *model.CoverageDatabase, label string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	id := cdb.ID().String()
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, label, created_at, last_modified, overall_score)
		VALUES (?, ?, ?, ?, ?)`,
		id, label,
		time.Now().UTC().Format(time.RFC3339Nano),
		cdb.LastModified().UTC().Format(time.RFC3339Nano),
		cdb.CalculateOverallScore(),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if d := cdb.Dashboard(); d != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO dashboards (run_id, date, user_name, version, command_line, total_score,
			                        assert_score, assert_covered, assert_expected, assert_valid,
			                        group_score, group_covered, group_expected, group_valid, num_instances)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, d.Date, d.User, d.Version, d.CommandLine, d.TotalScore,
			d.AssertCoverage.Score, d.AssertCoverage.Covered, d.AssertCoverage.Expected, boolToInt(d.AssertCoverage.IsValid),
			d.GroupCoverage.Score, d.GroupCoverage.Covered, d.GroupCoverage.Expected, boolToInt(d.GroupCoverage.IsValid),
			d.NumHierarchicalInstances,
		); err != nil {
			return fmt.Errorf("insert dashboard: %w", err)
		}
	}

	if err := insertAll(ctx, tx, "coverage_groups", `
		INSERT INTO coverage_groups (run_id, name, covered, expected, score, is_valid, instances, weight, goal,
		                             at_least, per_instance, auto_bin_max, print_missing, comment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cdb.Groups(), func(g *model.CoverageGroup) []any {
			return []any{id, g.Name, g.Coverage.Covered, g.Coverage.Expected, g.Coverage.Score, boolToInt(g.Coverage.IsValid),
				g.Instances, g.Weight, g.Goal, g.AtLeast, g.PerInstance, g.AutoBinMax, g.PrintMissing, g.Comment}
		}); err != nil {
		return err
	}
	if err := insertAll(ctx, tx, "hierarchy_instances", `
		INSERT INTO hierarchy_instances (run_id, instance_path, total_score, assert_score, assert_covered, assert_expected, assert_valid)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cdb.Hierarchy(), func(h *model.HierarchyInstance) []any {
			m := h.AssertCoverage
			return []any{id, h.InstancePath, h.TotalScore, m.Score, m.Covered, m.Expected, boolToInt(m.IsValid)}
		}); err != nil {
		return err
	}
	if err := insertAll(ctx, tx, "modules", `
		INSERT INTO modules (run_id, module_name, total_score, assert_score, assert_covered, assert_expected, assert_valid)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cdb.Modules(), func(md *model.ModuleDefinition) []any {
			m := md.AssertCoverage
			return []any{id, md.ModuleName, md.TotalScore, m.Score, m.Covered, m.Expected, boolToInt(m.IsValid)}
		}); err != nil {
		return err
	}
	if err := insertAll(ctx, tx, "asserts", `
		INSERT INTO asserts (run_id, assert_name, severity, is_covered, hit_count, instance_path, file_location, line_number)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		cdb.Asserts(), func(a *model.AssertCoverage) []any {
			return []any{id, a.AssertName, a.Severity, boolToInt(a.IsCovered), a.HitCount, a.InstancePath, a.FileLocation, a.LineNumber}
		}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// insertAll runs one prepared insert per record.
func insertAll[T any](ctx context.Context, tx *sql.Tx, table, query string, records []T, args func(T) []any) error {
	if len(records) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare %s: %w", table, err)
	}
	defer stmt.Close()
	for _, record := range records {
		if _, err := stmt.ExecContext(ctx, args(record)...); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

// Load rebuilds the database saved as run id.
func (s *SQLiteStore) Load(ctx context.Context, id uuid.UUID) (*model.CoverageDatabase, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	key := id.String()
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, key).Scan(&n); err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	} else if n == 0 {
		return nil, fmt.Errorf("%s: %w", key, ErrRunNotFound)
	}

	cdb := model.NewCoverageDatabase()
	cdb.SetID(id)

	var d model.DashboardData
	var assertValid, groupValid int
	err = tx.QueryRowContext(ctx, `
		SELECT date, user_name, version, command_line, total_score,
		       assert_score, assert_covered, assert_expected, assert_valid,
		       group_score, group_covered, group_expected, group_valid, num_instances
		FROM dashboards WHERE run_id = ?`, key).Scan(
		&d.Date, &d.User, &d.Version, &d.CommandLine, &d.TotalScore,
		&d.AssertCoverage.Score, &d.AssertCoverage.Covered, &d.AssertCoverage.Expected, &assertValid,
		&d.GroupCoverage.Score, &d.GroupCoverage.Covered, &d.GroupCoverage.Expected, &groupValid,
		&d.NumHierarchicalInstances)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("query dashboard: %w", err)
	default:
		d.AssertCoverage.IsValid, d.GroupCoverage.IsValid = assertValid != 0, groupValid != 0
		cdb.SetDashboard(&d)
	}

	if err := queryAll(ctx, tx, "coverage_groups", `
		SELECT name, covered, expected, score, is_valid, instances, weight, goal,
		       at_least, per_instance, auto_bin_max, print_missing, comment
		FROM coverage_groups WHERE run_id = ?`, key, func(rows *sql.Rows) error {
		var g model.CoverageGroup
		var valid int
		if err := rows.Scan(&g.Name, &g.Coverage.Covered, &g.Coverage.Expected, &g.Coverage.Score, &valid,
			&g.Instances, &g.Weight, &g.Goal, &g.AtLeast, &g.PerInstance, &g.AutoBinMax, &g.PrintMissing, &g.Comment); err != nil {
			return err
		}
		g.Coverage.IsValid = valid != 0
		cdb.AddGroup(&g)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := queryAll(ctx, tx, "hierarchy_instances", `
		SELECT instance_path, total_score, assert_score, assert_covered, assert_expected, assert_valid
		FROM hierarchy_instances WHERE run_id = ?`, key, func(rows *sql.Rows) error {
		var path string
		var score float64
		var m model.CoverageMetric
		var valid int
		if err := rows.Scan(&path, &score, &m.Score, &m.Covered, &m.Expected, &valid); err != nil {
			return err
		}
		m.IsValid = valid != 0
		cdb.AddHierarchy(model.NewHierarchyInstance(path, score, m))
		return nil
	}); err != nil {
		return nil, err
	}

	if err := queryAll(ctx, tx, "modules", `
		SELECT module_name, total_score, assert_score, assert_covered, assert_expected, assert_valid
		FROM modules WHERE run_id = ?`, key, func(rows *sql.Rows) error {
		var md model.ModuleDefinition
		var valid int
		if err := rows.Scan(&md.ModuleName, &md.TotalScore, &md.AssertCoverage.Score, &md.AssertCoverage.Covered, &md.AssertCoverage.Expected, &valid); err != nil {
			return err
		}
		md.AssertCoverage.IsValid = valid != 0
		cdb.AddModule(&md)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := queryAll(ctx, tx, "asserts", `
		SELECT assert_name, severity, is_covered, hit_count, instance_path, file_location, line_number
		FROM asserts WHERE run_id = ?`, key, func(rows *sql.Rows) error {
		var a model.AssertCoverage
		var covered int
		if err := rows.Scan(&a.AssertName, &a.Severity, &covered, &a.HitCount, &a.InstancePath, &a.FileLocation, &a.LineNumber); err != nil {
			return err
		}
		a.IsCovered = covered != 0
		cdb.AddAssert(&a)
		return nil
	}); err != nil {
		return nil, err
	}

	return cdb, nil
}

func queryAll(ctx context.Context, tx *sql.Tx, table, query string, key string, scan func(*sql.Rows) error) error {
	rows, err := tx.QueryContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
	}
	return rows.Err()
}

// Runs returns every saved run, newest first.
func (s *SQLiteStore) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, created_at, last_modified, overall_score
		FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var id, createdAt, lastModified string
		if err := rows.Scan(&id, &r.Label, &createdAt, &lastModified, &r.OverallScore); err != nil {
			return nil, err
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("run %q: %w", id, err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		r.LastModified, _ = time.Parse(time.RFC3339Nano, lastModified)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and all of its records.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	return nil
}
