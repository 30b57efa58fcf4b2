// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package reports_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mdhender/covrpt/model"
	"github.com/mdhender/covrpt/parsers"
	"github.com/mdhender/covrpt/reports"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	for name, want := range map[string]parsers.Kind{
		"dashboard.txt":       parsers.Dashboard,
		"run1_dashboard.txt":  parsers.Dashboard,
		"groups.txt":          parsers.Groups,
		"GROUPS.TXT":          parsers.Groups,
		"hierarchy.txt":       parsers.Hierarchy,
		"hier.txt":            parsers.Hierarchy,
		"modlist.txt":         parsers.ModuleList,
		"moduleList-2025.txt": parsers.ModuleList,
		"asserts.txt":         parsers.Assert,
		"nightly.assert.txt":  parsers.Assert,
	} {
		got, ok := reports.Detect(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	for _, name := range []string{"notes.txt", "groups.html", "mygroups.txt", "dashboard"} {
		_, ok := reports.Detect(name)
		assert.False(t, ok, name)
	}
}

func TestCollectInputs(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "urgReport"
	for _, name := range []string{"asserts.txt", "groups.txt", "dashboard.txt", "b_groups.txt", "readme.md", "hierarchy.txt"} {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, fs.MkdirAll(filepath.Join(dir, "groups.txt.d"), 0o755))

	inputs, err := reports.CollectInputs(fs, dir, nil)
	require.NoError(t, err)
	var names []string
	for _, input := range inputs {
		names = append(names, input.Name)
	}
	assert.Equal(t, []string{"dashboard.txt", "b_groups.txt", "groups.txt", "hierarchy.txt", "asserts.txt"}, names)
	assert.Equal(t, filepath.Join(dir, "dashboard.txt"), inputs[0].Path)

	_, err = reports.CollectInputs(fs, "missing", nil)
	assert.ErrorIs(t, err, model.ErrFileNotFound)
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"out/dashboard.txt": "Date: Mon Sep  8 14:06:30 2025\nUser: u\nVersion: v\nCommand line: urg\n 75.32   68.45 12584/18392   82.19 25847/31456\n",
		"out/groups.txt":    "45 50 90.00 2.00 3 95 2 1 128 32 tb.cpu.alu::arithmetic_ops\n",
		"out/modlist.txt":   " 95.67   95.67 287/300      cpu_core\n",
		"out/asserts.txt":   "FAIL 0 check_data_integrity tb.mem.ctrl mem_ctrl.sv:123\n",
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}

	db := model.NewCoverageDatabase()
	results, err := reports.Load(context.Background(), fs, "out", db, nil)
	require.NoError(t, err)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.NoError(t, r.Err, r.Input.Name)
		assert.Equal(t, 1, r.Stats.Records, r.Input.Name)
	}
	assert.True(t, db.Dashboard().IsValid())
	assert.Equal(t, 1, db.NumGroups())
	assert.Equal(t, 1, db.NumModules())
	assert.Equal(t, 1, db.NumAsserts())
	assert.NoError(t, db.Validate())
}
