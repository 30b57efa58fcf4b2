// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package config_test

import (
	"runtime"
	"testing"

	"github.com/mdhender/covrpt/config"
	"github.com/mdhender/covrpt/parsers"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(afero.NewMemMapFs(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(parsers.DefaultThreshold), cfg.Parse.ThresholdBytes)
	assert.Equal(t, runtime.NumCPU(), cfg.Parse.Workers)
	assert.Equal(t, 64*1024, cfg.Parse.PoolBlockSize)
	assert.True(t, cfg.Parse.StripCR)
	assert.False(t, cfg.Parse.AutoEOL)
	assert.Equal(t, "xml", cfg.Export.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Empty(t, cfg.Store.SQLitePath)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_FileAndEnv(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/covrpt.yaml", []byte(`
parse:
  workers: 3
  threshold_bytes: 2048
export:
  format: json
log:
  level: debug
store:
  sqlite_path: /var/lib/covrpt/runs.db
`), 0o644))
	t.Setenv("COVRPT_PARSE_WORKERS", "5")
	t.Setenv("COVRPT_METRICS_TEXTFILE", "/tmp/covrpt.prom")

	cfg, err := config.Load(fs, "/etc/covrpt.yaml")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Parse.Workers, "environment wins over the file")
	assert.Equal(t, int64(2048), cfg.Parse.ThresholdBytes)
	assert.Equal(t, "json", cfg.Export.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/var/lib/covrpt/runs.db", cfg.Store.SQLitePath)
	assert.Equal(t, "/tmp/covrpt.prom", cfg.Metrics.Textfile)
}

func TestLoad_Invalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("export:\n  format: pdf\n"), 0o644))
	_, err := config.Load(fs, "/bad.yaml")
	assert.ErrorContains(t, err, "config validation failed")

	t.Setenv("COVRPT_PARSE_WORKERS", "0")
	_, err = config.Load(fs, "")
	assert.Error(t, err)

	_, err = config.Load(fs, "/missing.yaml")
	assert.Error(t, err)
}

func TestParserOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Parse.Workers = 2
	p, err := parsers.NewAuto(parsers.Groups, cfg.ParserOptions()...)
	require.NoError(t, err)
	assert.Equal(t, parsers.Groups, p.Kind())

	cfg.Parse.Workers = 0
	_, err = parsers.NewAuto(parsers.Groups, cfg.ParserOptions()...)
	assert.Error(t, err)
}

func TestLogger(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Format = "json"
	log, err := cfg.Logger()
	require.NoError(t, err)
	assert.NotNil(t, log)

	cfg.Log.Level = "loud"
	_, err = cfg.Logger()
	assert.Error(t, err)
}
