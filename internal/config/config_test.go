package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("Q3 bank rec")
	cfg.Compare.IgnoreColumns = []string{"memo", "posted at"}
	cfg.Compare.StrictDoubleEntry = true
	fill := "n/a"
	cfg.Normalize.FillNA = &fill
	cfg.Normalize.DateFormat = "%d/%m/%Y"

	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Project.Name, got.Project.Name)
	assert.Equal(t, cfg.Columns, got.Columns)
	assert.Equal(t, "%d/%m/%Y", got.Normalize.DateFormat)
	require.NotNil(t, got.Normalize.FillNA)
	assert.Equal(t, "n/a", *got.Normalize.FillNA)
	assert.Equal(t, []string{"memo", "posted at"}, got.Compare.IgnoreColumns)
	assert.True(t, got.Compare.StrictDoubleEntry)
	assert.Equal(t, cfg.Log, got.Log)
	assert.Equal(t, cfg.RunLog, got.RunLog)
}

func TestDefaults(t *testing.T) {
	cfg := Default("My Company")

	assert.Equal(t, "My Company", cfg.Project.Name)
	assert.Equal(t, []string{"Txn RefNo", "Debit", "Credit"}, cfg.Columns.Required)
	assert.Equal(t, "txn refno", cfg.Columns.Join)
	assert.Equal(t, "debit", cfg.Columns.Debit)
	assert.Equal(t, "credit", cfg.Columns.Credit)
	assert.True(t, cfg.Normalize.IgnoreCase)
	assert.True(t, cfg.Normalize.StripWhitespace)
	assert.Nil(t, cfg.Normalize.FillNA)
	assert.False(t, cfg.Compare.StrictDoubleEntry)
	assert.Empty(t, cfg.Compare.IgnoreColumns)
	assert.True(t, cfg.RunLog.Enabled)
	assert.Equal(t, "logs", cfg.RunLog.Dir)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("compare:\n  ignore_columns: [memo]\nlog:\n  level: debug\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"memo"}, cfg.Compare.IgnoreColumns)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "auto", cfg.Log.Format)
	assert.Equal(t, "txn refno", cfg.Columns.Join)
	assert.True(t, cfg.Normalize.IgnoreCase)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("columns: [not, a, map]\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestYAMLFormat(t *testing.T) {
	cfg := Default("Test Biz")
	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: Test Biz")
	assert.Contains(t, contents, "join: txn refno")
	assert.Contains(t, contents, "ignore_case: true")
	assert.Contains(t, contents, "strict_double_entry: false")
	assert.NotContains(t, contents, "fill_na")
}

func TestParseIgnoreColumns(t *testing.T) {
	assert.Equal(t, []string{"memo", "posted at"}, ParseIgnoreColumns(" memo , posted at,, "))
	assert.Empty(t, ParseIgnoreColumns(""))
	assert.Empty(t, ParseIgnoreColumns(" , "))
}
