package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/config"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "tally-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "tally")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/tally")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

// runTally runs the binary in dir, returning stdout and stderr separately.
func runTally(t *testing.T, dir string, env []string, args ...string) (string, string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr safeBuffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out, _, err := runTally(t, dir, nil, "init", dir, "--name", "Test Rec")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized tally project")

	for _, d := range []string{"logs", "reports"} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	_, _, err := runTally(t, dir, nil, "init", dir, "--name", "My Company")
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "My Company", cfg.Project.Name)
	assert.Equal(t, "txn refno", cfg.Columns.Join)
	assert.True(t, cfg.RunLog.Enabled)
}

func TestInit_Gitignore(t *testing.T) {
	dir := t.TempDir()
	_, _, err := runTally(t, dir, nil, "init", dir, "--name", "Test Rec")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "reports/")
}

func TestInit_RequiresName(t *testing.T) {
	dir := t.TempDir()
	_, _, err := runTally(t, dir, nil, "init", dir)
	require.Error(t, err, "init without --name should fail")
}

func TestInit_RefusesExisting(t *testing.T) {
	dir := t.TempDir()
	_, _, err := runTally(t, dir, nil, "init", dir, "--name", "Test Rec")
	require.NoError(t, err)

	_, stderr, err := runTally(t, dir, nil, "init", dir, "--name", "Again")
	require.Error(t, err)
	assert.Contains(t, stderr, "already exists")
}
