package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WritesDiagnosticFile(t *testing.T) {
	dir := t.TempDir()

	logger, closeFn, err := New(Options{Dir: dir})
	require.NoError(t, err)

	logger.Warn("missing gerrit settings", zap.Strings("missing", []string{"gerrit.auth.url"}))
	require.NoError(t, closeFn())

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "missing gerrit settings", record["msg"])
	assert.Equal(t, "warn", record["level"])
}

func TestNew_AppendsAcrossRuns(t *testing.T) {
	dir := t.TempDir()

	for i := 0; i < 2; i++ {
		logger, closeFn, err := New(Options{Dir: dir})
		require.NoError(t, err)
		logger.Info("run")
		require.NoError(t, closeFn())
	}

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), `"msg":"run"`))
}

func TestNew_ConsoleLevel(t *testing.T) {
	var quiet, verbose bytes.Buffer

	l1, c1, err := New(Options{Console: &quiet})
	require.NoError(t, err)
	l1.Debug("hidden")
	l1.Warn("shown")
	require.NoError(t, c1())

	l2, c2, err := New(Options{Console: &verbose, Verbose: true})
	require.NoError(t, err)
	l2.Debug("debug line")
	require.NoError(t, c2())

	assert.NotContains(t, quiet.String(), "hidden")
	assert.Contains(t, quiet.String(), "shown")
	assert.Contains(t, verbose.String(), "debug line")
}

func TestNew_NoOutputs(t *testing.T) {
	logger, closeFn, err := New(Options{})
	require.NoError(t, err)

	logger.Info("dropped")
	assert.NoError(t, closeFn())
}
