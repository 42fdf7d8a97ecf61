// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/award-matcher/pkg/types"
)

func restoreGlobal(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })
}

func TestFileName(t *testing.T) {
	ts := time.Date(2026, 3, 9, 14, 5, 7, 0, time.UTC)
	assert.Equal(t, "matching_20260309_140507.log", FileName(ts))
}

func TestSetup_WritesRunLogFile(t *testing.T) {
	restoreGlobal(t)
	dir := filepath.Join(t.TempDir(), "logs")
	ts := time.Date(2026, 3, 9, 14, 5, 7, 0, time.UTC)

	logger, file, err := Setup(types.LogConfig{Level: "warn", Format: "json", Dir: dir}, Options{Now: func() time.Time { return ts }})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "matching_20260309_140507.log"), file)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	zap.L().Warn("record skipped", zap.String("award_id", "A1"))
	_ = logger.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"award_id":"A1"`)
}

func TestSetup_Verbose(t *testing.T) {
	restoreGlobal(t)
	logger, file, err := Setup(types.LogConfig{Level: "error"}, Options{Verbose: true})
	require.NoError(t, err)
	assert.Empty(t, file)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestSetup_BadLevel(t *testing.T) {
	_, _, err := Setup(types.LogConfig{Level: "chatty"}, Options{})
	assert.Error(t, err)
}
