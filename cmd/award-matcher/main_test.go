// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/award-matcher/internal/config"
	"github.com/pdiddy/award-matcher/internal/textnorm"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestDeriveTitleForms(t *testing.T) {
	f := deriveTitleForms(textnorm.New(textnorm.EnglishStopwords()), "9 July 2019, Results of the Survey")
	assert.Equal(t, "Results of the Survey", f.Stripped)
	assert.Equal(t, "2019-07-09", f.Date)
	assert.Equal(t, string(textnorm.FormatFullDate), f.DateFormat)
	assert.Equal(t, "results of the survey", f.Cleaned)
}

func TestTitleThreshold(t *testing.T) {
	assert.Equal(t, 85, titleThreshold(85))
	assert.Equal(t, 86, titleThreshold(85.5))
	assert.Equal(t, 0, titleThreshold(0))
}

func TestOpenSession_CacheOpenFails(t *testing.T) {
	cfg, err := config.Defaults()
	require.NoError(t, err)
	cfg.Log.Dir = ""
	cfg.Cache.Path = t.TempDir()

	s, err := openSession(rootCmd, cfg, false)
	require.Error(t, err)
	assert.Nil(t, s)
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, "version")
	assert.Equal(t, "award-matcher dev\n", out)
}

func TestNormalizeCommand_YAML(t *testing.T) {
	out := execute(t, "normalize", "--yaml", "9 July 2019, Results of the Survey")
	assert.Contains(t, out, "2019-07-09")
	assert.Contains(t, out, "date_format: full_date")
	assert.Contains(t, out, "stripped_title: Results of the Survey")
}

func TestEvaluateCommand(t *testing.T) {
	dir := t.TempDir()
	bench := filepath.Join(dir, "bench.csv")
	results := filepath.Join(dir, "results.csv")
	report := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(bench, []byte("award_id,title,openalex_work_id\nA1,T1,W1\nA2,T2,W2\n"), 0o644))
	require.NoError(t, os.WriteFile(results, []byte("award_id,title,openalex_work_id\nA1,T1,W1\nA2,T2,\n"), 0o644))

	out := execute(t, "evaluate", "-b", bench, "-r", results, "--output", report)
	assert.Contains(t, out, "Loaded benchmark: 2 rows")
	assert.Contains(t, out, "Recall:     0.5000")
	assert.Contains(t, out, "Error details saved to: "+filepath.Join(dir, "report_errors.csv"))
	assert.FileExists(t, report)
}
