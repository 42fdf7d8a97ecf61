// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func loadTable(t *testing.T, name, content string) *Table {
	t.Helper()
	tbl, err := LoadTable(context.Background(), writeFile(t, name, content))
	require.NoError(t, err)
	return tbl
}

// Benchmark rows: A1 correct, A2 wrong id, A3 missed, A4 true negative,
// A5 false positive, A6 only in benchmark, results has A7 only.
const benchCSV = `award_id,title,openalex_work_id
A1,Paper one,https://openalex.org/W1
A2,Paper two,W2
A3,Paper three,W3
A4,Paper four,
A5,Paper five,
A6,Paper six,W6
`

const resultsCSV = `award_id,title,openalex_work_id,match_status
A1,Paper one,W1,matched
A2,Paper two,W20,matched
A3,Paper three,,no_match
A4,Paper four,,no_match
A5,Paper five,https://openalex.org/W5,matched
A7,Paper seven,W7,matched
`

func TestLoadTable(t *testing.T) {
	tbl := loadTable(t, "results.csv", resultsCSV)
	assert.Len(t, tbl.Rows, 6)
	assert.Equal(t, []string{"award_id", "match_status", "openalex_work_id", "title"}, tbl.Columns)
	assert.True(t, tbl.Has("match_status"))
}

func TestLoadTable_Missing(t *testing.T) {
	_, err := LoadTable(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestDetectColumns(t *testing.T) {
	tests := []struct {
		name    string
		bench   string
		results string
		opts    Options
		want    Columns
		wantErr string
	}{
		{
			name:    "known candidates",
			bench:   "award_id,title,openalex_work_id\n1,a,W1\n",
			results: "award_id,title,openalex_work_id\n1,a,W1\n",
			want:    Columns{ID: "award_id", Title: "title", OpenAlex: "openalex_work_id"},
		},
		{
			name:    "candidate order",
			bench:   "id,project_id,paper_title,product_title,openalex_work_id\n1,1,a,a,W1\n",
			results: "id,project_id,paper_title,product_title,openalex_work_id\n1,1,a,a,W1\n",
			want:    Columns{ID: "project_id", Title: "product_title", OpenAlex: "openalex_work_id"},
		},
		{
			name:    "substring fallback",
			bench:   "nsf_award_ID,work_title,openalex_work_id\n1,a,W1\n",
			results: "nsf_award_ID,work_title,openalex_work_id\n1,a,W1\n",
			want:    Columns{ID: "nsf_award_ID", Title: "work_title", OpenAlex: "openalex_work_id"},
		},
		{
			name:    "explicit columns",
			bench:   "key,name,oa\n1,a,W1\n",
			results: "key,name,oa\n1,a,W1\n",
			opts:    Options{IDColumn: "key", TitleColumn: "name", OpenAlexColumn: "oa"},
			want:    Columns{ID: "key", Title: "name", OpenAlex: "oa"},
		},
		{
			name:    "no title column",
			bench:   "award_id,openalex_work_id\n1,W1\n",
			results: "award_id,openalex_work_id\n1,W1\n",
			wantErr: "title column",
		},
		{
			name:    "openalex column missing from results",
			bench:   "award_id,title,openalex_work_id\n1,a,W1\n",
			results: "award_id,title\n1,a\n",
			wantErr: `OpenAlex column "openalex_work_id" not found in results file`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := loadTable(t, "bench.csv", tt.bench)
			r := loadTable(t, "results.csv", tt.results)
			got, err := DetectColumns(b, r, tt.opts)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfusionMatrix(t *testing.T) {
	b := loadTable(t, "bench.csv", benchCSV)
	r := loadTable(t, "results.csv", resultsCSV)
	cols := Columns{ID: "award_id", Title: "title", OpenAlex: "openalex_work_id"}

	full := ConfusionMatrix(b, r, cols, ModeFull)
	assert.Equal(t, Confusion{TP: 1, FP: 3, FN: 2, TN: 1, Total: 7}, full)

	overlap := ConfusionMatrix(b, r, cols, ModeOverlap)
	assert.Equal(t, Confusion{TP: 1, FP: 2, FN: 1, TN: 1, Total: 5, OverlapCount: 5}, overlap)
}

func TestConfusionMatrix_DuplicateKeysMultiply(t *testing.T) {
	b := loadTable(t, "bench.csv", "award_id,title,openalex_work_id\nA1,T,W1\n")
	r := loadTable(t, "results.csv", "award_id,title,openalex_work_id\nA1,T,W1\nA1,T,W2\n")
	cols := Columns{ID: "award_id", Title: "title", OpenAlex: "openalex_work_id"}
	c := ConfusionMatrix(b, r, cols, ModeFull)
	assert.Equal(t, 2, c.Total)
	assert.Equal(t, 1, c.TP)
	assert.Equal(t, 1, c.FP)
}

func TestComputeMetrics(t *testing.T) {
	m := ComputeMetrics(Confusion{TP: 8, FP: 2, FN: 4, TN: 6, Total: 20})
	assert.InDelta(t, 0.8, m.Precision, 1e-9)
	assert.InDelta(t, 8.0/12, m.Recall, 1e-9)
	assert.InDelta(t, 0.7, m.Accuracy, 1e-9)
	assert.InDelta(t, 2*0.8*(8.0/12)/(0.8+8.0/12), m.F1, 1e-9)
	assert.Greater(t, m.F05, m.F1, "precision above recall favours F0.5")
	assert.Less(t, m.F15, m.F1)

	zero := ComputeMetrics(Confusion{})
	assert.Equal(t, Metrics{}, zero)
}

func TestFBeta(t *testing.T) {
	assert.Zero(t, FBeta(0, 0, 1))
	assert.InDelta(t, 1.0, FBeta(1, 1, 0.5), 1e-9)
	assert.InDelta(t, 0.5, FBeta(0.5, 0.5, 1.5), 1e-9)
}

func TestAnalyzeErrors(t *testing.T) {
	b := loadTable(t, "bench.csv", benchCSV)
	r := loadTable(t, "results.csv", resultsCSV)
	cols := Columns{ID: "award_id", Title: "title", OpenAlex: "openalex_work_id"}

	errs := AnalyzeErrors(b, r, cols, 0)
	require.Len(t, errs, 3)
	assert.Equal(t, ErrorExample{ID: "A2", Title: "Paper two", Type: FalsePositive, BenchmarkID: "W2", ResultsID: "W20"}, errs[0])
	assert.Equal(t, ErrorExample{ID: "A3", Title: "Paper three", Type: FalseNegative, BenchmarkID: "W3", ResultsID: "None"}, errs[1])
	assert.Equal(t, ErrorExample{ID: "A5", Title: "Paper five", Type: FalsePositive, BenchmarkID: "None", ResultsID: "W5"}, errs[2])

	assert.Len(t, AnalyzeErrors(b, r, cols, 2), 2)
}

func TestEvaluate(t *testing.T) {
	b := loadTable(t, "bench.csv", benchCSV)
	r := loadTable(t, "results.csv", resultsCSV)

	rep, err := Evaluate(b, r, Options{Mode: ModeOverlap})
	require.NoError(t, err)
	assert.Equal(t, ModeOverlap, rep.Mode)
	assert.Equal(t, "award_id", rep.Columns.ID)
	assert.Equal(t, 5, rep.Confusion.OverlapCount)
	assert.InDelta(t, 1.0/3, rep.Metrics.Precision, 1e-9)
	assert.Equal(t, map[string]int{FalsePositive: 2, FalseNegative: 1}, rep.ErrorSummary())

	var buf bytes.Buffer
	rep.Print(&buf)
	out := buf.String()
	assert.Contains(t, out, "MATCHING EVALUATION REPORT")
	assert.Contains(t, out, "Mode: OVERLAP")
	assert.Contains(t, out, "Evaluating 5 products in overlap")
	assert.Contains(t, out, "True Positives (TP):       1")
	assert.Contains(t, out, "Precision:  0.3333")

	_, err = Evaluate(b, r, Options{Mode: "partial"})
	require.Error(t, err)
}

func TestReport_Save(t *testing.T) {
	b := loadTable(t, "bench.csv", benchCSV)
	r := loadTable(t, "results.csv", resultsCSV)
	rep, err := Evaluate(b, r, Options{})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.json")
	errPath, err := rep.Save(path)
	require.NoError(t, err)
	assert.Equal(t, ErrorsPath(path), errPath)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "full", got["configuration"].(map[string]any)["mode"])
	assert.EqualValues(t, 7, got["confusion_matrix"].(map[string]any)["total"])
	assert.Contains(t, got["metrics"], "f0.5")
	assert.EqualValues(t, 2, got["error_summary"].(map[string]any)[FalsePositive])

	f, err := os.Open(errPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"award_id", "title", "error_type", "benchmark_id", "results_id"}, rows[0])
	assert.Equal(t, []string{"A2", "Paper two", FalsePositive, "W2", "W20"}, rows[1])
}

func TestReport_SaveWithoutErrors(t *testing.T) {
	b := loadTable(t, "bench.csv", "award_id,title,openalex_work_id\nA1,T,W1\n")
	r := loadTable(t, "results.csv", "award_id,title,openalex_work_id\nA1,T,W1\n")
	rep, err := Evaluate(b, r, Options{})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.json")
	errPath, err := rep.Save(path)
	require.NoError(t, err)
	assert.Empty(t, errPath)
	assert.NoFileExists(t, ErrorsPath(path))
}

func TestErrorsPath(t *testing.T) {
	assert.Equal(t, "out/report_errors.csv", ErrorsPath("out/report.json"))
	assert.Equal(t, "report_errors.csv", ErrorsPath("report"))
}
