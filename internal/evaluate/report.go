// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evaluate

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/award-matcher/internal/recordio"
	"github.com/pdiddy/award-matcher/pkg/types"
)

// Print writes the evaluation report.
func (r *Report) Print(w io.Writer) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\nMATCHING EVALUATION REPORT\n%s\n", rule, rule)
	fmt.Fprintf(w, "\nMode: %s\n", strings.ToUpper(string(r.Mode)))
	fmt.Fprintf(w, "Benchmark: %s\n", r.BenchmarkFile)
	fmt.Fprintf(w, "Results:   %s\n", r.ResultsFile)
	fmt.Fprintf(w, "Columns:   id=%s title=%s openalex=%s\n", r.Columns.ID, r.Columns.Title, r.Columns.OpenAlex)
	if r.Mode == ModeOverlap {
		fmt.Fprintf(w, "\nEvaluating %d products in overlap\n", r.Confusion.OverlapCount)
	}

	c, m := r.Confusion, r.Metrics
	fmt.Fprintf(w, "\n1. CONFUSION MATRIX:\n")
	fmt.Fprintf(w, "   True Positives (TP):  %6d\n", c.TP)
	fmt.Fprintf(w, "   False Positives (FP): %6d\n", c.FP)
	fmt.Fprintf(w, "   False Negatives (FN): %6d\n", c.FN)
	fmt.Fprintf(w, "   True Negatives (TN):  %6d\n", c.TN)
	fmt.Fprintf(w, "   Total Products:       %6d\n", c.Total)

	fmt.Fprintf(w, "\n2. EVALUATION METRICS:\n")
	fmt.Fprintf(w, "   Precision:  %.4f  (%% of predicted matches that are correct)\n", m.Precision)
	fmt.Fprintf(w, "   Recall:     %.4f  (%% of actual matches that were found)\n", m.Recall)
	fmt.Fprintf(w, "   Accuracy:   %.4f  (%% of all predictions that are correct)\n", m.Accuracy)

	fmt.Fprintf(w, "\n3. F-SCORES:\n")
	fmt.Fprintf(w, "   F0.5 Score (Precision-weighted): %.4f\n", m.F05)
	fmt.Fprintf(w, "   F1.0 Score (Balanced):          %.4f\n", m.F1)
	fmt.Fprintf(w, "   F1.5 Score (Recall-weighted):   %.4f\n", m.F15)

	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "\n4. ERROR EXAMPLES (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(w, "   [%s] %s %q benchmark=%s results=%s\n", e.Type, e.ID, e.Title, e.BenchmarkID, e.ResultsID)
		}
	}
	fmt.Fprintf(w, "\n%s\n", rule)
}

type jsonReport struct {
	Configuration struct {
		BenchmarkFile string  `json:"benchmark_file"`
		ResultsFile   string  `json:"results_file"`
		Mode          Mode    `json:"mode"`
		Columns       Columns `json:"columns"`
	} `json:"configuration"`
	Confusion    Confusion      `json:"confusion_matrix"`
	Metrics      Metrics        `json:"metrics"`
	ErrorSummary map[string]int `json:"error_summary"`
}

// ErrorsPath is the error CSV written next to a JSON report at path.
func ErrorsPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "_errors.csv"
}

// Save writes the JSON report to path and, when there are error
// examples, the error CSV at ErrorsPath(path). It returns the error CSV
// path, or "" when none was written.
func (r *Report) Save(path string) (string, error) {
	var out jsonReport
	out.Configuration.BenchmarkFile = r.BenchmarkFile
	out.Configuration.ResultsFile = r.ResultsFile
	out.Configuration.Mode = r.Mode
	out.Configuration.Columns = r.Columns
	out.Confusion = r.Confusion
	out.Metrics = r.Metrics
	out.ErrorSummary = r.ErrorSummary()

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "marshaling report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "writing %s", path)
	}
	if len(r.Errors) == 0 {
		return "", nil
	}

	errPath := ErrorsPath(path)
	fields := []string{r.Columns.ID, r.Columns.Title, "error_type", "benchmark_id", "results_id"}
	w, err := recordio.NewWriter(types.OutputConfig{Path: errPath, Format: recordio.FormatCSV}, fields)
	if err != nil {
		return "", err
	}
	for _, e := range r.Errors {
		rec := types.Record{
			r.Columns.ID:    e.ID,
			r.Columns.Title: e.Title,
			"error_type":    e.Type,
			"benchmark_id":  e.BenchmarkID,
			"results_id":    e.ResultsID,
		}
		if err := w.Write(rec); err != nil {
			w.Close()
			return "", err
		}
	}
	return errPath, w.Close()
}
