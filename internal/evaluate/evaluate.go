// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evaluate scores a results file against a benchmark of known
// award-to-work matches.
package evaluate

import (
	"context"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/award-matcher/internal/identifier"
	"github.com/pdiddy/award-matcher/internal/recordio"
	"github.com/pdiddy/award-matcher/pkg/types"
)

// Mode selects which products are evaluated.
type Mode string

const (
	// ModeFull evaluates every product in either file.
	ModeFull Mode = "full"
	// ModeOverlap evaluates only products present in both files.
	ModeOverlap Mode = "overlap"
)

// Error example types.
const (
	FalseNegative = "False Negative"
	FalsePositive = "False Positive"
)

const (
	DefaultOpenAlexColumn = "openalex_work_id"
	DefaultMaxErrors      = 100

	keySeparator  = "|||"
	maxTitleChars = 100
)

var (
	idCandidates    = []string{"project_id", "award_id", "grant_id", "id"}
	titleCandidates = []string{"product_title", "title", "publication_title", "paper_title"}

	// missingValues are cell values read as absent.
	missingValues = map[string]bool{
		"": true, "nan": true, "NaN": true, "NA": true, "N/A": true, "n/a": true,
		"null": true, "NULL": true, "None": true, "<NA>": true, "#N/A": true,
	}
)

// Options configures an evaluation. Empty column names are detected.
type Options struct {
	IDColumn       string
	TitleColumn    string
	OpenAlexColumn string
	Mode           Mode
	MaxErrors      int
}

// Table is a loaded CSV file.
type Table struct {
	Path    string
	Columns []string
	Rows    []types.Record
}

// Has reports whether the table has column c.
func (t *Table) Has(c string) bool { return slices.Contains(t.Columns, c) }

// LoadTable reads every row of the CSV file at path.
func LoadTable(ctx context.Context, path string) (*Table, error) {
	r, err := recordio.NewReader(types.InputConfig{Path: path, Format: recordio.FormatCSV})
	if err != nil {
		return nil, err
	}
	t := &Table{Path: path}
	seen := map[string]bool{}
	for rec, err := range r.Records(ctx) {
		if err != nil {
			return nil, eris.Wrapf(err, "reading %s", path)
		}
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				t.Columns = append(t.Columns, k)
			}
		}
		t.Rows = append(t.Rows, rec)
	}
	slices.Sort(t.Columns)
	zap.L().Info("loaded table", zap.String("path", path), zap.Int("rows", len(t.Rows)))
	return t, nil
}

// Columns names the columns used to join and compare the two tables.
type Columns struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	OpenAlex string `json:"openalex"`
}

// DetectColumns resolves the id, title and OpenAlex columns. A column
// not given in opts is the first known candidate present in both tables,
// then the first shared column whose name contains "id" or "title".
func DetectColumns(bench, res *Table, opts Options) (Columns, error) {
	cols := Columns{ID: opts.IDColumn, Title: opts.TitleColumn, OpenAlex: opts.OpenAlexColumn}
	if cols.ID == "" {
		cols.ID = detect(bench, res, idCandidates, "id")
	}
	if cols.ID == "" {
		return cols, eris.New("could not detect the id column, set it explicitly")
	}
	if cols.Title == "" {
		cols.Title = detect(bench, res, titleCandidates, "title")
	}
	if cols.Title == "" {
		return cols, eris.New("could not detect the title column, set it explicitly")
	}
	if cols.OpenAlex == "" {
		cols.OpenAlex = DefaultOpenAlexColumn
	}

	for _, c := range []struct{ kind, name string }{{"id", cols.ID}, {"title", cols.Title}, {"OpenAlex", cols.OpenAlex}} {
		if !bench.Has(c.name) {
			return cols, eris.Errorf("%s column %q not found in benchmark file", c.kind, c.name)
		}
		if !res.Has(c.name) {
			return cols, eris.Errorf("%s column %q not found in results file", c.kind, c.name)
		}
	}
	return cols, nil
}

func detect(bench, res *Table, candidates []string, substr string) string {
	for _, c := range candidates {
		if bench.Has(c) && res.Has(c) {
			return c
		}
	}
	for _, c := range bench.Columns {
		if res.Has(c) && strings.Contains(strings.ToLower(c), substr) {
			return c
		}
	}
	return ""
}

// Confusion is the confusion matrix over evaluated products.
type Confusion struct {
	TP           int `json:"tp"`
	FP           int `json:"fp"`
	FN           int `json:"fn"`
	TN           int `json:"tn"`
	Total        int `json:"total"`
	OverlapCount int `json:"overlap_count,omitempty"`
}

// Metrics are derived from a Confusion.
type Metrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F05       float64 `json:"f0.5"`
	F1        float64 `json:"f1"`
	F15       float64 `json:"f1.5"`
	Accuracy  float64 `json:"accuracy"`
}

// ComputeMetrics returns precision, recall, accuracy and F-scores. A
// zero denominator gives zero.
func ComputeMetrics(c Confusion) Metrics {
	var m Metrics
	if c.TP+c.FP > 0 {
		m.Precision = float64(c.TP) / float64(c.TP+c.FP)
	}
	if c.TP+c.FN > 0 {
		m.Recall = float64(c.TP) / float64(c.TP+c.FN)
	}
	if c.Total > 0 {
		m.Accuracy = float64(c.TP+c.TN) / float64(c.Total)
	}
	m.F05 = FBeta(m.Precision, m.Recall, 0.5)
	m.F1 = FBeta(m.Precision, m.Recall, 1)
	m.F15 = FBeta(m.Precision, m.Recall, 1.5)
	return m
}

// FBeta is the weighted harmonic mean of precision and recall.
func FBeta(precision, recall, beta float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	b2 := beta * beta
	return (1 + b2) * precision * recall / (b2*precision + recall)
}

// ErrorExample is one misclassified product.
type ErrorExample struct {
	ID          string
	Title       string
	Type        string
	BenchmarkID string
	ResultsID   string
}

// Report is the outcome of an evaluation.
type Report struct {
	BenchmarkFile string
	ResultsFile   string
	Mode          Mode
	Columns       Columns
	Confusion     Confusion
	Metrics       Metrics
	Errors        []ErrorExample
}

// ErrorSummary counts error examples by type.
func (r *Report) ErrorSummary() map[string]int {
	out := map[string]int{}
	for _, e := range r.Errors {
		out[e.Type]++
	}
	return out
}

// pair joins a benchmark row and a results row with the same key. A nil
// side is absent from that file.
type pair struct {
	bench, res types.Record
}

func key(rec types.Record, cols Columns) string {
	return rec.String(cols.ID) + keySeparator + rec.String(cols.Title)
}

// join pairs rows by id and title. Overlap keeps only keys present in
// both tables; full also keeps unpaired rows from either side.
func join(bench, res *Table, cols Columns, overlap bool) []pair {
	byKey := map[string][]types.Record{}
	for _, r := range res.Rows {
		k := key(r, cols)
		byKey[k] = append(byKey[k], r)
	}
	benchKeys := map[string]bool{}
	var out []pair
	for _, b := range bench.Rows {
		k := key(b, cols)
		benchKeys[k] = true
		matches := byKey[k]
		if len(matches) == 0 && !overlap {
			out = append(out, pair{bench: b})
		}
		for _, r := range matches {
			out = append(out, pair{bench: b, res: r})
		}
	}
	if !overlap {
		for _, r := range res.Rows {
			if !benchKeys[key(r, cols)] {
				out = append(out, pair{res: r})
			}
		}
	}
	return out
}

// workID returns the normalized OpenAlex id in column c of rec, or ""
// when the cell is absent.
func workID(rec types.Record, c string) string {
	if rec == nil {
		return ""
	}
	v := strings.TrimSpace(rec.String(c))
	if missingValues[v] {
		return ""
	}
	if id, ok := identifier.NormalizeWorkID(v); ok {
		return id
	}
	return v
}

// classify returns the error type of p, or "" when p is correct.
func classify(p pair, c string) (string, bool) {
	b, r := workID(p.bench, c), workID(p.res, c)
	switch {
	case b != "" && r != "":
		if b == r {
			return "", true
		}
		return FalsePositive, false
	case b != "":
		return FalseNegative, false
	case r != "":
		return FalsePositive, false
	default:
		return "", false
	}
}

// ConfusionMatrix counts outcomes over the joined products.
func ConfusionMatrix(bench, res *Table, cols Columns, mode Mode) Confusion {
	pairs := join(bench, res, cols, mode == ModeOverlap)
	c := Confusion{Total: len(pairs)}
	if mode == ModeOverlap {
		c.OverlapCount = len(pairs)
	}
	for _, p := range pairs {
		switch kind, tp := classify(p, cols.OpenAlex); {
		case tp:
			c.TP++
		case kind == FalsePositive:
			c.FP++
		case kind == FalseNegative:
			c.FN++
		default:
			c.TN++
		}
	}
	return c
}

// AnalyzeErrors lists up to limit misclassified products present in both
// tables, in benchmark order.
func AnalyzeErrors(bench, res *Table, cols Columns, limit int) []ErrorExample {
	var out []ErrorExample
	for _, p := range join(bench, res, cols, true) {
		if limit > 0 && len(out) >= limit {
			break
		}
		kind, _ := classify(p, cols.OpenAlex)
		if kind == "" {
			continue
		}
		out = append(out, ErrorExample{
			ID:          p.bench.String(cols.ID),
			Title:       clip(p.bench.String(cols.Title), maxTitleChars),
			Type:        kind,
			BenchmarkID: orNone(workID(p.bench, cols.OpenAlex)),
			ResultsID:   orNone(workID(p.res, cols.OpenAlex)),
		})
	}
	return out
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Evaluate compares the results table against the benchmark.
func Evaluate(bench, res *Table, opts Options) (*Report, error) {
	if opts.Mode == "" {
		opts.Mode = ModeFull
	}
	if opts.Mode != ModeFull && opts.Mode != ModeOverlap {
		return nil, eris.Errorf("unknown evaluation mode %q", opts.Mode)
	}
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = DefaultMaxErrors
	}
	cols, err := DetectColumns(bench, res, opts)
	if err != nil {
		return nil, err
	}
	conf := ConfusionMatrix(bench, res, cols, opts.Mode)
	return &Report{
		BenchmarkFile: bench.Path,
		ResultsFile:   res.Path,
		Mode:          opts.Mode,
		Columns:       cols,
		Confusion:     conf,
		Metrics:       ComputeMetrics(conf),
		Errors:        AnalyzeErrors(bench, res, cols, opts.MaxErrors),
	}, nil
}
