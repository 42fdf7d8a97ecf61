// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recordio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/award-matcher/pkg/types"
)

// Writer consumes enriched records. Close must be called to finish the
// output.
type Writer interface {
	Write(rec types.Record) error
	Close() error
}

// NewWriter returns the writer for cfg.Format. fields fixes the leading
// CSV columns; JSON output ignores it.
func NewWriter(cfg types.OutputConfig, fields []string) (Writer, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "creating output directory %s", dir)
		}
	}
	switch strings.ToLower(cfg.Format) {
	case FormatCSV, "":
		f, err := os.Create(cfg.Path)
		if err != nil {
			return nil, eris.Wrapf(err, "creating %s", cfg.Path)
		}
		return &CSVWriter{f: f, w: csv.NewWriter(f), fields: fields}, nil
	case FormatJSON:
		return &JSONWriter{path: cfg.Path}, nil
	default:
		return nil, eris.Errorf("unsupported output format %q", cfg.Format)
	}
}

// CSVWriter writes rows as they arrive. The column set is fixed when the
// first record is written: the configured fields, then any other fields
// of that first record in sorted order.
type CSVWriter struct {
	f      *os.File
	w      *csv.Writer
	fields []string

	header bool
	known  map[string]bool
	warned map[string]bool
}

// Write implements Writer.
func (c *CSVWriter) Write(rec types.Record) error {
	if !c.header {
		c.fields = columns(c.fields, rec)
		c.known = make(map[string]bool, len(c.fields))
		for _, f := range c.fields {
			c.known[f] = true
		}
		c.warned = map[string]bool{}
		if err := c.w.Write(c.fields); err != nil {
			return eris.Wrap(err, "csv: write header")
		}
		c.header = true
	}

	for k := range rec {
		if !c.known[k] && !c.warned[k] {
			c.warned[k] = true
			zap.L().Debug("field not in csv columns, dropped", zap.String("field", k))
		}
	}

	row := make([]string, len(c.fields))
	for i, f := range c.fields {
		row[i] = FormatValue(rec[f])
	}
	if err := c.w.Write(row); err != nil {
		return eris.Wrap(err, "csv: write row")
	}
	c.w.Flush()
	return eris.Wrap(c.w.Error(), "csv: flush")
}

// Close implements Writer.
func (c *CSVWriter) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		c.f.Close()
		return eris.Wrap(err, "csv: flush")
	}
	return eris.Wrap(c.f.Close(), "csv: close")
}

func columns(fields []string, first types.Record) []string {
	out := append([]string(nil), fields...)
	seen := make(map[string]bool, len(out))
	for _, f := range out {
		seen[f] = true
	}
	var extra []string
	for k := range first {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// FormatValue renders a record value for a CSV cell. nil is "", string
// lists join with "; ".
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, "; ")
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		parts := make([]string, len(t))
		for i, x := range t {
			parts[i] = FormatValue(x)
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprint(t)
	}
}

// JSONWriter buffers records and writes them as one indented array on
// Close. nil values are written as "".
type JSONWriter struct {
	path    string
	records []types.Record
}

// Write implements Writer.
func (j *JSONWriter) Write(rec types.Record) error {
	clean := make(types.Record, len(rec))
	for k, v := range rec {
		if v == nil {
			v = ""
		}
		clean[k] = v
	}
	j.records = append(j.records, clean)
	return nil
}

// Close implements Writer.
func (j *JSONWriter) Close() error {
	f, err := os.Create(j.path)
	if err != nil {
		return eris.Wrapf(err, "creating %s", j.path)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	records := j.records
	if records == nil {
		records = []types.Record{}
	}
	if err := enc.Encode(records); err != nil {
		f.Close()
		return eris.Wrap(err, "json: encode records")
	}
	return eris.Wrap(f.Close(), "json: close")
}
