// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package recordio reads input records from CSV, JSON and XLSX files and
// writes enriched records as CSV or JSON.
package recordio

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/pdiddy/award-matcher/pkg/types"
)

// ErrFileNotFound is returned when the input file does not exist.
var ErrFileNotFound = eris.New("input file not found")

// Input formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// Reader yields input records one at a time. Each call to Records starts
// again from the beginning of the file.
type Reader interface {
	Records(ctx context.Context) iter.Seq2[types.Record, error]
}

// NewReader returns the reader for cfg.Format.
func NewReader(cfg types.InputConfig) (Reader, error) {
	if _, err := os.Stat(cfg.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, eris.Wrapf(ErrFileNotFound, "%s", cfg.Path)
		}
		return nil, eris.Wrapf(err, "checking input %s", cfg.Path)
	}
	mapper := NewMapper(cfg.Mappings)
	switch strings.ToLower(cfg.Format) {
	case FormatCSV, "":
		return &CSVReader{path: cfg.Path, mapper: mapper}, nil
	case FormatJSON:
		return &JSONReader{path: cfg.Path, recordsPath: cfg.RecordsPath, mapper: mapper}, nil
	case FormatXLSX:
		return &XLSXReader{path: cfg.Path, sheet: cfg.Sheet, mapper: mapper}, nil
	default:
		return nil, eris.Errorf("unsupported input format %q", cfg.Format)
	}
}

// CSVReader reads a CSV file whose first row is the header.
type CSVReader struct {
	path   string
	mapper *Mapper
}

// Records implements Reader.
func (r *CSVReader) Records(ctx context.Context) iter.Seq2[types.Record, error] {
	return func(yield func(types.Record, error) bool) {
		f, err := os.Open(r.path)
		if err != nil {
			yield(nil, eris.Wrapf(err, "opening %s", r.path))
			return
		}
		defer f.Close()

		cr := csv.NewReader(f)
		cr.FieldsPerRecord = -1
		header, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			yield(nil, eris.Wrap(err, "csv: read header"))
			return
		}
		if len(header) > 0 {
			header[0] = strings.TrimPrefix(header[0], "\ufeff")
		}

		for {
			if ctx.Err() != nil {
				yield(nil, eris.Wrap(ctx.Err(), "csv: context cancelled"))
				return
			}
			row, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, eris.Wrap(err, "csv: read row"))
				return
			}
			if !yield(r.mapper.MapRow(header, row), nil) {
				return
			}
		}
	}
}

// JSONReader reads a JSON document holding an array of records, found at
// a dotted path inside the document. A single object is one record.
type JSONReader struct {
	path        string
	recordsPath string
	mapper      *Mapper
}

// Records implements Reader.
func (r *JSONReader) Records(ctx context.Context) iter.Seq2[types.Record, error] {
	return func(yield func(types.Record, error) bool) {
		f, err := os.Open(r.path)
		if err != nil {
			yield(nil, eris.Wrapf(err, "opening %s", r.path))
			return
		}
		doc, err := Decode(f)
		f.Close()
		if err != nil {
			yield(nil, eris.Wrapf(err, "reading %s", r.path))
			return
		}

		root := doc.Get(r.recordsPath)
		var items []Value
		switch root.Kind() {
		case KindArray:
			items = root.Items()
		case KindObject:
			items = []Value{root}
		default:
			zap.L().Warn("no records found", zap.String("path", r.recordsPath), zap.String("kind", root.Kind().String()))
			return
		}

		for _, item := range items {
			for _, v := range r.mapper.Expand(item) {
				if ctx.Err() != nil {
					yield(nil, eris.Wrap(ctx.Err(), "json: context cancelled"))
					return
				}
				if !yield(r.mapper.Map(v), nil) {
					return
				}
			}
		}
	}
}

// XLSXReader reads one worksheet whose first row is the header.
type XLSXReader struct {
	path   string
	sheet  string
	mapper *Mapper
}

// Records implements Reader.
func (r *XLSXReader) Records(ctx context.Context) iter.Seq2[types.Record, error] {
	return func(yield func(types.Record, error) bool) {
		f, err := xlsx.OpenFile(r.path)
		if err != nil {
			yield(nil, eris.Wrap(err, "xlsx: open file"))
			return
		}
		sheet, err := getSheet(f, r.sheet)
		if err != nil {
			yield(nil, err)
			return
		}

		var header []string
		for i, row := range sheet.Rows {
			if ctx.Err() != nil {
				yield(nil, eris.Wrap(ctx.Err(), "xlsx: context cancelled"))
				return
			}
			cells := rowToStrings(row)
			if i == 0 {
				header = cells
				continue
			}
			if blank(cells) {
				continue
			}
			if !yield(r.mapper.MapRow(header, cells), nil) {
				return
			}
		}
	}
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("xlsx: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
