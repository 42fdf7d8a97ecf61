// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recordio

import (
	"sort"
	"strings"

	"github.com/pdiddy/award-matcher/pkg/types"
)

// Mapper turns a source record into a flat record keyed by canonical
// field names.
type Mapper struct {
	mappings map[string]string

	// expansions are the array paths whose elements each become their
	// own record, in a stable order.
	expansions []string
}

// NewMapper returns a Mapper for mappings of canonical field to source
// path. A path segment that is a number or "*" marks the array before it
// for expansion: "grants.0.award" turns one record with three grants into
// three records.
func NewMapper(mappings map[string]string) *Mapper {
	m := &Mapper{mappings: mappings}
	seen := map[string]bool{}
	for _, path := range mappings {
		parts := strings.Split(path, ".")
		for i := 0; i+1 < len(parts); i++ {
			if _, ok := arrayIndex(parts[i+1]); !ok {
				continue
			}
			p := strings.Join(parts[:i+1], ".")
			if !seen[p] {
				seen[p] = true
				m.expansions = append(m.expansions, p)
			}
		}
	}
	sort.Strings(m.expansions)
	return m
}

// Expand returns the records v stands for. The first expansion path that
// holds a non-empty array splits v into one record per element, each with
// the array replaced by a one-element array.
func (m *Mapper) Expand(v Value) []Value {
	for _, path := range m.expansions {
		items := v.Get(path).Items()
		if len(items) == 0 {
			continue
		}
		out := make([]Value, len(items))
		for i, item := range items {
			out[i] = v.With(path, Array(item))
		}
		return out
	}
	return []Value{v}
}

// Map flattens v through the mappings. Missing paths map to nil. The
// authors field is flattened to "Last, First; Last, First" when it holds
// author objects.
func (m *Mapper) Map(v Value) types.Record {
	rec := make(types.Record, len(m.mappings))
	for field, path := range m.mappings {
		x := v.Get(path)
		if field == types.FieldAuthors && !x.IsNull() {
			if s, ok := FlattenAuthors(x); ok {
				rec[field] = s
			} else {
				rec[field] = nil
			}
			continue
		}
		rec[field] = scalar(x)
	}
	return rec
}

// MapRow maps a tabular row given its header. Without mappings every
// column is kept under its own name.
func (m *Mapper) MapRow(header, row []string) types.Record {
	cols := make(map[string]string, len(header))
	for i, h := range header {
		if i < len(row) {
			cols[h] = row[i]
		}
	}
	if len(m.mappings) == 0 {
		rec := make(types.Record, len(cols))
		for k, v := range cols {
			rec[k] = v
		}
		return rec
	}
	rec := make(types.Record, len(m.mappings))
	for field, col := range m.mappings {
		if v, ok := cols[col]; ok {
			rec[field] = v
		} else {
			rec[field] = nil
		}
	}
	return rec
}

func scalar(v Value) any {
	switch v.Kind() {
	case KindNull:
		return nil
	case KindString, KindNumber:
		return v.Text()
	case KindBool:
		return v.b
	default:
		b, err := v.MarshalJSON()
		if err != nil {
			return nil
		}
		return string(b)
	}
}

// FlattenAuthors renders an authors value as a ";"-separated list. A
// string passes through; an array of strings or author objects (keys
// last_name, name or display_name, plus first_name or initials) becomes
// "Last, First; ...". ok is false when nothing usable is found.
func FlattenAuthors(v Value) (string, bool) {
	switch v.Kind() {
	case KindString:
		return v.Text(), true
	case KindArray:
		var out []string
		for _, item := range v.Items() {
			switch item.Kind() {
			case KindString:
				out = append(out, item.Text())
			case KindObject:
				if name := authorObjectName(item); name != "" {
					out = append(out, name)
				}
			}
		}
		if len(out) == 0 {
			return "", false
		}
		return strings.Join(out, "; "), true
	default:
		return "", false
	}
}

func authorObjectName(o Value) string {
	name := firstText(o, "last_name", "name", "display_name")
	if name == "" {
		return ""
	}
	if first := firstText(o, "first_name", "initials"); first != "" {
		return name + ", " + first
	}
	return name
}

func firstText(o Value, keys ...string) string {
	for _, k := range keys {
		if s := o.Field(k).Text(); s != "" {
			return s
		}
	}
	return ""
}
