// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures of the award matcher:
// configuration, input and enriched records, OpenAlex works and match
// candidates.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// MatchStatus is the outcome recorded on every enriched record.
type MatchStatus string

const (
	StatusMatched        MatchStatus = "matched"
	StatusNoMatch        MatchStatus = "no_match"
	StatusFailed         MatchStatus = "failed"
	StatusError          MatchStatus = "error"
	StatusInvalidRequest MatchStatus = "invalid_request"
)

// Canonical input field names produced by the field mappings.
const (
	FieldID          = "id"
	FieldTitle       = "title"
	FieldAuthors     = "authors"
	FieldYear        = "year"
	FieldAffiliation = "affiliation"
	FieldAwardID     = "award_id"
	FieldFunder      = "funder"
)

// Fields written by the matcher.
const (
	FieldMatchStatus    = "match_status"
	FieldError          = "error"
	FieldMetadataSource = "metadata_source"
	FieldMatchRatio     = "match_ratio"
)

// Record is a flat mapping from field name to value. Input records carry
// the mapped source fields; enriched records add match results and work
// metadata.
type Record map[string]any

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge copies every field of other into r, overwriting.
func (r Record) Merge(other Record) {
	for k, v := range other {
		r[k] = v
	}
}

// String returns the field as trimmed text. Missing and nil values are "".
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []string:
		return strings.Join(t, "; ")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Year returns the field parsed as a year, or 0 when absent or malformed.
// Float-formatted years ("2019.0") are accepted.
func (r Record) Year(key string) int {
	s := r.String(key)
	if s == "" {
		return 0
	}
	if y, err := strconv.Atoi(s); err == nil {
		return y
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// Status returns the recorded match status.
func (r Record) Status() MatchStatus {
	return MatchStatus(r.String(FieldMatchStatus))
}
