// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report accumulates run statistics and prints or exports the
// run summary.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/award-matcher/internal/apihealth"
	"github.com/pdiddy/award-matcher/pkg/types"
)

// APIStats is the tracker snapshot included in a summary.
type APIStats struct {
	Attempts     int     `yaml:"attempts" json:"attempts"`
	Failures     int     `yaml:"failures" json:"failures"`
	ClientErrors int     `yaml:"client_errors" json:"client_errors"`
	ServerErrors int     `yaml:"server_errors" json:"server_errors"`
	RateLimits   int     `yaml:"rate_limits" json:"rate_limits"`
	SuccessRate  float64 `yaml:"success_rate" json:"success_rate"`
	Total        int     `yaml:"total_attempts" json:"total_attempts"`
	Text         string  `yaml:"summary" json:"summary"`
}

// Summary describes one run. Counts are per input record; a record that
// fans out to several matched works counts once as matched.
type Summary struct {
	RunID      string             `yaml:"run_id" json:"run_id"`
	Mode       types.MatchingMode `yaml:"mode" json:"mode"`
	StartedAt  time.Time          `yaml:"started_at" json:"started_at"`
	FinishedAt time.Time          `yaml:"finished_at" json:"finished_at"`

	Processed      int `yaml:"processed" json:"processed"`
	OutputRecords  int `yaml:"output_records" json:"output_records"`
	Matched        int `yaml:"matched" json:"matched"`
	NoMatch        int `yaml:"no_match" json:"no_match"`
	Failed         int `yaml:"failed" json:"failed"`
	Errors         int `yaml:"errors" json:"errors"`
	InvalidRequest int `yaml:"invalid_request" json:"invalid_request"`

	MatchRate     float64 `yaml:"match_rate" json:"match_rate"`
	AvgMatchRatio float64 `yaml:"avg_match_ratio" json:"avg_match_ratio"`

	ElapsedSeconds   float64 `yaml:"elapsed_seconds" json:"elapsed_seconds"`
	SecondsPerRecord float64 `yaml:"seconds_per_record" json:"seconds_per_record"`

	Aborted     bool   `yaml:"aborted" json:"aborted"`
	AbortReason string `yaml:"abort_reason,omitempty" json:"abort_reason,omitempty"`
	DryRun      bool   `yaml:"dry_run" json:"dry_run"`
	OutputPath  string `yaml:"output_path,omitempty" json:"output_path,omitempty"`
	LogFile     string `yaml:"log_file,omitempty" json:"log_file,omitempty"`

	API *APIStats `yaml:"api,omitempty" json:"api,omitempty"`

	ratios []float64
}

// New starts a summary for a run beginning at start.
func New(mode types.MatchingMode, start time.Time) *Summary {
	return &Summary{RunID: uuid.NewString(), Mode: mode, StartedAt: start}
}

// Add counts the output records produced for one input record. A record
// is matched when any of its outputs matched; otherwise the first
// output's status counts.
func (s *Summary) Add(out []types.Record) {
	s.Processed++
	s.OutputRecords += len(out)
	if len(out) == 0 {
		s.NoMatch++
		return
	}

	status := out[0].Status()
	for _, r := range out {
		if r.Status() == types.StatusMatched {
			status = types.StatusMatched
			if ratio, ok := numeric(r[types.FieldMatchRatio]); ok {
				s.ratios = append(s.ratios, ratio)
			}
			break
		}
	}
	switch status {
	case types.StatusMatched:
		s.Matched++
	case types.StatusNoMatch:
		s.NoMatch++
	case types.StatusFailed:
		s.Failed++
	case types.StatusInvalidRequest:
		s.InvalidRequest++
	default:
		s.Errors++
	}
}

func numeric(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}

// Abort records that the run stopped early.
func (s *Summary) Abort(reason error) {
	s.Aborted = true
	if reason != nil {
		s.AbortReason = reason.Error()
	}
}

// Finish computes rates and timings and attaches the tracker snapshot
// when tracker is not nil.
func (s *Summary) Finish(end time.Time, tracker *apihealth.Tracker) {
	s.FinishedAt = end
	s.ElapsedSeconds = end.Sub(s.StartedAt).Seconds()
	if s.Processed > 0 {
		s.MatchRate = float64(s.Matched) / float64(s.Processed) * 100
		s.SecondsPerRecord = s.ElapsedSeconds / float64(s.Processed)
	}
	if len(s.ratios) > 0 {
		var sum float64
		for _, r := range s.ratios {
			sum += r
		}
		s.AvgMatchRatio = sum / float64(len(s.ratios))
	}
	if tracker != nil {
		st := tracker.Stats()
		s.API = &APIStats{
			Attempts:     st.Attempts,
			Failures:     st.Failures,
			ClientErrors: st.ClientErrors,
			ServerErrors: st.ServerErrors,
			RateLimits:   st.RateLimits,
			SuccessRate:  st.SuccessRate(),
			Total:        st.TotalAttempts,
			Text:         st.String(),
		}
	}
}

// Print writes the human-readable summary.
func (s *Summary) Print(w io.Writer) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\nPROCESSING SUMMARY\n%s\n", rule, rule)
	fmt.Fprintf(w, "Total records processed: %d\n", s.Processed)
	fmt.Fprintf(w, "Successfully matched: %d (%.1f%%)\n", s.Matched, s.MatchRate)
	fmt.Fprintf(w, "No match found: %d\n", s.NoMatch)
	if s.Failed > 0 {
		fmt.Fprintf(w, "Failed (missing input): %d\n", s.Failed)
	}
	if s.InvalidRequest > 0 {
		fmt.Fprintf(w, "Invalid requests: %d\n", s.InvalidRequest)
	}
	fmt.Fprintf(w, "Errors: %d\n", s.Errors)
	if s.OutputRecords != s.Processed {
		fmt.Fprintf(w, "Output records written: %d\n", s.OutputRecords)
	}
	if s.Matched > 0 && s.AvgMatchRatio > 0 {
		fmt.Fprintf(w, "\nAverage match ratio: %.1f%%\n", s.AvgMatchRatio)
	}
	fmt.Fprintf(w, "\nProcessing time: %.2f seconds\n", s.ElapsedSeconds)
	fmt.Fprintf(w, "Average time per record: %.2f seconds\n", s.SecondsPerRecord)
	if s.API != nil {
		fmt.Fprintf(w, "\nOpenAlex API stats: %s\n", s.API.Text)
	}
	if s.Aborted {
		fmt.Fprintf(w, "\nRun stopped early: %s\n", s.AbortReason)
	}
	fmt.Fprintf(w, "Run ID: %s\n%s\n\n", s.RunID, rule)
}

// WriteYAML exports the summary to path.
func (s *Summary) WriteYAML(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "creating %s", dir)
		}
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return eris.Wrap(err, "marshaling summary")
	}
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "writing %s", path)
}
