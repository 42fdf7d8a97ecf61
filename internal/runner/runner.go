// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runner drives input records through a matching engine and
// writes the enriched records.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/award-matcher/internal/apihealth"
	"github.com/pdiddy/award-matcher/internal/matching"
	"github.com/pdiddy/award-matcher/internal/recordio"
	"github.com/pdiddy/award-matcher/internal/report"
	"github.com/pdiddy/award-matcher/pkg/types"
)

const defaultProgressEvery = 10

// Options configures a Runner.
type Options struct {
	// Limit stops after this many input records. Zero means no limit.
	Limit int

	// Progress receives a line every ProgressEvery records. Nil
	// discards progress.
	Progress      io.Writer
	ProgressEvery int

	// Tracker supplies API statistics for the summary. Optional.
	Tracker *apihealth.Tracker

	Now func() time.Time
}

// Runner processes one input source sequentially.
type Runner struct {
	engine matching.Engine
	reader recordio.Reader
	writer recordio.Writer
	opts   Options
}

// New returns a runner. A nil writer is a dry run: records are
// processed and counted but nothing is written.
func New(engine matching.Engine, reader recordio.Reader, writer recordio.Writer, opts Options) *Runner {
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = defaultProgressEvery
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{engine: engine, reader: reader, writer: writer, opts: opts}
}

// Run processes records until the input ends, the limit is reached, a
// run-level API fault occurs, or ctx is cancelled. Output is flushed in
// every case. A run-level fault marks the summary aborted and is not
// returned as an error; cancellation and read or write failures are.
func (r *Runner) Run(ctx context.Context) (*report.Summary, error) {
	sum := report.New(r.engine.Mode(), r.opts.Now())
	sum.DryRun = r.writer == nil

	runErr := r.loop(ctx, sum)
	var abort *abortError
	if errors.As(runErr, &abort) {
		fmt.Fprintf(r.opts.Progress, "\nERROR: %v\nStopping processing due to API issues.\n", abort.err)
		sum.Abort(abort.err)
		runErr = nil
	}
	if r.writer != nil {
		if err := r.writer.Close(); err != nil && runErr == nil {
			runErr = eris.Wrap(err, "flushing output")
		}
	}
	sum.Finish(r.opts.Now(), r.opts.Tracker)
	return sum, runErr
}

func (r *Runner) loop(ctx context.Context, sum *report.Summary) error {
	i := 0
	for rec, err := range r.reader.Records(ctx) {
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return eris.Wrap(err, "reading input")
		}
		i++
		if r.opts.Limit > 0 && i > r.opts.Limit {
			zap.L().Info("reached processing limit", zap.Int("limit", r.opts.Limit))
			break
		}

		out, err := r.process(ctx, i, rec)
		if err != nil {
			return err
		}
		sum.Add(out)
		if err := r.write(out); err != nil {
			return err
		}
		if i%r.opts.ProgressEvery == 0 {
			fmt.Fprintf(r.opts.Progress, "Processed %d records... (%d matched)\n", i, sum.Matched)
		}
	}
	return nil
}

// process runs the engine on rec. Record-level faults become a single
// error or invalid_request record. A run-level fault or cancellation is
// returned.
func (r *Runner) process(ctx context.Context, i int, rec types.Record) ([]types.Record, error) {
	zap.L().Info("processing record", zap.Int("record", i), zap.String("award_id", rec.String(types.FieldAwardID)))
	out, err := r.engine.Process(ctx, rec)
	switch {
	case err == nil:
		return out, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case apihealth.IsRunLevel(err):
		zap.L().Error("stopping run on API fault", zap.Int("record", i), zap.Error(err))
		return nil, &abortError{err: err}
	case apihealth.IsInvalidRequest(err):
		zap.L().Warn("invalid request", zap.Int("record", i), zap.Error(err))
		return []types.Record{failedRecord(rec, types.StatusInvalidRequest, err)}, nil
	default:
		zap.L().Error("error processing record", zap.Int("record", i), zap.Error(err))
		return []types.Record{failedRecord(rec, types.StatusError, err)}, nil
	}
}

func (r *Runner) write(out []types.Record) error {
	if r.writer == nil {
		return nil
	}
	for _, rec := range out {
		if err := r.writer.Write(rec); err != nil {
			return eris.Wrap(err, "writing record")
		}
	}
	return nil
}

func failedRecord(rec types.Record, status types.MatchStatus, err error) types.Record {
	out := rec.Clone()
	out[types.FieldMatchStatus] = string(status)
	out[types.FieldError] = err.Error()
	return out
}

// abortError carries a run-level fault out of the loop.
type abortError struct{ err error }

func (e *abortError) Error() string { return e.err.Error() }
func (e *abortError) Unwrap() error { return e.err }
