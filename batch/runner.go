// Package batch drives the normalization engine over a set of files. Each
// image is an independent unit of work: its failure is recorded in the
// report and never stops the others.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/ArnaudCalmettes/histonorm/imp"
	"github.com/ArnaudCalmettes/histonorm/norm"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Outcome statuses.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// A Journal keeps track of the outcome of each processed image.
type Journal interface {
	Record(input, output, status, errMsg string) error
}

// Result is the outcome of one input image.
type Result struct {
	Input    string
	Output   string
	Status   string
	Params   norm.Params
	Duration time.Duration
	Err      error
}

// Report sums up a batch.
type Report struct {
	Results []Result
	OK      int
	Failed  int
	Skipped int
}

// Err returns an error if any image failed.
func (r Report) Err() error {
	if r.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d images failed", r.Failed, len(r.Results))
}

// Degenerate returns the results that failed on a degenerate image.
func (r Report) Degenerate() []Result {
	var res []Result
	for _, x := range r.Results {
		if errors.Is(x.Err, norm.ErrDegenerate) {
			res = append(res, x)
		}
	}
	return res
}

// Runner normalizes files with an engine and writes the results next to
// their inputs.
type Runner struct {
	Engine      *norm.Engine
	Suffix      string
	Compression imp.Compression
	// Number of images processed concurrently. Defaults to the CPU count.
	Workers int
	// Skip images whose output already exists.
	SkipExisting bool
	// Inputs already handled by a previous run.
	Completed map[string]bool
	// Optional.
	Journal Journal
	Log     zerolog.Logger

	mu sync.Mutex
}

// Run processes every input. Once ctx is done, the remaining inputs are
// reported as skipped; images in flight are finished.
func (r *Runner) Run(ctx context.Context, inputs []string) Report {
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	suffix := r.Suffix
	if suffix == "" {
		suffix = DefaultSuffix
	}

	results := make([]Result, len(inputs))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, in := range inputs {
		out := OutputName(in, suffix)
		switch {
		case ctx.Err() != nil:
			results[i] = r.skip(in, out, ctx.Err().Error())
			continue
		case r.Completed[in]:
			results[i] = r.skip(in, out, "completed by a previous run")
			continue
		case r.SkipExisting && exists(out):
			results[i] = r.skip(in, out, "output exists")
			continue
		}
		i, in := i, in
		g.Go(func() error {
			results[i] = r.process(in, out)
			return nil
		})
	}
	g.Wait()

	rep := Report{Results: results}
	for _, res := range results {
		switch res.Status {
		case StatusOK:
			rep.OK++
		case StatusFailed:
			rep.Failed++
		default:
			rep.Skipped++
		}
	}
	return rep
}

func (r *Runner) skip(in, out, reason string) Result {
	r.Log.Debug().Str("component", "batch").Str("input", in).Str("reason", reason).Msg("skipped")
	return Result{Input: in, Output: out, Status: StatusSkipped}
}

func (r *Runner) process(in, out string) Result {
	start := time.Now()
	res := Result{Input: in, Output: out, Status: StatusOK}

	params, err := r.normalize(in, out)
	res.Duration = time.Since(start)
	res.Params = params
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		r.Log.Error().Str("component", "batch").Str("input", in).Err(err).Msg("normalization failed")
	} else {
		r.Log.Info().Str("component", "batch").Str("input", in).Str("output", out).
			Dur("took", res.Duration).Msg("normalized")
	}
	r.record(res)
	return res
}

func (r *Runner) normalize(in, out string) (norm.Params, error) {
	src, err := imp.ReadFile(in)
	if err != nil {
		return norm.Params{}, fmt.Errorf("read %s: %w", in, err)
	}
	gray, err := imp.ToGray16(src)
	if err != nil {
		return norm.Params{}, fmt.Errorf("read %s: %w", in, err)
	}

	dst, a, err := r.Engine.Normalize(gray)
	if err != nil {
		return norm.Params{}, fmt.Errorf("normalize %s: %w", in, err)
	}
	r.Log.Debug().Str("component", "engine").Str("input", in).
		Int("threshold", a.Threshold).Float64("alpha", a.Params.Alpha).Int("beta", a.Params.Beta).
		Msg("parameters")

	if err := imp.Save(out, dst, r.Compression); err != nil {
		return a.Params, fmt.Errorf("write %s: %w", out, err)
	}
	return a.Params, nil
}

func (r *Runner) record(res Result) {
	if r.Journal == nil {
		return
	}
	msg := ""
	if res.Err != nil {
		msg = res.Err.Error()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.Journal.Record(res.Input, res.Output, res.Status, msg); err != nil {
		r.Log.Warn().Str("component", "journal").Str("input", res.Input).Err(err).Msg("couldn't record outcome")
	}
}
