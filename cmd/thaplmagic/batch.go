package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	thaplmagic "github.com/alnah/go-thaplmagic"
	"github.com/alnah/go-thaplmagic/internal/config"
)

// ErrReadInput is returned when a cell file cannot be read.
var ErrReadInput = errors.New("failed to read cell input")

// stdinName designates standard input in the input list.
const stdinName = "-"

// renderJob is one cell to render.
type renderJob struct {
	InputPath string // stdinName for standard input
	Stem      string // base name for --publish dir
	Cell      string
	Line      string   // shell-quoted cell arguments (--line)
	Args      []string // tokenized cell arguments (after "--")
	UseLine   bool
}

// RenderResult holds the outcome of a single render.
type RenderResult struct {
	InputPath string
	Status    thaplmagic.Status
	Err       error
	Duration  time.Duration
}

// collectJobs reads every input. No input, or "-", reads standard input.
func collectJobs(flags *renderFlags, cfg *config.Config, env *Environment) ([]renderJob, error) {
	inputs := flags.inputs
	if len(inputs) == 0 {
		inputs = []string{stdinName}
	}

	stdinStem := cfg.Output.ArtifactName
	if stdinStem == "" {
		stdinStem = thaplmagic.DefaultArtifactName
	}

	jobs := make([]renderJob, 0, len(inputs))
	stdinRead := false
	for _, path := range inputs {
		job := renderJob{
			InputPath: path,
			Line:      flags.line,
			Args:      flags.cellArgs,
			UseLine:   flags.lineIsSet,
		}

		if path == stdinName {
			if stdinRead {
				return nil, fmt.Errorf("%w: standard input listed twice", ErrReadInput)
			}
			stdinRead = true
			data, err := io.ReadAll(env.Stdin)
			if err != nil {
				return nil, fmt.Errorf("%w: stdin: %v", ErrReadInput, err)
			}
			job.Cell = string(data)
			job.Stem = stdinStem
		} else {
			data, err := os.ReadFile(path) // #nosec G304 -- user-provided input path
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
			}
			job.Cell = string(data)
			job.Stem = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}

		jobs = append(jobs, job)
	}
	return jobs, nil
}

// serviceFactory builds the Service of each job. Stream publishers are
// shared and safe for concurrent use; dir publishers are per job.
type serviceFactory struct {
	base      []thaplmagic.Option
	publish   string
	outputDir string
	shared    thaplmagic.Publisher
}

func (f *serviceFactory) serviceFor(job renderJob) *thaplmagic.Service {
	pub := f.shared
	if f.publish == publishDir {
		pub = thaplmagic.NewDirPublisher(f.outputDir, job.Stem)
	}
	opts := append(append([]thaplmagic.Option(nil), f.base...), thaplmagic.WithPublisher(pub))
	return thaplmagic.New(opts...)
}

// sharedPublisher returns the stream publisher for json and msgpack targets.
func sharedPublisher(publish string, env *Environment) thaplmagic.Publisher {
	switch publish {
	case publishMsgpack:
		return thaplmagic.NewMsgpackPublisher(env.Stdout)
	case publishJSON:
		return thaplmagic.NewJSONPublisher(env.Stdout)
	default:
		return nil
	}
}

// renderBatch renders jobs concurrently with at most workers renders in flight.
// Results keep the order of jobs.
func renderBatch(ctx context.Context, factory *serviceFactory, jobs []renderJob, workers int) []RenderResult {
	if len(jobs) == 0 {
		return nil
	}

	concurrency := min(workers, len(jobs))

	results := make([]RenderResult, len(jobs))
	var wg sync.WaitGroup
	queue := make(chan int, len(jobs))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range queue {
				if ctx.Err() != nil {
					results[idx] = RenderResult{
						InputPath: jobs[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = renderOne(ctx, factory, jobs[idx])
			}
		}()
	}

	for i := range jobs {
		queue <- i
	}
	close(queue)

	wg.Wait()
	return results
}

// renderOne runs a single job. Engine failures and missing images are
// reported as errors so the exit code reflects them.
func renderOne(ctx context.Context, factory *serviceFactory, job renderJob) RenderResult {
	start := time.Now()
	result := RenderResult{InputPath: job.InputPath}

	svc := factory.serviceFor(job)

	var out *thaplmagic.Outcome
	var err error
	if job.UseLine {
		out, err = svc.RunCell(ctx, job.Line, job.Cell)
	} else {
		out, err = svc.RunArgs(ctx, job.Args, job.Cell)
	}
	result.Duration = time.Since(start)

	if out != nil {
		result.Status = out.Status
	}
	if err != nil {
		result.Err = err
		return result
	}

	switch out.Status {
	case thaplmagic.StatusFailed:
		if out.Cause != nil {
			result.Err = fmt.Errorf("%w: %w", thaplmagic.ErrRenderFailed, out.Cause)
		} else {
			result.Err = thaplmagic.ErrRenderFailed
		}
	case thaplmagic.StatusNoArtifact:
		result.Err = thaplmagic.ErrArtifactMissing
	}
	return result
}

// ResultSummary holds the count of succeeded and failed renders.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed renders.
func countResults(results []RenderResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// reportResults prints per-input lines to stderr (stdout carries display
// data) and returns the first failure, if any.
func reportResults(results []RenderResult, common commonFlags, env *Environment) error {
	summary := countResults(results)

	var first error
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v%s\n", r.InputPath, r.Err, hintFor(r.Err))
			if first == nil {
				first = r.Err
			}
			continue
		}

		if common.quiet {
			continue
		}
		if common.verbose {
			fmt.Fprintf(env.Stderr, "%s: %s (%v)\n", r.InputPath, r.Status, r.Duration.Round(time.Millisecond))
		}
	}

	if !common.quiet && len(results) > 1 {
		fmt.Fprintf(env.Stderr, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	if first != nil && summary.Failed > 1 {
		return fmt.Errorf("%d of %d renders failed: %w", summary.Failed, len(results), first)
	}
	return first
}
