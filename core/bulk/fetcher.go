// Package bulk fetches many documents concurrently and funnels them into a
// single ResultSink.
//
// Exactly Workers goroutines read jobs from an unbuffered channel, so no
// more than Workers fetches are ever in flight. Every outcome travels to
// one writer goroutine as a core.FetchResult; the writer is the only code
// that touches the sink and the only place failures are logged. Closing
// the results channel after the workers have been joined is the writer's
// stop signal.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/gaurav-prasanna/biocpipe/core"
)

// errNotStarted marks jobs dropped by cancellation before their fetch began.
var errNotStarted = errors.New("fetch not started")

// Fetcher runs a bounded pool of document fetches.
type Fetcher struct {
	Client  core.DocumentFetcher
	Workers int
	// MaxJitter bounds the random delay before each fetch. Zero disables it.
	MaxJitter time.Duration
	// Limiter, when set, paces requests across all workers.
	Limiter *rate.Limiter
	Logger  zerolog.Logger
	// OnResult is called by the writer goroutine after each result is
	// handled. Used for progress reporting.
	OnResult func(core.FetchResult)
}

// Stats summarizes a Run.
type Stats struct {
	Dispatched  int
	Delivered   int
	Failed      int
	Cancelled   int
	MaxInFlight int
}

// Run fetches every identifier and writes successes to sink. Individual
// failures never abort the run. The sink is closed before Run returns,
// on every path; the returned error is ctx's error if the run was cut
// short, or the sink's Close error.
func (f *Fetcher) Run(ctx context.Context, ids []string, sink core.ResultSink) (stats Stats, err error) {
	workers := max(f.Workers, 1)

	jobs := make(chan core.FetchJob)
	results := make(chan core.FetchResult, workers)

	var (
		inFlight    atomic.Int64
		maxInFlight atomic.Int64
		wg          sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- f.process(ctx, job, &inFlight, &maxInFlight)
			}
		}()
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for res := range results {
			f.handle(res, sink, &stats)
		}
	}()

	dispatched := 0
dispatch:
	for i, id := range ids {
		job := core.FetchJob{Identifier: id, Ordinal: len(ids) - i}
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- job:
			dispatched++
		}
	}
	close(jobs)
	wg.Wait()
	close(results)
	<-writerDone

	stats.Dispatched = dispatched
	stats.MaxInFlight = int(maxInFlight.Load())

	if cerr := sink.Close(); cerr != nil {
		err = cerr
	}
	if ctxErr := ctx.Err(); ctxErr != nil && err == nil {
		err = ctxErr
	}
	f.Logger.Info().
		Int("dispatched", stats.Dispatched).
		Int("delivered", stats.Delivered).
		Int("failed", stats.Failed).
		Int("cancelled", stats.Cancelled).
		Int("max_in_flight", stats.MaxInFlight).
		Msg("bulk fetch finished")
	return stats, err
}

// process waits out the jitter and limiter, then fetches. Once the fetch
// starts it runs to completion even if ctx is cancelled.
func (f *Fetcher) process(ctx context.Context, job core.FetchJob, inFlight, maxInFlight *atomic.Int64) core.FetchResult {
	if err := f.wait(ctx); err != nil {
		return core.FetchResult{Job: job, Err: fmt.Errorf("%w: %w", errNotStarted, err)}
	}

	n := inFlight.Add(1)
	for {
		cur := maxInFlight.Load()
		if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	payload, err := f.Client.FetchDocument(context.WithoutCancel(ctx), job.Identifier)
	inFlight.Add(-1)

	return core.FetchResult{Job: job, Payload: payload, Err: err}
}

func (f *Fetcher) wait(ctx context.Context) error {
	if f.MaxJitter > 0 {
		delay := time.Duration(rand.Int64N(int64(f.MaxJitter)))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
	return ctx.Err()
}

// handle runs on the writer goroutine only.
func (f *Fetcher) handle(res core.FetchResult, sink core.ResultSink, stats *Stats) {
	defer func() {
		if f.OnResult != nil {
			f.OnResult(res)
		}
	}()

	log := f.Logger.With().Str("id", res.Job.Identifier).Int("remaining", res.Job.Ordinal).Logger()
	switch {
	case errors.Is(res.Err, errNotStarted):
		stats.Cancelled++
		log.Debug().Msg("fetch cancelled before start")
		return
	case res.Err != nil:
		stats.Failed++
		log.Warn().Err(res.Err).Msg("fetch failed")
		return
	}

	if err := sink.Write(res.Job.Identifier, res.Payload); err != nil {
		stats.Failed++
		log.Warn().Err(err).Msg("write failed")
		return
	}
	stats.Delivered++
	log.Debug().Int("bytes", len(res.Payload)).Msg("document written")
}
