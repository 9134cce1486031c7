package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kerbaras/novels/pkg/data"
)

const DefaultMaxParallel = 5

// ChapterFetcher is satisfied by sources.Fetcher.
type ChapterFetcher interface {
	Fetch(ctx context.Context, id string) (*data.ChapterContent, error)
}

// Progress represents the state of a single fetch task
type Progress struct {
	ID     string
	Status string // "fetching", "done", "failed"
	Err    error
	Done   int
	Total  int
}

// Pool fetches chapters with a bounded number of tasks in flight.
type Pool struct {
	fetcher     ChapterFetcher
	maxParallel int
	logger      *slog.Logger

	// OnProgress is called from a single goroutine, in event order.
	OnProgress func(Progress)
}

func NewPool(fetcher ChapterFetcher, maxParallel int, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	if maxParallel < 1 {
		logger.Warn("invalid concurrency limit, using default", "max_parallel", maxParallel, "default", DefaultMaxParallel)
		maxParallel = DefaultMaxParallel
	}
	return &Pool{fetcher: fetcher, maxParallel: maxParallel, logger: logger}
}

func (p *Pool) MaxParallel() int {
	return p.maxParallel
}

type event struct {
	started bool
	outcome data.FetchOutcome
}

// RunAll fetches every id and returns one outcome per distinct id. Errors and
// panics inside a task only affect that task's outcome.
func (p *Pool) RunAll(ctx context.Context, ids []string) map[string]data.FetchOutcome {
	ids = Unique(ids)
	outcomes := make(map[string]data.FetchOutcome, len(ids))
	if len(ids) == 0 {
		return outcomes
	}

	events := make(chan event, len(ids))
	collected := make(chan struct{})

	go func() {
		defer close(collected)
		done := 0
		for ev := range events {
			if ev.started {
				p.emit(Progress{ID: ev.outcome.ID, Status: "fetching", Done: done, Total: len(ids)})
				continue
			}
			outcomes[ev.outcome.ID] = ev.outcome
			done++
			status := "done"
			if !ev.outcome.OK() {
				status = "failed"
			}
			p.emit(Progress{ID: ev.outcome.ID, Status: status, Err: ev.outcome.Err, Done: done, Total: len(ids)})
		}
	}()

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.maxParallel)

	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				events <- event{outcome: data.Failed(id, ctx.Err())}
				return
			}
			defer func() { <-semaphore }()

			events <- event{started: true, outcome: data.FetchOutcome{ID: id}}
			events <- event{outcome: p.fetch(ctx, id)}
		}(id)
	}

	wg.Wait()
	close(events)
	<-collected

	return outcomes
}

func (p *Pool) fetch(ctx context.Context, id string) (outcome data.FetchOutcome) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("fetch task panicked", "url", id, "panic", r)
			outcome = data.Failed(id, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return data.Failed(id, err)
	}

	content, err := p.fetcher.Fetch(ctx, id)
	if err != nil {
		p.logger.Warn("chapter failed", "url", id, "error", err)
		return data.Failed(id, err)
	}
	if content == nil {
		return data.Failed(id, fmt.Errorf("fetcher returned no content"))
	}
	return data.Succeeded(content)
}

func (p *Pool) emit(progress Progress) {
	if p.OnProgress != nil {
		p.OnProgress(progress)
	}
}

// Unique returns ids with later duplicates removed, preserving order.
func Unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
