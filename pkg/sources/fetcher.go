package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kerbaras/novels/pkg/data"
)

const (
	DefaultMaxAttempts = 2
	DefaultRetryDelay  = 5 * time.Second
)

// Fetcher turns a chapter URL into its content.
type Fetcher struct {
	renderer Renderer
	logger   *slog.Logger

	Selector    string
	MaxAttempts int
	RetryDelay  time.Duration
	// RetryEmpty makes ErrEmptyContent count as a transient failure.
	RetryEmpty bool
}

func NewFetcher(renderer Renderer, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		renderer:    renderer,
		logger:      logger,
		Selector:    DefaultSelector,
		MaxAttempts: DefaultMaxAttempts,
		RetryDelay:  DefaultRetryDelay,
	}
}

// Fetch loads the chapter at id, retrying transient failures. A single session
// is used for every attempt and is always closed before returning.
func (f *Fetcher) Fetch(ctx context.Context, id string) (*data.ChapterContent, error) {
	session, err := f.renderer.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: open session: %v", ErrNavigation, err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			f.logger.Warn("failed to close session", "url", id, "error", cerr)
		}
	}()

	attempts := f.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, f.RetryDelay); err != nil {
				return nil, fmt.Errorf("fetch %s: %w (last error: %v)", id, err, lastErr)
			}
			f.logger.Info("retrying chapter", "url", id, "attempt", attempt, "error", lastErr)
		}

		content, err := f.attempt(ctx, session, id)
		if err == nil {
			return content, nil
		}
		lastErr = err

		if !f.retryable(err) || ctx.Err() != nil {
			break
		}
	}

	return nil, fmt.Errorf("fetch %s after %d attempt(s): %w", id, attempts, lastErr)
}

func (f *Fetcher) attempt(ctx context.Context, session Session, id string) (*data.ChapterContent, error) {
	html, err := session.Load(ctx, id, f.Selector)
	if err != nil {
		return nil, err
	}

	items, err := Extract(html, id, f.Selector)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyContent
	}
	return data.NewChapterContent(id, items), nil
}

func (f *Fetcher) retryable(err error) bool {
	if IsTransient(err) {
		return true
	}
	return f.RetryEmpty && errors.Is(err, ErrEmptyContent)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
