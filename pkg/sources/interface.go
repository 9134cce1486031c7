package sources

import (
	"context"
	"errors"
)

var (
	// ErrNavigation means the page could not be loaded.
	ErrNavigation = errors.New("navigation failed")
	// ErrSelectorTimeout means the page loaded but the content never appeared.
	ErrSelectorTimeout = errors.New("content selector did not appear")
	// ErrEmptyContent means the content appeared but held no text or images.
	ErrEmptyContent = errors.New("chapter has no content")
)

// IsTransient reports whether err is worth another attempt.
func IsTransient(err error) bool {
	return errors.Is(err, ErrNavigation) || errors.Is(err, ErrSelectorTimeout)
}

// Renderer hands out rendering sessions. Implementations must be safe for
// concurrent use; each Session is owned by a single caller.
type Renderer interface {
	NewSession(ctx context.Context) (Session, error)
	Close() error
}

// Session is an isolated rendering context, such as one browser tab.
type Session interface {
	// Load navigates to url, waits for selector to be present and returns the
	// rendered document.
	Load(ctx context.Context, url, selector string) (string, error)
	Close() error
}
