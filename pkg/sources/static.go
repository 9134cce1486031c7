package sources

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// StaticRenderer fetches pages over plain HTTP without running scripts. It
// suits sites that serve chapter text in the initial document.
type StaticRenderer struct {
	collector *colly.Collector
}

func NewStaticRenderer(userAgent string, timeout time.Duration) *StaticRenderer {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}
	return &StaticRenderer{collector: c}
}

func (r *StaticRenderer) NewSession(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &staticSession{collector: r.collector.Clone()}, nil
}

func (r *StaticRenderer) Close() error {
	return nil
}

type staticSession struct {
	collector *colly.Collector
}

func (s *staticSession) Load(ctx context.Context, url, selector string) (string, error) {
	c := s.collector.Clone()
	c.Context = ctx

	var body string
	var status int
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = string(r.Body)
	})

	var visitErr error
	c.OnError(func(r *colly.Response, err error) {
		status = r.StatusCode
		visitErr = err
	})

	if err := c.Visit(url); err != nil && visitErr == nil {
		visitErr = err
	}
	if visitErr != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %s: %v", ErrNavigation, url, visitErr)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%w: %s: status %d", ErrNavigation, url, status)
	}

	if !HasSelector(body, selector) {
		return "", fmt.Errorf("%w: %s", ErrSelectorTimeout, url)
	}
	return body, nil
}

func (s *staticSession) Close() error {
	return nil
}
