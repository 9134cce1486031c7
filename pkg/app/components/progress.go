package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/kerbaras/novels/pkg/app/styles"
	"github.com/kerbaras/novels/pkg/data"
	"github.com/kerbaras/novels/pkg/services"
)

const maxRecentFailures = 5

// ProgressTracker aggregates fetch progress events for display.
type ProgressTracker struct {
	active   map[string]bool
	failures []services.Progress
	done     int
	failed   int
	total    int
	bar      progress.Model
	width    int
}

func NewProgressTracker(width int) *ProgressTracker {
	bar := progress.New(progress.WithDefaultGradient())
	p := &ProgressTracker{active: make(map[string]bool), bar: bar}
	p.SetWidth(width)
	return p
}

func (p *ProgressTracker) SetWidth(width int) {
	p.width = width
	p.bar.Width = max(width-4, 10)
}

func (p *ProgressTracker) Update(event services.Progress) {
	if event.Total > 0 {
		p.total = event.Total
	}
	switch event.Status {
	case "fetching":
		p.active[event.ID] = true
	case "done":
		delete(p.active, event.ID)
		p.done++
	case "failed":
		delete(p.active, event.ID)
		p.done++
		p.failed++
		p.failures = append(p.failures, event)
		if len(p.failures) > maxRecentFailures {
			p.failures = p.failures[len(p.failures)-maxRecentFailures:]
		}
	}
}

func (p *ProgressTracker) Done() int   { return p.done }
func (p *ProgressTracker) Failed() int { return p.failed }
func (p *ProgressTracker) Total() int  { return p.total }

func (p *ProgressTracker) HasActive() bool {
	return len(p.active) > 0
}

// Percent returns overall completion in the range [0, 1].
func (p *ProgressTracker) Percent() float64 {
	if p.total == 0 {
		return 0
	}
	return float64(p.done) / float64(p.total)
}

func (p *ProgressTracker) View() string {
	var b strings.Builder

	b.WriteString(p.bar.ViewAs(p.Percent()))
	b.WriteString("\n")
	b.WriteString(styles.TextStyle.Render(fmt.Sprintf("%d/%d chapters", p.done, p.total)))
	if p.failed > 0 {
		b.WriteString("  ")
		b.WriteString(styles.StatusError.Render(fmt.Sprintf("%d failed", p.failed)))
	}
	b.WriteString("\n")

	if len(p.active) > 0 {
		slugs := make([]string, 0, len(p.active))
		for id := range p.active {
			slugs = append(slugs, data.ChapterSlug(id))
		}
		sort.Strings(slugs)
		b.WriteString(styles.StatusStyle("fetching").Render("fetching "))
		b.WriteString(styles.MutedStyle.Render(strings.Join(slugs, ", ")))
		b.WriteString("\n")
	}

	for _, f := range p.failures {
		line := fmt.Sprintf("✗ %s: %v", data.ChapterSlug(f.ID), f.Err)
		b.WriteString(styles.StatusError.Render(truncate(line, p.width)))
		b.WriteString("\n")
	}

	return b.String()
}

func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
