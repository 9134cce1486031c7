package data

import (
	"net/url"
	"path"
	"strings"
)

// ContentItem is one atomic unit of chapter content. The set of variants is
// closed: Text and Image are the only implementations.
type ContentItem interface {
	contentItem()
}

// Text is a paragraph of chapter text.
type Text struct {
	Body string
}

// Image is a reference to a remote picture embedded in the chapter.
type Image struct {
	SourceURL string
}

func (Text) contentItem()  {}
func (Image) contentItem() {}

type ChapterContent struct {
	ID    string // source URL
	Title string
	Items []ContentItem
}

// NewChapterContent builds a chapter whose title is derived from its identifier.
func NewChapterContent(id string, items []ContentItem) *ChapterContent {
	return &ChapterContent{
		ID:    id,
		Title: ChapterSlug(id),
		Items: items,
	}
}

type Volume struct {
	Name     string
	Chapters []string
}

// ExportUnit is the input of a single exporter call.
type ExportUnit struct {
	Title    string
	Dir      string // relative to the output root, "" for the root itself
	BaseName string // file name without extension
	Items    []ContentItem
}

// FetchOutcome records the result of fetching one chapter. Exactly one of
// Content and Err is set.
type FetchOutcome struct {
	ID      string
	Content *ChapterContent
	Err     error
}

func Succeeded(content *ChapterContent) FetchOutcome {
	return FetchOutcome{ID: content.ID, Content: content}
}

func Failed(id string, err error) FetchOutcome {
	return FetchOutcome{ID: id, Err: err}
}

func (o FetchOutcome) OK() bool {
	return o.Err == nil && o.Content != nil
}

// ChapterSlug returns the trailing path segment of a chapter URL, ignoring
// query strings and fragments.
func ChapterSlug(id string) string {
	p := id
	if u, err := url.Parse(id); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return id
	}
	return path.Base(p)
}
