package integrations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kerbaras/novels/pkg/data"
)

var (
	// ErrDocumentAssembly means the output document could not be produced.
	ErrDocumentAssembly = errors.New("document assembly failed")
	// ErrImageAsset means an image could not be downloaded or decoded.
	ErrImageAsset = errors.New("image unavailable")
)

// Artifact describes a document written by an exporter.
type Artifact struct {
	Path     string
	Format   data.Format
	Warnings []string

	// SkippedImages counts images left out of the document.
	SkippedImages int
}

func (a *Artifact) warn(logger *slog.Logger, msg, target string, err error) {
	logger.Warn(msg, "target", target, "error", err)
	a.Warnings = append(a.Warnings, fmt.Sprintf("%s %s: %v", msg, target, err))
}

func (a *Artifact) skipImage(logger *slog.Logger, url string, err error) {
	a.SkippedImages++
	a.warn(logger, "skipping image", url, err)
}

// Exporter renders an export unit into a single file.
type Exporter interface {
	Format() data.Format
	Extension() string
	Export(ctx context.Context, unit data.ExportUnit, path string) (*Artifact, error)
}

// AssetFetcher downloads remote assets. utils.API implements it.
type AssetFetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Options configures the exporters built by NewExporter.
type Options struct {
	Assets   AssetFetcher
	Fonts    *FontCache
	Font     string
	Author   string
	Language string
	Images   ImageSettings
	Logger   *slog.Logger
}

// NewExporter builds the exporter for format.
func NewExporter(format data.Format, opts Options) (Exporter, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	switch format {
	case data.FormatText:
		return NewTextExporter(), nil
	case data.FormatMarkdown:
		return NewMarkdownExporter(), nil
	case data.FormatHTML:
		e := NewHTMLExporter()
		if opts.Language != "" {
			e.Lang = opts.Language
		}
		return e, nil
	case data.FormatEPUB:
		return NewEPUBExporter(opts.Assets, opts.Author, opts.Language, opts.Logger), nil
	case data.FormatPDF:
		return NewPDFExporter(opts.Assets, opts.Fonts, opts.Font, opts.Images, opts.Logger), nil
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}
