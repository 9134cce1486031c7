package integrations

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"image"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-shiori/go-epub"
	"github.com/kerbaras/novels/pkg/data"
)

const (
	DefaultAuthor   = "Valvrare Team (Scraped)"
	DefaultLanguage = "vi"
)

// EPUBExporter builds a single-section EPUB with images embedded.
type EPUBExporter struct {
	assets   AssetFetcher
	author   string
	language string
	logger   *slog.Logger
}

func NewEPUBExporter(assets AssetFetcher, author, language string, logger *slog.Logger) *EPUBExporter {
	if author == "" {
		author = DefaultAuthor
	}
	if language == "" {
		language = DefaultLanguage
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EPUBExporter{assets: assets, author: author, language: language, logger: logger}
}

func (e *EPUBExporter) Format() data.Format { return data.FormatEPUB }
func (e *EPUBExporter) Extension() string   { return "epub" }

func (e *EPUBExporter) Export(ctx context.Context, unit data.ExportUnit, outputPath string) (*Artifact, error) {
	book, err := epub.NewEpub(unit.Title)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create EPub: %v", ErrDocumentAssembly, err)
	}
	book.SetAuthor(e.author)
	book.SetLang(e.language)

	tempDir, err := os.MkdirTemp("", "novels-epub-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentAssembly, err)
	}
	defer os.RemoveAll(tempDir)

	artifact := &Artifact{Path: outputPath, Format: data.FormatEPUB}

	var body strings.Builder
	fmt.Fprintf(&body, "<h1>%s</h1>\n", html.EscapeString(unit.Title))

	imageIndex := 0
	for _, item := range unit.Items {
		switch it := item.(type) {
		case data.Text:
			fmt.Fprintf(&body, "<p>%s</p>\n", html.EscapeString(it.Body))
		case data.Image:
			imageIndex++
			internalPath, err := e.addImage(ctx, book, tempDir, it.SourceURL, imageIndex)
			if err != nil {
				artifact.skipImage(e.logger, it.SourceURL, err)
				continue
			}
			fmt.Fprintf(&body, "<div class=\"image\"><img src=\"%s\" alt=\"\"/></div>\n", internalPath)
		}
	}

	if _, err := book.AddSection(body.String(), unit.Title, "", ""); err != nil {
		return nil, fmt.Errorf("%w: failed to add section: %v", ErrDocumentAssembly, err)
	}

	if err := book.Write(outputPath); err != nil {
		return nil, fmt.Errorf("%w: failed to write EPub: %v", ErrDocumentAssembly, err)
	}

	return artifact, nil
}

// addImage downloads one image into dir and registers it with the book.
func (e *EPUBExporter) addImage(ctx context.Context, book *epub.Epub, dir, url string, index int) (string, error) {
	if e.assets == nil {
		return "", fmt.Errorf("%w: no asset client", ErrImageAsset)
	}

	raw, err := e.assets.Get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageAsset, err)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(raw)); err != nil {
		return "", fmt.Errorf("%w: not a supported image: %v", ErrImageAsset, err)
	}

	name := fmt.Sprintf("image_%d.%s", index, ImageExtension(url))
	local := filepath.Join(dir, name)
	if err := os.WriteFile(local, raw, 0644); err != nil {
		return "", err
	}

	internalPath, err := book.AddImage(local, name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrImageAsset, err)
	}
	return internalPath, nil
}

// ImageExtension derives a file extension from the last path segment of url,
// ignoring the query string. It falls back to "jpg".
func ImageExtension(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	ext := strings.TrimPrefix(path.Ext(path.Base(url)), ".")
	ext = strings.ToLower(ext)
	switch ext {
	case "jpg", "jpeg", "png", "gif", "webp":
		return ext
	}
	return "jpg"
}
