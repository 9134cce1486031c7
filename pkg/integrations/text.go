package integrations

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kerbaras/novels/pkg/data"
)

// TextExporter writes plain UTF-8 text. Images become "[Image: url]" lines.
type TextExporter struct{}

func NewTextExporter() *TextExporter {
	return &TextExporter{}
}

func (e *TextExporter) Format() data.Format { return data.FormatText }
func (e *TextExporter) Extension() string   { return "txt" }

func (e *TextExporter) Export(ctx context.Context, unit data.ExportUnit, path string) (*Artifact, error) {
	var b strings.Builder
	b.WriteString(unit.Title)
	b.WriteString("\n\n")

	for _, item := range unit.Items {
		switch it := item.(type) {
		case data.Text:
			b.WriteString(it.Body)
		case data.Image:
			fmt.Fprintf(&b, "[Image: %s]", it.SourceURL)
		}
		b.WriteString("\n\n")
	}

	return writeArtifact(path, data.FormatText, b.String())
}

func writeArtifact(path string, format data.Format, content string) (*Artifact, error) {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentAssembly, err)
	}
	return &Artifact{Path: path, Format: format}, nil
}
