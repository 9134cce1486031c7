package integrations

import (
	"context"
	"fmt"
	"strings"

	"github.com/kerbaras/novels/pkg/data"
)

// MarkdownExporter writes CommonMark with images referenced by URL.
type MarkdownExporter struct{}

func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{}
}

func (e *MarkdownExporter) Format() data.Format { return data.FormatMarkdown }
func (e *MarkdownExporter) Extension() string   { return "md" }

func (e *MarkdownExporter) Export(ctx context.Context, unit data.ExportUnit, path string) (*Artifact, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", unit.Title)

	for _, item := range unit.Items {
		switch it := item.(type) {
		case data.Text:
			b.WriteString(escapeMarkdown(it.Body))
		case data.Image:
			fmt.Fprintf(&b, "![](%s)", markdownURL(it.SourceURL))
		}
		b.WriteString("\n\n")
	}

	return writeArtifact(path, data.FormatMarkdown, b.String())
}

var markdownEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`)

// escapeMarkdown keeps prose from being read as emphasis, code or links, and
// stops a paragraph that starts with '#' from turning into a heading.
func escapeMarkdown(s string) string {
	s = markdownEscaper.Replace(s)
	if strings.HasPrefix(s, "#") || strings.HasPrefix(s, ">") {
		s = `\` + s
	}
	return s
}

func markdownURL(u string) string {
	if strings.ContainsAny(u, " ()") {
		return "<" + u + ">"
	}
	return u
}
