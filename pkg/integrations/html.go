package integrations

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/kerbaras/novels/pkg/data"
)

var htmlTemplate = template.Must(template.New("unit").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { max-width: 42em; margin: 2em auto; padding: 0 1em; font-family: Georgia, serif; line-height: 1.6; }
img { display: block; max-width: 100%; height: auto; margin: 1em auto; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Blocks}}{{if .Image}}<img src="{{.Image}}" alt="">
{{else}}<p>{{.Text}}</p>
{{end}}{{end}}</body>
</html>
`))

type htmlBlock struct {
	Text  string
	Image string
}

// HTMLExporter writes a standalone HTML page with images referenced by URL.
type HTMLExporter struct {
	Lang string
}

func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{Lang: "vi"}
}

func (e *HTMLExporter) Format() data.Format { return data.FormatHTML }
func (e *HTMLExporter) Extension() string   { return "html" }

func (e *HTMLExporter) Export(ctx context.Context, unit data.ExportUnit, path string) (*Artifact, error) {
	blocks := make([]htmlBlock, 0, len(unit.Items))
	for _, item := range unit.Items {
		switch it := item.(type) {
		case data.Text:
			blocks = append(blocks, htmlBlock{Text: it.Body})
		case data.Image:
			blocks = append(blocks, htmlBlock{Image: it.SourceURL})
		}
	}

	var buf bytes.Buffer
	err := htmlTemplate.Execute(&buf, struct {
		Lang   string
		Title  string
		Blocks []htmlBlock
	}{e.Lang, unit.Title, blocks})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentAssembly, err)
	}

	return writeArtifact(path, data.FormatHTML, buf.String())
}
