package integrations

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/jung-kurt/gofpdf"
	"github.com/kerbaras/novels/pkg/data"
)

const (
	pdfFontFamily = "body"

	titleSize    = 18.0
	titleLeading = 22.0
	bodySize     = 12.0
	bodyLeading  = 14.0
	afterTitle   = 14.4 // 0.2in
	afterItem    = 7.2  // 0.1in
	pdfMargin    = 72.0 // 1in

	defaultPDFFont = FontDejaVuSans
)

// PDFExporter lays out an export unit on A4 pages with a Unicode font.
type PDFExporter struct {
	assets AssetFetcher
	fonts  *FontCache
	font   string
	images *ImageProcessor
	logger *slog.Logger

	// Compress toggles stream compression. Tests turn it off to inspect output.
	Compress bool
}

func NewPDFExporter(assets AssetFetcher, fonts *FontCache, font string, images ImageSettings, logger *slog.Logger) *PDFExporter {
	if font == "" {
		font = defaultPDFFont
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExporter{
		assets:   assets,
		fonts:    fonts,
		font:     font,
		images:   NewImageProcessor(images),
		logger:   logger,
		Compress: true,
	}
}

func (e *PDFExporter) Format() data.Format { return data.FormatPDF }
func (e *PDFExporter) Extension() string   { return "pdf" }

type pdfDoc struct {
	pdf       *gofpdf.Fpdf
	family    string
	translate func(string) string
}

func (e *PDFExporter) Export(ctx context.Context, unit data.ExportUnit, path string) (*Artifact, error) {
	artifact := &Artifact{Path: path, Format: data.FormatPDF}
	doc := e.newDocument(ctx, artifact)
	pdf := doc.pdf

	pdf.SetTitle(unit.Title, true)
	pdf.SetCreator("novels", true)
	pdf.AddPage()

	left, _, right, _ := pdf.GetMargins()
	pageW, pageH := pdf.GetPageSize()
	boxW := pageW - left - right
	boxH := pageH - 2*pdfMargin

	pdf.SetFont(doc.family, "", titleSize)
	pdf.MultiCell(boxW, titleLeading, doc.translate(unit.Title), "", "L", false)
	pdf.Ln(afterTitle)

	pdf.SetFont(doc.family, "", bodySize)
	imageIndex := 0
	for _, item := range unit.Items {
		switch it := item.(type) {
		case data.Text:
			pdf.MultiCell(boxW, bodyLeading, doc.translate(it.Body), "", "L", false)
		case data.Image:
			imageIndex++
			if err := e.placeImage(ctx, pdf, it.SourceURL, imageIndex, left, boxW, boxH); err != nil {
				artifact.skipImage(e.logger, it.SourceURL, err)
				continue
			}
		}
		pdf.Ln(afterItem)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentAssembly, err)
	}
	return artifact, nil
}

// newDocument prepares a document with the configured Unicode font, falling
// back to the Helvetica core font when it cannot be loaded.
func (e *PDFExporter) newDocument(ctx context.Context, artifact *Artifact) pdfDoc {
	pdf := e.blank()

	fontBytes, err := e.loadFont(ctx)
	if err == nil {
		err = registerFont(pdf, fontBytes)
	}
	if err == nil {
		return pdfDoc{pdf: pdf, family: pdfFontFamily, translate: identity}
	}

	artifact.warn(e.logger, "using fallback font instead of", e.font, err)
	pdf = e.blank()
	return pdfDoc{pdf: pdf, family: "Helvetica", translate: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (e *PDFExporter) blank() *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetCompression(e.Compress)
	return pdf
}

func (e *PDFExporter) loadFont(ctx context.Context) ([]byte, error) {
	if e.fonts == nil {
		return nil, fmt.Errorf("no font cache configured")
	}
	return e.fonts.Load(ctx, e.font)
}

func registerFont(pdf *gofpdf.Fpdf, fontBytes []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid font data: %v", r)
		}
	}()

	pdf.AddUTF8FontFromBytes(pdfFontFamily, "", fontBytes)
	if !pdf.Ok() {
		return pdf.Error()
	}
	return nil
}

func (e *PDFExporter) placeImage(ctx context.Context, pdf *gofpdf.Fpdf, url string, index int, left, boxW, boxH float64) error {
	if e.assets == nil {
		return fmt.Errorf("%w: no asset client", ErrImageAsset)
	}

	raw, err := e.assets.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrImageAsset, err)
	}

	img, err := e.images.Process(raw)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("image_%d", index)
	opts := gofpdf.ImageOptions{ImageType: img.Type}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
	if !pdf.Ok() {
		err := pdf.Error()
		pdf.ClearError()
		return fmt.Errorf("%w: %v", ErrImageAsset, err)
	}

	scale := FitScale(float64(img.Width), float64(img.Height), boxW, boxH)
	w := float64(img.Width) * scale
	h := float64(img.Height) * scale
	x := left + (boxW-w)/2

	pdf.ImageOptions(name, x, -1, w, h, true, opts, 0, "")
	if !pdf.Ok() {
		err := pdf.Error()
		pdf.ClearError()
		return fmt.Errorf("%w: %v", ErrImageAsset, err)
	}
	return nil
}

func identity(s string) string { return s }
