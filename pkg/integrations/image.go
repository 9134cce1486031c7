package integrations

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ImageSettings bounds the pixel size of embedded images. Zero means no limit.
type ImageSettings struct {
	MaxWidth  int
	MaxHeight int
	Quality   int // JPEG quality (1-100)
	Grayscale bool
}

// ProcessedImage is an image ready to embed in a document.
type ProcessedImage struct {
	Data   []byte
	Type   string // "jpg" or "png"
	Width  int
	Height int
}

const defaultJPEGQuality = 85

// ImageProcessor decodes downloaded images, downsamples oversized ones and
// re-encodes them into a format every document backend accepts.
type ImageProcessor struct {
	settings ImageSettings
}

func NewImageProcessor(settings ImageSettings) *ImageProcessor {
	if settings.Quality <= 0 || settings.Quality > 100 {
		settings.Quality = defaultJPEGQuality
	}
	return &ImageProcessor{settings: settings}
}

// Process decodes raw and returns an embeddable copy. JPEG input that needs no
// changes is passed through untouched.
func (p *ImageProcessor) Process(raw []byte) (*ProcessedImage, error) {
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image: %v", ErrImageAsset, err)
	}

	bounds := img.Bounds()
	origWidth, origHeight := bounds.Dx(), bounds.Dy()
	if origWidth == 0 || origHeight == 0 {
		return nil, fmt.Errorf("%w: image has no pixels", ErrImageAsset)
	}

	newWidth, newHeight := p.calculateDimensions(origWidth, origHeight)
	changed := false
	if newWidth != origWidth || newHeight != origHeight {
		img = p.resize(img, newWidth, newHeight)
		changed = true
	}
	if p.settings.Grayscale {
		img = p.toGrayscale(img)
		changed = true
	}

	if format == "jpeg" && !changed {
		return &ProcessedImage{Data: raw, Type: "jpg", Width: origWidth, Height: origHeight}, nil
	}
	return p.encode(img, format == "jpeg")
}

// calculateDimensions calculates the new dimensions while maintaining aspect ratio
func (p *ImageProcessor) calculateDimensions(width, height int) (int, int) {
	maxW, maxH := p.settings.MaxWidth, p.settings.MaxHeight
	if maxW <= 0 {
		maxW = width
	}
	if maxH <= 0 {
		maxH = height
	}

	scale := FitScale(float64(width), float64(height), float64(maxW), float64(maxH))
	if scale >= 1 {
		return width, height
	}

	newWidth := max(int(float64(width)*scale), 1)
	newHeight := max(int(float64(height)*scale), 1)
	return newWidth, newHeight
}

// FitScale returns the factor that fits a w×h box inside boxW×boxH without
// ever enlarging it.
func FitScale(w, h, boxW, boxH float64) float64 {
	if w <= 0 || h <= 0 {
		return 1
	}
	return min(boxW/w, boxH/h, 1)
}

// resize resizes an image using high-quality interpolation
func (p *ImageProcessor) resize(img image.Image, width, height int) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
	return dst
}

func (p *ImageProcessor) toGrayscale(img image.Image) image.Image {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}

func (p *ImageProcessor) encode(img image.Image, asJPEG bool) (*ProcessedImage, error) {
	var buf bytes.Buffer
	bounds := img.Bounds()

	if asJPEG {
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.settings.Quality}); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}
		return &ProcessedImage{Data: buf.Bytes(), Type: "jpg", Width: bounds.Dx(), Height: bounds.Dy()}, nil
	}

	// 8-bit non-interlaced output
	var flat image.Image = img
	if _, ok := img.(*image.Gray); !ok {
		nrgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
		flat = nrgba
	}
	if err := png.Encode(&buf, flat); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return &ProcessedImage{Data: buf.Bytes(), Type: "png", Width: bounds.Dx(), Height: bounds.Dy()}, nil
}
