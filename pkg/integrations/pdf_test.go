package integrations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kerbaras/novels/pkg/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

// offlineFonts returns a cache whose downloads always fail.
func offlineFonts(t *testing.T) *FontCache {
	t.Helper()
	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	cache := NewFontCache(t.TempDir(), testAssets(), testLogger())
	for name, spec := range cache.Fonts {
		spec.URL = server.URL + "/" + spec.File
		cache.Fonts[name] = spec
	}
	return cache
}

// cachedFonts returns an offline cache whose font files are already on disk.
func cachedFonts(t *testing.T) *FontCache {
	t.Helper()
	cache := offlineFonts(t)
	for _, spec := range cache.Fonts {
		require.NoError(t, os.WriteFile(filepath.Join(cache.dir, spec.File), goregular.TTF, 0644))
	}
	return cache
}

func TestPDFExporterEmbedsUnicodeFont(t *testing.T) {
	server := assetServer(t)
	path := filepath.Join(t.TempDir(), "ch.pdf")
	e := NewPDFExporter(testAssets(), cachedFonts(t), FontDejaVuSans, ImageSettings{}, testLogger())
	e.Compress = false

	unit := data.ExportUnit{
		Title: "Đèn đá",
		Items: []data.ContentItem{
			data.Text{Body: "Đêm đó, đèn đá sáng."},
			data.Image{SourceURL: server.URL + "/ok.png"},
		},
	}
	artifact, err := e.Export(context.Background(), unit, path)
	require.NoError(t, err)
	assert.Empty(t, artifact.Warnings)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	pdf := string(content)
	assert.Contains(t, pdf, "/FontFile2")
	assert.Contains(t, pdf, "/Subtype /Type0")
	assert.NotContains(t, pdf, "Helvetica")
	assert.Equal(t, 1, strings.Count(pdf, "/Subtype /Image"))
}

func TestPDFExporterFallsBackToCoreFont(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ch.pdf")
	e := NewPDFExporter(testAssets(), offlineFonts(t), FontDejaVuSans, ImageSettings{}, testLogger())
	e.Compress = false

	artifact, err := e.Export(context.Background(), sampleUnit(), path)
	require.NoError(t, err)
	require.Len(t, artifact.Warnings, 1)
	assert.Contains(t, artifact.Warnings[0], "fallback font")
	assert.Zero(t, artifact.SkippedImages)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "%PDF-"))
	assert.Contains(t, string(content), "Helvetica")
}

func TestPDFExporterImageDegradation(t *testing.T) {
	server := assetServer(t)
	path := filepath.Join(t.TempDir(), "ch.pdf")
	e := NewPDFExporter(testAssets(), offlineFonts(t), FontDejaVuSans, ImageSettings{}, testLogger())
	e.Compress = false

	unit := sampleUnit(server.URL+"/missing.png", server.URL+"/ok.png", server.URL+"/garbage.png", server.URL+"/ok.jpg")
	artifact, err := e.Export(context.Background(), unit, path)
	require.NoError(t, err)

	// one font fallback plus the two broken images
	assert.Len(t, artifact.Warnings, 3)
	assert.Equal(t, 2, artifact.SkippedImages)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(content), "/Subtype /Image"))
}

func TestPDFExporterAssemblyFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "ch.pdf")
	e := NewPDFExporter(testAssets(), offlineFonts(t), "", ImageSettings{}, testLogger())

	_, err := e.Export(context.Background(), sampleUnit(), path)
	assert.ErrorIs(t, err, ErrDocumentAssembly)
}
