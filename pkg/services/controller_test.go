package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kerbaras/novels/pkg/data"
	"github.com/kerbaras/novels/pkg/integrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *data.Catalog {
	return &data.Catalog{Volumes: []data.Volume{
		{Name: "Tập 1", Chapters: []string{"https://x/c1", "https://x/c2"}},
		{Name: "Tập 2", Chapters: []string{"https://x/c3"}},
	}}
}

func TestControllerPartialFailureIsolation(t *testing.T) {
	out := t.TempDir()
	fetcher := &mockFetcher{fetchFunc: func(ctx context.Context, id string) (*data.ChapterContent, error) {
		if id == "https://x/c2" {
			return nil, errors.New("navigation failed")
		}
		return data.NewChapterContent(id, []data.ContentItem{data.Text{Body: id}}), nil
	}}
	exporter := &mockExporter{format: data.FormatText}
	recorder := &mockRecorder{}

	c := NewController(NewPool(fetcher, 2, nopLogger()), []integrations.Exporter{exporter}, recorder, nopLogger())
	report, err := c.Run(context.Background(), testCatalog(), testCatalog().Chapters(), RunConfig{
		OutputDir: out,
		Title:     "Work",
		Mode:      data.PerChapter,
		Formats:   []data.Format{data.FormatText},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Selected)
	assert.Equal(t, 2, report.Fetched)
	assert.Len(t, report.Artifacts, 2)
	require.Equal(t, 1, report.Skips.Len())
	assert.Equal(t, "https://x/c2", report.Skips.Entries()[0].Target)

	content, err := os.ReadFile(filepath.Join(out, data.SkipFileName))
	require.NoError(t, err)
	assert.Equal(t, "https://x/c2 (error: navigation failed)\n", string(content))

	require.Len(t, recorder.runs, 1)
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, 1, recorder.runs[0].Skipped)
	assert.Len(t, recorder.runs[0].Artifacts, 2)
}

func TestControllerArtifactPaths(t *testing.T) {
	out := t.TempDir()
	text := &mockExporter{format: data.FormatText}
	md := &mockExporter{format: data.FormatMarkdown}

	c := NewController(NewPool(&mockFetcher{}, 2, nopLogger()), []integrations.Exporter{text, md}, nil, nopLogger())
	report, err := c.Run(context.Background(), testCatalog(), testCatalog().Chapters(), RunConfig{
		OutputDir: out,
		Title:     "Work",
		Mode:      data.PerVolume,
		Formats:   []data.Format{data.FormatText, data.FormatMarkdown},
	})
	require.NoError(t, err)

	var paths []string
	for _, a := range report.Artifacts {
		paths = append(paths, a.Path)
	}
	assert.Equal(t, []string{
		filepath.Join(out, "Tập 1", "Tập 1.text"),
		filepath.Join(out, "Tập 1", "Tập 1.markdown"),
		filepath.Join(out, "Tập 2", "Tập 2.text"),
		filepath.Join(out, "Tập 2", "Tập 2.markdown"),
	}, paths)

	assert.Empty(t, report.SkipFile)
	_, err = os.Stat(filepath.Join(out, data.SkipFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestControllerExportFailureRecorded(t *testing.T) {
	out := t.TempDir()
	failing := &mockExporter{
		format: data.FormatPDF,
		exportFunc: func(ctx context.Context, unit data.ExportUnit, path string) (*integrations.Artifact, error) {
			return nil, integrations.ErrDocumentAssembly
		},
	}
	text := &mockExporter{format: data.FormatText}

	c := NewController(NewPool(&mockFetcher{}, 2, nopLogger()), []integrations.Exporter{failing, text}, nil, nopLogger())
	report, err := c.Run(context.Background(), testCatalog(), []string{"https://x/c1"}, RunConfig{
		OutputDir: out,
		Title:     "Work",
		Mode:      data.WholeWork,
		Formats:   []data.Format{data.FormatPDF, data.FormatText},
	})
	require.NoError(t, err)

	assert.Len(t, report.Artifacts, 1)
	require.Equal(t, 1, report.Skips.Len())
	entry := report.Skips.Entries()[0]
	assert.Equal(t, filepath.Join(out, "Work.pdf"), entry.Target)
	assert.Contains(t, entry.Reason, "document assembly failed")
}

func TestControllerFatalInputs(t *testing.T) {
	c := NewController(NewPool(&mockFetcher{}, 1, nopLogger()), []integrations.Exporter{&mockExporter{format: data.FormatText}}, nil, nopLogger())
	cfg := RunConfig{OutputDir: t.TempDir(), Title: "Work", Mode: data.WholeWork, Formats: []data.Format{data.FormatText}}

	_, err := c.Run(context.Background(), &data.Catalog{}, []string{"a"}, cfg)
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	_, err = c.Run(context.Background(), nil, []string{"a"}, cfg)
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	_, err = c.Run(context.Background(), testCatalog(), nil, cfg)
	assert.ErrorIs(t, err, ErrEmptySelection)

	cfg.Formats = []data.Format{data.FormatEPUB}
	_, err = c.Run(context.Background(), testCatalog(), []string{"a"}, cfg)
	assert.Error(t, err)

	entries, _ := os.ReadDir(cfg.OutputDir)
	assert.Empty(t, entries)
}

func TestControllerCancelledRun(t *testing.T) {
	out := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exporter := &mockExporter{format: data.FormatText}
	c := NewController(NewPool(&mockFetcher{}, 2, nopLogger()), []integrations.Exporter{exporter}, nil, nopLogger())
	report, err := c.Run(ctx, testCatalog(), testCatalog().Chapters(), RunConfig{
		OutputDir: out,
		Title:     "Work",
		Mode:      data.WholeWork,
		Formats:   []data.Format{data.FormatText},
	})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Empty(t, exporter.exported)
	assert.Equal(t, 3, report.Skips.Len())
}

func TestControllerWholeWorkOrder(t *testing.T) {
	exporter := &mockExporter{format: data.FormatText}
	c := NewController(NewPool(&mockFetcher{}, 3, nopLogger()), []integrations.Exporter{exporter}, nil, nopLogger())

	selection := []string{"https://x/c3", "https://x/c1", "https://x/c2"}
	_, err := c.Run(context.Background(), testCatalog(), selection, RunConfig{
		OutputDir: t.TempDir(),
		Title:     "Work",
		Mode:      data.WholeWork,
		Formats:   []data.Format{data.FormatText},
	})
	require.NoError(t, err)

	require.Len(t, exporter.exported, 1)
	assert.Equal(t, []string{"text of https://x/c3", "text of https://x/c1", "text of https://x/c2"},
		texts(exporter.exported[0].Items))
}

func TestControllerReportsPhases(t *testing.T) {
	exporter := &mockExporter{format: data.FormatMarkdown}
	c := NewController(NewPool(&mockFetcher{}, 2, nopLogger()), []integrations.Exporter{exporter}, nil, nopLogger())

	var phases []string
	c.OnPhase = func(phase string) { phases = append(phases, phase) }

	_, err := c.Run(context.Background(), testCatalog(), testCatalog().Chapters(), RunConfig{
		OutputDir: t.TempDir(),
		Title:     "Work",
		Mode:      data.PerVolume,
		Formats:   []data.Format{data.FormatMarkdown},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"fetching 3 chapters", "exporting 2 files"}, phases)
}
