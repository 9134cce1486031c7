package services

import (
	"context"
	"io"
	"log/slog"

	"github.com/kerbaras/novels/pkg/data"
	"github.com/kerbaras/novels/pkg/integrations"
)

type mockFetcher struct {
	fetchFunc func(ctx context.Context, id string) (*data.ChapterContent, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, id string) (*data.ChapterContent, error) {
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, id)
	}
	return data.NewChapterContent(id, []data.ContentItem{data.Text{Body: "text of " + id}}), nil
}

type mockExporter struct {
	format     data.Format
	exportFunc func(ctx context.Context, unit data.ExportUnit, path string) (*integrations.Artifact, error)
	exported   []data.ExportUnit
}

func (m *mockExporter) Format() data.Format { return m.format }
func (m *mockExporter) Extension() string   { return string(m.format) }

func (m *mockExporter) Export(ctx context.Context, unit data.ExportUnit, path string) (*integrations.Artifact, error) {
	m.exported = append(m.exported, unit)
	if m.exportFunc != nil {
		return m.exportFunc(ctx, unit, path)
	}
	return &integrations.Artifact{Path: path, Format: m.format}, nil
}

type mockRecorder struct {
	runs []*data.RunRecord
	err  error
}

func (m *mockRecorder) SaveRun(run *data.RunRecord) error {
	if m.err != nil {
		return m.err
	}
	run.ID = "run-1"
	m.runs = append(m.runs, run)
	return nil
}

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
