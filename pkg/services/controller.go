package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kerbaras/novels/pkg/data"
	"github.com/kerbaras/novels/pkg/integrations"
)

var (
	ErrEmptyCatalog   = errors.New("catalog has no chapters")
	ErrEmptySelection = errors.New("no chapters selected")
)

// Recorder persists run summaries. data.Repository implements it.
type Recorder interface {
	SaveRun(run *data.RunRecord) error
}

type RunConfig struct {
	OutputDir string
	Title     string
	Mode      data.AggregationMode
	Formats   []data.Format
}

// RunReport summarizes a finished run.
type RunReport struct {
	RunID     string
	Selected  int
	Fetched   int
	Units     int
	Artifacts []*integrations.Artifact
	Skips     data.SkipLog
	SkipFile  string
}

// Controller drives a run: fetch every selected chapter, group the results and
// export each group in every requested format.
type Controller struct {
	pool      *Pool
	exporters map[data.Format]integrations.Exporter
	recorder  Recorder
	logger    *slog.Logger

	// OnPhase is told when the run moves to a new stage.
	OnPhase func(phase string)
}

func NewController(pool *Pool, exporters []integrations.Exporter, recorder Recorder, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	byFormat := make(map[data.Format]integrations.Exporter, len(exporters))
	for _, e := range exporters {
		byFormat[e.Format()] = e
	}
	return &Controller{pool: pool, exporters: byFormat, recorder: recorder, logger: logger}
}

// Run executes one run. Only an empty catalog or selection, an unusable
// output directory or an unknown format abort it; per-chapter and per-artifact
// failures end up in the report's SkipLog.
func (c *Controller) Run(ctx context.Context, catalog *data.Catalog, selection []string, cfg RunConfig) (*RunReport, error) {
	started := time.Now()

	if catalog.Empty() {
		return nil, ErrEmptyCatalog
	}
	selection = Unique(selection)
	if len(selection) == 0 {
		return nil, ErrEmptySelection
	}
	if len(cfg.Formats) == 0 {
		return nil, fmt.Errorf("no export formats configured")
	}
	for _, f := range cfg.Formats {
		if _, ok := c.exporters[f]; !ok {
			return nil, fmt.Errorf("no exporter for format %q", f)
		}
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	report := &RunReport{Selected: len(selection)}

	c.phase("fetching %d chapters", len(selection))
	c.logger.Info("fetching chapters", "count", len(selection), "max_parallel", c.pool.MaxParallel())
	outcomes := c.pool.RunAll(ctx, selection)

	// outcomes is complete here; the SkipLog follows selection order
	for _, id := range selection {
		o, ok := outcomes[id]
		switch {
		case !ok:
			report.Skips.Add(id, errors.New("no outcome recorded"))
		case !o.OK():
			report.Skips.Add(id, o.Err)
		default:
			report.Fetched++
		}
	}

	if err := ctx.Err(); err != nil {
		c.finish(report, cfg, started)
		return report, err
	}

	units := Aggregate(selection, outcomes, catalog.Membership(), cfg.Mode, cfg.Title)
	report.Units = len(units)
	c.phase("exporting %d files", len(units)*len(cfg.Formats))
	c.logger.Info("exporting", "units", len(units), "formats", len(cfg.Formats), "mode", cfg.Mode)

	for _, unit := range units {
		for _, format := range cfg.Formats {
			if err := ctx.Err(); err != nil {
				c.finish(report, cfg, started)
				return report, err
			}
			c.export(ctx, report, cfg.OutputDir, unit, c.exporters[format])
		}
	}

	c.finish(report, cfg, started)
	return report, nil
}

func (c *Controller) export(ctx context.Context, report *RunReport, outputDir string, unit data.ExportUnit, exporter integrations.Exporter) {
	dir := filepath.Join(outputDir, unit.Dir)
	path := filepath.Join(dir, unit.BaseName+"."+exporter.Extension())

	if err := os.MkdirAll(dir, 0755); err != nil {
		report.Skips.Add(path, err)
		return
	}

	artifact, err := exporter.Export(ctx, unit, path)
	if err != nil {
		c.logger.Error("export failed", "path", path, "format", exporter.Format(), "error", err)
		report.Skips.Add(path, err)
		os.Remove(path)
		return
	}

	c.logger.Info("exported", "path", artifact.Path, "warnings", len(artifact.Warnings))
	report.Artifacts = append(report.Artifacts, artifact)
}

func (c *Controller) phase(format string, args ...any) {
	if c.OnPhase != nil {
		c.OnPhase(fmt.Sprintf(format, args...))
	}
}

// finish writes the SkipLog and records the run.
func (c *Controller) finish(report *RunReport, cfg RunConfig, started time.Time) {
	path, err := report.Skips.WriteFile(cfg.OutputDir)
	if err != nil {
		c.logger.Error("failed to write skip log", "error", err)
	}
	report.SkipFile = path

	if c.recorder == nil {
		return
	}

	record := &data.RunRecord{
		Title:      cfg.Title,
		Mode:       cfg.Mode,
		Formats:    cfg.Formats,
		OutputDir:  cfg.OutputDir,
		Selected:   report.Selected,
		Fetched:    report.Fetched,
		Skipped:    report.Skips.Len(),
		StartedAt:  started,
		FinishedAt: time.Now(),
		Skips:      report.Skips.Entries(),
	}
	for _, a := range report.Artifacts {
		record.Artifacts = append(record.Artifacts, data.ArtifactRecord{Path: a.Path, Format: a.Format})
	}

	if err := c.recorder.SaveRun(record); err != nil {
		c.logger.Warn("failed to record run history", "error", err)
		return
	}
	report.RunID = record.ID
}
