package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/kerbaras/novels/pkg/app"
	"github.com/kerbaras/novels/pkg/app/styles"
	"github.com/kerbaras/novels/pkg/data"
	"github.com/kerbaras/novels/pkg/integrations"
	"github.com/kerbaras/novels/pkg/logging"
	"github.com/kerbaras/novels/pkg/services"
	"github.com/kerbaras/novels/pkg/sources"
	"github.com/kerbaras/novels/pkg/utils"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	catalogFile       string
	baseURL           string
	selection         selectionFlags
	skipIllustrations bool
	formatFlags       []string
	modeFlag          string
	maxParallel       int
	outputDir         string
	workTitle         string
	fontFlag          string
	deviceFlag        string
	rendererFlag      string
	noHistory         bool
	noTUI             bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Fetch chapters and export them",
	Long: `Fetch the selected chapters of a catalog and export them in the requested formats.

The catalog is a JSON file listing volumes and their chapter URLs:

  [{"volume": "Tập 1", "chapters": ["/truyen/x/chuong-1", "/truyen/x/chuong-2"]}]

Chapters that cannot be fetched or exported are listed in skipped.txt in the
output directory.`,
	Example: `  novels export --catalog tree.json --base-url https://docln.net --mode per-volume --format pdf,epub
  novels export --catalog tree.json --volume "Tập 1" --format text`,
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&catalogFile, "catalog", "", "catalog JSON file (required)")
	f.StringVar(&baseURL, "base-url", "", "site URL used to resolve relative chapter URLs")
	f.StringVar(&selection.chaptersFile, "chapters-file", "", "file with one chapter URL per line")
	f.StringArrayVar(&selection.chapters, "chapter", nil, "chapter URL to export (repeatable)")
	f.StringArrayVar(&selection.volumes, "volume", nil, "volume name to export (repeatable)")
	f.BoolVar(&skipIllustrations, "skip-illustrations", true, "drop illustration chapters from the catalog")
	f.StringSliceVar(&formatFlags, "format", nil, "output formats: pdf, epub, html, markdown, text")
	f.StringVar(&modeFlag, "mode", "", "aggregation: per-chapter, per-volume or whole-work")
	f.IntVar(&maxParallel, "max-parallel", 0, "chapters fetched at the same time")
	f.StringVarP(&outputDir, "out", "o", "", "output directory")
	f.StringVar(&workTitle, "title", "", "title of the work (default: catalog file name)")
	f.StringVar(&fontFlag, "font", "", "PDF font: dejavu-sans or noto-serif")
	f.StringVar(&deviceFlag, "device", "", "size PDF images for an e-reader: "+strings.Join(integrations.DeviceIDs(), ", "))
	f.StringVar(&rendererFlag, "renderer", "", "page renderer: browser or static")
	f.BoolVar(&noHistory, "no-history", false, "do not record this run in the history database")
	f.BoolVar(&noTUI, "no-tui", false, "log progress instead of drawing a progress bar")
	exportCmd.MarkFlagRequired("catalog")
}

// applyExportFlags copies explicitly set flags over the loaded configuration
// and normalizes the result.
func applyExportFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.Catalog.BaseURL = baseURL
	}
	if flags.Changed("skip-illustrations") {
		cfg.Catalog.SkipIllustrations = skipIllustrations
	}
	if flags.Changed("format") {
		cfg.Export.Formats = formatFlags
	}
	if flags.Changed("mode") {
		cfg.Export.Mode = modeFlag
	}
	if flags.Changed("max-parallel") {
		cfg.Fetch.MaxParallel = maxParallel
	}
	if flags.Changed("out") {
		cfg.Export.OutputDir = outputDir
	}
	if flags.Changed("title") {
		cfg.Export.Title = workTitle
	}
	if flags.Changed("font") {
		cfg.PDF.Font = fontFlag
	}
	if flags.Changed("device") {
		cfg.PDF.Device = deviceFlag
	}
	if flags.Changed("renderer") {
		cfg.Fetch.Renderer = rendererFlag
	}
	if noHistory {
		cfg.History.Enabled = false
	}

	if err := cfg.Normalize(); err != nil {
		return err
	}
	for _, w := range cfg.Warnings {
		logger.Warn("config", "warning", w)
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := applyExportFlags(cmd); err != nil {
		return err
	}

	catalog, err := data.LoadCatalog(catalogFile, cfg.Catalog.BaseURL)
	if err != nil {
		return err
	}
	if cfg.Catalog.SkipIllustrations {
		catalog = catalog.WithoutIllustrations()
	}
	if catalog.Empty() {
		return services.ErrEmptyCatalog
	}

	selected, err := buildSelection(catalog, selection, cfg.Catalog.BaseURL)
	if err != nil {
		return err
	}
	if cfg.Catalog.SkipIllustrations {
		selected = withoutIllustrations(selected)
	}

	title := cfg.Export.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(catalogFile), filepath.Ext(catalogFile))
	}

	useTUI := !noTUI && isatty.IsTerminal(os.Stdout.Fd())
	runLogger := logger
	if useTUI {
		// Only errors may interleave with the progress view.
		quiet, err := logging.New(logging.Options{Level: "error", Format: cfg.Logging.Format})
		if err != nil {
			return err
		}
		runLogger = quiet
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	renderer, err := newRenderer()
	if err != nil {
		return err
	}
	defer renderer.Close()

	fetcher := sources.NewFetcher(renderer, runLogger)
	fetcher.Selector = cfg.Fetch.Selector
	fetcher.MaxAttempts = cfg.Fetch.MaxAttempts
	fetcher.RetryDelay = cfg.RetryDelay()
	fetcher.RetryEmpty = cfg.Fetch.RetryEmptyContent

	pool := services.NewPool(fetcher, cfg.Fetch.MaxParallel, runLogger)

	exporters, err := newExporters(runLogger)
	if err != nil {
		return err
	}

	var recorder services.Recorder
	if cfg.History.Enabled {
		repo, err := data.OpenRepository(cfg.History.Path)
		if err != nil {
			logger.Warn("run history disabled", "path", cfg.History.Path, "error", err)
		} else {
			defer repo.Close()
			recorder = repo
		}
	}

	var ui *app.App
	if useTUI {
		ui = app.NewApp(title, cancel)
		pool.OnProgress = ui.Progress
		ui.Start()
		defer ui.Stop()
	} else {
		pool.OnProgress = func(p services.Progress) {
			if p.Status != "fetching" {
				logger.Info("progress", "url", p.ID, "status", p.Status, "done", p.Done, "total", p.Total)
			}
		}
	}

	controller := services.NewController(pool, exporters, recorder, runLogger)
	if ui != nil {
		controller.OnPhase = func(phase string) { ui.Phase("%s", phase) }
	}
	report, runErr := controller.Run(ctx, catalog, selected, services.RunConfig{
		OutputDir: cfg.Export.OutputDir,
		Title:     title,
		Mode:      cfg.Mode(),
		Formats:   cfg.Formats(),
	})

	if ui != nil {
		ui.Stop()
	}
	if report != nil {
		printReport(cmd, report)
	}
	if runErr != nil && errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("run interrupted")
	}
	return runErr
}

func newRenderer() (sources.Renderer, error) {
	if cfg.Fetch.Renderer == "static" {
		ua := cfg.Fetch.UserAgent
		if ua == "" {
			ua = utils.DefaultUserAgent
		}
		return sources.NewStaticRenderer(ua, cfg.NavigationTimeout()), nil
	}
	return sources.NewBrowserRenderer(sources.BrowserOptions{
		Headless:          cfg.Fetch.Headless,
		Bin:               cfg.Fetch.BrowserBin,
		NavigationTimeout: cfg.NavigationTimeout(),
		SelectorTimeout:   cfg.SelectorTimeout(),
	})
}

func newExporters(logger *slog.Logger) ([]integrations.Exporter, error) {
	assets := utils.NewAPI(cfg.ImageTimeout())
	opts := integrations.Options{
		Assets:   assets,
		Fonts:    integrations.NewFontCache(cfg.PDF.FontDir, assets, logger),
		Font:     cfg.PDF.Font,
		Author:   cfg.Export.Author,
		Language: cfg.Export.Language,
		Images:   cfg.ImageSettings(),
		Logger:   logger,
	}

	var out []integrations.Exporter
	for _, f := range cfg.Formats() {
		e, err := integrations.NewExporter(f, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func withoutIllustrations(ids []string) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if !data.IsIllustration(id) {
			out = append(out, id)
		}
	}
	return out
}

func printReport(cmd *cobra.Command, report *services.RunReport) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w)
	fmt.Fprintln(w, styles.StatusCompleted.Render(fmt.Sprintf("✅ Fetched %d/%d chapters, wrote %d files",
		report.Fetched, report.Selected, len(report.Artifacts))))

	images, other := reportWarnings(report)
	if images > 0 {
		fmt.Fprintln(w, styles.StatusWarning.Render(fmt.Sprintf("⚠️  %d images could not be embedded", images)))
	}
	if other > 0 {
		fmt.Fprintln(w, styles.StatusWarning.Render(fmt.Sprintf("⚠️  %d other export warnings, see the log", other)))
	}
	if report.Skips.Len() > 0 {
		fmt.Fprintln(w, styles.StatusError.Render(fmt.Sprintf("❌ %d skipped, see %s", report.Skips.Len(), report.SkipFile)))
	}
	if report.RunID != "" {
		fmt.Fprintln(w, styles.MutedStyle.Render("run "+report.RunID))
	}
}

// reportWarnings splits artifact warnings into skipped images and the rest,
// such as a PDF font fallback.
func reportWarnings(report *services.RunReport) (images, other int) {
	for _, a := range report.Artifacts {
		images += a.SkippedImages
		other += len(a.Warnings) - a.SkippedImages
	}
	return images, other
}
