package config

import (
	"fmt"
	"strings"

	"github.com/kerbaras/novels/pkg/data"
	"github.com/kerbaras/novels/pkg/integrations"
	"github.com/kerbaras/novels/pkg/services"
)

// Normalize expands paths and replaces unusable values with their defaults.
// Every replacement is recorded in c.Warnings. Only path expansion failures
// are returned as errors.
func (c *Config) Normalize() error {
	c.Warnings = nil
	c.normalizeFetch()
	c.normalizeExport()
	c.normalizePDF()
	c.normalizeLogging()
	return c.normalizePaths()
}

func (c *Config) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func (c *Config) normalizeFetch() {
	c.Fetch.Renderer = strings.ToLower(strings.TrimSpace(c.Fetch.Renderer))
	switch c.Fetch.Renderer {
	case "browser", "static":
	default:
		c.warnf("fetch.renderer: unsupported value %q, using %q", c.Fetch.Renderer, defaultRenderer)
		c.Fetch.Renderer = defaultRenderer
	}
	if c.Fetch.MaxParallel < 1 {
		c.warnf("fetch.max_parallel: %d is not a positive number, using %d", c.Fetch.MaxParallel, services.DefaultMaxParallel)
		c.Fetch.MaxParallel = services.DefaultMaxParallel
	}
	if c.Fetch.MaxAttempts < 1 {
		c.warnf("fetch.max_attempts: %d is not a positive number, using %d", c.Fetch.MaxAttempts, defaultMaxAttempts)
		c.Fetch.MaxAttempts = defaultMaxAttempts
	}
	if c.Fetch.RetryDelaySeconds < 0 {
		c.warnf("fetch.retry_delay_seconds: negative value, using %d", defaultRetryDelaySeconds)
		c.Fetch.RetryDelaySeconds = defaultRetryDelaySeconds
	}
	if c.Fetch.NavigationTimeoutSeconds <= 0 {
		c.Fetch.NavigationTimeoutSeconds = defaultNavigationTimeoutSeconds
	}
	if c.Fetch.SelectorTimeoutSeconds <= 0 {
		c.Fetch.SelectorTimeoutSeconds = defaultSelectorTimeoutSeconds
	}
	c.Fetch.Selector = strings.TrimSpace(c.Fetch.Selector)
	if c.Fetch.Selector == "" {
		c.Fetch.Selector = Default().Fetch.Selector
	}
}

func (c *Config) normalizeExport() {
	var formats []string
	seen := make(map[data.Format]bool)
	for _, raw := range c.Export.Formats {
		f, err := data.ParseFormat(raw)
		if err != nil {
			c.warnf("export.formats: ignoring %q", raw)
			continue
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, string(f))
		}
	}
	if len(formats) == 0 {
		c.warnf("export.formats: no usable format, exporting all")
		formats = defaultFormats()
	}
	c.Export.Formats = formats

	mode, err := data.ParseAggregationMode(c.Export.Mode)
	if err != nil {
		c.warnf("export.mode: unsupported value %q, using %q", c.Export.Mode, defaultMode)
		mode = data.PerChapter
	}
	c.Export.Mode = string(mode)

	if strings.TrimSpace(c.Export.OutputDir) == "" {
		c.Export.OutputDir = defaultOutputDir
	}
	if strings.TrimSpace(c.Export.Author) == "" {
		c.Export.Author = integrations.DefaultAuthor
	}
	if strings.TrimSpace(c.Export.Language) == "" {
		c.Export.Language = integrations.DefaultLanguage
	}
	if c.Export.ImageTimeoutSeconds <= 0 {
		c.Export.ImageTimeoutSeconds = defaultImageTimeoutSeconds
	}
}

func (c *Config) normalizePDF() {
	c.PDF.Font = strings.ToLower(strings.TrimSpace(c.PDF.Font))
	if _, ok := integrations.DefaultFonts[c.PDF.Font]; !ok {
		c.warnf("pdf.font: unknown font %q, using %q", c.PDF.Font, defaultFont)
		c.PDF.Font = defaultFont
	}
	c.PDF.Device = strings.ToLower(strings.TrimSpace(c.PDF.Device))
	if c.PDF.Device != "" {
		if _, ok := integrations.GetDeviceProfile(c.PDF.Device); !ok {
			c.warnf("pdf.device: unknown device %q, ignoring", c.PDF.Device)
			c.PDF.Device = ""
		}
	}
	if strings.TrimSpace(c.PDF.FontDir) == "" {
		c.PDF.FontDir = defaultFontDir
	}
	if c.PDF.MaxImageWidth < 0 {
		c.PDF.MaxImageWidth = 0
	}
	if c.PDF.MaxImageHeight < 0 {
		c.PDF.MaxImageHeight = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	case "":
		c.Logging.Level = defaultLogLevel
	default:
		c.warnf("logging.level: unsupported value %q, using %q", c.Logging.Level, defaultLogLevel)
		c.Logging.Level = defaultLogLevel
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "console", "json":
	case "":
		c.Logging.Format = defaultLogFormat
	default:
		c.warnf("logging.format: unsupported value %q, using %q", c.Logging.Format, defaultLogFormat)
		c.Logging.Format = defaultLogFormat
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Export.OutputDir, err = expandPath(c.Export.OutputDir); err != nil {
		return fmt.Errorf("export.output_dir: %w", err)
	}
	if c.PDF.FontDir, err = expandPath(c.PDF.FontDir); err != nil {
		return fmt.Errorf("pdf.font_dir: %w", err)
	}
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

// ImageSettings returns the PDF image limits, taken from the device preset
// when one is configured.
func (c *Config) ImageSettings() integrations.ImageSettings {
	if d, ok := integrations.GetDeviceProfile(c.PDF.Device); ok {
		return d.ImageSettings()
	}
	return integrations.ImageSettings{
		MaxWidth:  c.PDF.MaxImageWidth,
		MaxHeight: c.PDF.MaxImageHeight,
		Grayscale: c.PDF.Grayscale,
	}
}

// Formats returns the configured export formats.
func (c *Config) Formats() []data.Format {
	out := make([]data.Format, 0, len(c.Export.Formats))
	for _, raw := range c.Export.Formats {
		if f, err := data.ParseFormat(raw); err == nil {
			out = append(out, f)
		}
	}
	return out
}

// Mode returns the configured aggregation mode.
func (c *Config) Mode() data.AggregationMode {
	mode, err := data.ParseAggregationMode(c.Export.Mode)
	if err != nil {
		return data.PerChapter
	}
	return mode
}
