package cmd

import (
	"bytes"
	"testing"

	"github.com/kerbaras/novels/pkg/config"
	"github.com/kerbaras/novels/pkg/data"
	"github.com/kerbaras/novels/pkg/integrations"
	"github.com/kerbaras/novels/pkg/logging"
	"github.com/kerbaras/novels/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyExportFlagsOverridesOnlyChangedFlags(t *testing.T) {
	c := config.Default()
	cfg = &c
	logger = logging.NewNop()
	cfg.Fetch.MaxParallel = 3
	cfg.Export.Title = "From Config"

	out := t.TempDir()
	flags := exportCmd.Flags()
	require.NoError(t, flags.Set("format", "md,epub"))
	require.NoError(t, flags.Set("mode", "volume"))
	require.NoError(t, flags.Set("out", out))
	require.NoError(t, flags.Set("renderer", "static"))

	require.NoError(t, applyExportFlags(exportCmd))

	assert.Equal(t, []data.Format{data.FormatMarkdown, data.FormatEPUB}, cfg.Formats())
	assert.Equal(t, data.PerVolume, cfg.Mode())
	assert.Equal(t, out, cfg.Export.OutputDir)
	assert.Equal(t, "static", cfg.Fetch.Renderer)
	assert.Equal(t, 3, cfg.Fetch.MaxParallel)
	assert.Equal(t, "From Config", cfg.Export.Title)
}

func TestWithoutIllustrations(t *testing.T) {
	ids := []string{"https://ex.com/c1", "https://ex.com/minh-hoa", "https://ex.com/c2"}
	assert.Equal(t, []string{"https://ex.com/c1", "https://ex.com/c2"}, withoutIllustrations(ids))
	assert.Len(t, ids, 3)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "Chuyện...", truncateString("Chuyện tình", 9))
	assert.Equal(t, "ab", truncateString("abcdef", 2))
}

func TestFormatList(t *testing.T) {
	assert.Equal(t, "pdf,epub", formatList([]data.Format{data.FormatPDF, data.FormatEPUB}))
	assert.Equal(t, "", formatList(nil))
}

func TestReportWarningsSeparatesImages(t *testing.T) {
	report := &services.RunReport{Artifacts: []*integrations.Artifact{
		{Warnings: []string{"using fallback font instead of dejavu-sans: offline"}},
		{Warnings: []string{"skipping image a", "skipping image b"}, SkippedImages: 2},
		{},
	}}

	images, other := reportWarnings(report)
	assert.Equal(t, 2, images)
	assert.Equal(t, 1, other)
}

func TestPrintReportCountsOnlySkippedImages(t *testing.T) {
	report := &services.RunReport{
		Selected: 2,
		Fetched:  2,
		Artifacts: []*integrations.Artifact{
			{Warnings: []string{"using fallback font instead of dejavu-sans: offline"}},
		},
	}

	var out bytes.Buffer
	exportCmd.SetOut(&out)
	defer exportCmd.SetOut(nil)
	printReport(exportCmd, report)

	assert.NotContains(t, out.String(), "images could not be embedded")
	assert.Contains(t, out.String(), "1 other export warnings")
}
