package config

import (
	"github.com/kerbaras/novels/pkg/data"
	"github.com/kerbaras/novels/pkg/integrations"
	"github.com/kerbaras/novels/pkg/services"
	"github.com/kerbaras/novels/pkg/sources"
)

const (
	defaultConfigPath               = "~/.config/novels/config.toml"
	defaultRenderer                 = "browser"
	defaultMaxAttempts              = sources.DefaultMaxAttempts
	defaultRetryDelaySeconds        = 5
	defaultNavigationTimeoutSeconds = 60
	defaultSelectorTimeoutSeconds   = 30
	defaultOutputDir                = "./output"
	defaultMode                     = string(data.PerChapter)
	defaultImageTimeoutSeconds      = 30
	defaultFont                     = integrations.FontDejaVuSans
	defaultFontDir                  = "~/.cache/novels/fonts"
	defaultMaxImageWidth            = 1600
	defaultMaxImageHeight           = 2400
	defaultHistoryPath              = "~/.local/share/novels/history.db"
	defaultLogLevel                 = "info"
	defaultLogFormat                = "console"
)

func defaultFormats() []string {
	out := make([]string, len(data.AllFormats))
	for i, f := range data.AllFormats {
		out[i] = string(f)
	}
	return out
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Fetch: Fetch{
			Renderer:                 defaultRenderer,
			MaxParallel:              services.DefaultMaxParallel,
			MaxAttempts:              defaultMaxAttempts,
			RetryDelaySeconds:        defaultRetryDelaySeconds,
			NavigationTimeoutSeconds: defaultNavigationTimeoutSeconds,
			SelectorTimeoutSeconds:   defaultSelectorTimeoutSeconds,
			Selector:                 sources.DefaultSelector,
			Headless:                 true,
		},
		Catalog: Catalog{
			SkipIllustrations: true,
		},
		Export: Export{
			OutputDir:           defaultOutputDir,
			Formats:             defaultFormats(),
			Mode:                defaultMode,
			Author:              integrations.DefaultAuthor,
			Language:            integrations.DefaultLanguage,
			ImageTimeoutSeconds: defaultImageTimeoutSeconds,
		},
		PDF: PDF{
			Font:           defaultFont,
			FontDir:        defaultFontDir,
			MaxImageWidth:  defaultMaxImageWidth,
			MaxImageHeight: defaultMaxImageHeight,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
