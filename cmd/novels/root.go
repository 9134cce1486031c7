package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kerbaras/novels/pkg/config"
	"github.com/kerbaras/novels/pkg/logging"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "novels",
	Short: "Scrape serialized novels into PDF, EPUB, HTML, Markdown and text",
	Long: `novels fetches the chapters of a serialized web novel with a headless browser,
extracts their text and illustrations, and exports them per chapter, per volume
or as one whole-work document.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/novels/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, _, _, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.Logging.Level = logLevel
	}

	l, err := logging.New(logging.Options{Level: loaded.Logging.Level, Format: loaded.Logging.Format})
	if err != nil {
		return err
	}
	for _, w := range loaded.Warnings {
		l.Warn("config", "warning", w)
	}

	cfg = loaded
	logger = l
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
