package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Fetch configures chapter retrieval.
type Fetch struct {
	Renderer                 string `toml:"renderer"`
	MaxParallel              int    `toml:"max_parallel"`
	MaxAttempts              int    `toml:"max_attempts"`
	RetryDelaySeconds        int    `toml:"retry_delay_seconds"`
	NavigationTimeoutSeconds int    `toml:"navigation_timeout_seconds"`
	SelectorTimeoutSeconds   int    `toml:"selector_timeout_seconds"`
	Selector                 string `toml:"selector"`
	RetryEmptyContent        bool   `toml:"retry_empty_content"`
	Headless                 bool   `toml:"headless"`
	BrowserBin               string `toml:"browser_bin"`
	UserAgent                string `toml:"user_agent"`
}

// Catalog configures how the catalog file is interpreted.
type Catalog struct {
	BaseURL           string `toml:"base_url"`
	SkipIllustrations bool   `toml:"skip_illustrations"`
}

// Export configures aggregation and output documents.
type Export struct {
	OutputDir           string   `toml:"output_dir"`
	Formats             []string `toml:"formats"`
	Mode                string   `toml:"mode"`
	Title               string   `toml:"title"`
	Author              string   `toml:"author"`
	Language            string   `toml:"language"`
	ImageTimeoutSeconds int      `toml:"image_timeout_seconds"`
}

// PDF configures the PDF renderer.
type PDF struct {
	Font           string `toml:"font"`
	Device         string `toml:"device"`
	FontDir        string `toml:"font_dir"`
	MaxImageWidth  int    `toml:"max_image_width"`
	MaxImageHeight int    `toml:"max_image_height"`
	Grayscale      bool   `toml:"grayscale"`
}

// History configures the run history database.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for novels.
type Config struct {
	Fetch   Fetch   `toml:"fetch"`
	Catalog Catalog `toml:"catalog"`
	Export  Export  `toml:"export"`
	PDF     PDF     `toml:"pdf"`
	History History `toml:"history"`
	Logging Logging `toml:"logging"`

	// Warnings lists values that were invalid and replaced by defaults.
	Warnings []string `toml:"-"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates and parses a configuration file. A missing file is not an
// error; defaults are used instead. The returned config is normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.Normalize(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("novels.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// SampleConfig returns the commented sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the sample configuration to path, refusing to
// overwrite an existing file.
func CreateSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists: %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// Encode renders cfg as TOML.
func (c *Config) Encode() (string, error) {
	var b strings.Builder
	enc := toml.NewEncoder(&b)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Fetch.RetryDelaySeconds) * time.Second
}

func (c *Config) NavigationTimeout() time.Duration {
	return time.Duration(c.Fetch.NavigationTimeoutSeconds) * time.Second
}

func (c *Config) SelectorTimeout() time.Duration {
	return time.Duration(c.Fetch.SelectorTimeoutSeconds) * time.Second
}

func (c *Config) ImageTimeout() time.Duration {
	return time.Duration(c.Export.ImageTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
