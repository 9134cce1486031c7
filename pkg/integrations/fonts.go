package integrations

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	FontDejaVuSans = "dejavu-sans"
	FontNotoSerif  = "noto-serif"
)

// FontSpec names a TrueType font and where to download it from.
type FontSpec struct {
	File string
	URL  string
}

// DefaultFonts are the Unicode fonts the PDF exporter knows how to fetch.
var DefaultFonts = map[string]FontSpec{
	FontDejaVuSans: {
		File: "DejaVuSans.ttf",
		URL:  "https://github.com/dejavu-fonts/dejavu-fonts/raw/master/ttf/DejaVuSans.ttf",
	},
	FontNotoSerif: {
		File: "NotoSerif-Regular.ttf",
		URL:  "https://raw.githubusercontent.com/google/fonts/main/ofl/notoserif/NotoSerif-Regular.ttf",
	},
}

// FontCache keeps downloaded fonts in a directory shared between runs.
type FontCache struct {
	dir    string
	assets AssetFetcher
	logger *slog.Logger

	Fonts map[string]FontSpec
}

func NewFontCache(dir string, assets AssetFetcher, logger *slog.Logger) *FontCache {
	if logger == nil {
		logger = slog.Default()
	}
	fonts := make(map[string]FontSpec, len(DefaultFonts))
	for k, v := range DefaultFonts {
		fonts[k] = v
	}
	return &FontCache{dir: dir, assets: assets, logger: logger, Fonts: fonts}
}

// Load returns the font file contents, downloading it on first use.
func (c *FontCache) Load(ctx context.Context, name string) ([]byte, error) {
	path, err := c.Ensure(ctx, name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Ensure makes sure the named font exists on disk and returns its path.
// Concurrent processes sharing the directory download it only once.
func (c *FontCache) Ensure(ctx context.Context, name string) (string, error) {
	spec, ok := c.Fonts[name]
	if !ok {
		return "", fmt.Errorf("unknown font %q", name)
	}

	path := filepath.Join(c.dir, spec.File)
	if fileExists(path) {
		return path, nil
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create font directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, 200*time.Millisecond)
	if err != nil {
		return "", fmt.Errorf("failed to lock font cache: %w", err)
	}
	if !locked {
		return "", fmt.Errorf("failed to lock font cache: %s", path)
	}
	defer lock.Unlock()

	// another process may have finished the download while we waited
	if fileExists(path) {
		return path, nil
	}

	c.logger.Info("downloading font", "font", name, "url", spec.URL)
	body, err := c.assets.Get(ctx, spec.URL)
	if err != nil {
		return "", fmt.Errorf("failed to download font %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(c.dir, spec.File+".*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to store font: %w", err)
	}
	return path, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}
