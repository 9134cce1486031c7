package cmd

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/kerbaras/novels/pkg/data"
)

type selectionFlags struct {
	chaptersFile string
	chapters     []string
	volumes      []string
}

// buildSelection resolves the chapter selection in priority order: an
// explicit chapter list file, then --chapter and --volume flags, then the
// whole catalog.
func buildSelection(catalog *data.Catalog, flags selectionFlags, baseURL string) ([]string, error) {
	if flags.chaptersFile != "" {
		f, err := os.Open(flags.chaptersFile)
		if err != nil {
			return nil, fmt.Errorf("open chapter list: %w", err)
		}
		defer f.Close()
		return readChapterList(f, baseURL)
	}

	var selection []string
	for _, name := range flags.volumes {
		vol, ok := catalog.Volume(name)
		if !ok {
			return nil, fmt.Errorf("unknown volume %q", name)
		}
		selection = append(selection, vol.Chapters...)
	}
	for _, ch := range flags.chapters {
		selection = append(selection, resolveChapter(ch, baseURL))
	}
	if len(flags.volumes) > 0 || len(flags.chapters) > 0 {
		return selection, nil
	}

	return catalog.Chapters(), nil
}

// readChapterList reads one chapter URL per line, skipping blanks and
// '#' comments.
func readChapterList(r io.Reader, baseURL string) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, resolveChapter(line, baseURL))
	}
	return out, scanner.Err()
}

func resolveChapter(ref, baseURL string) string {
	if baseURL == "" {
		return ref
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
