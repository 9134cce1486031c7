package data

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
)

// Catalog is the ordered volume/chapter tree of one work.
type Catalog struct {
	Volumes []Volume
}

type catalogEntry struct {
	Volume   string   `json:"volume"`
	Chapters []string `json:"chapters"`
}

// LoadCatalog reads a catalog file. Relative chapter URLs are resolved
// against baseURL when it is non-empty.
func LoadCatalog(path, baseURL string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return ReadCatalog(f, baseURL)
}

func ReadCatalog(r io.Reader, baseURL string) (*Catalog, error) {
	var entries []catalogEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	var base *url.URL
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		base = u
	}

	catalog := &Catalog{Volumes: make([]Volume, 0, len(entries))}
	for _, e := range entries {
		vol := Volume{Name: strings.TrimSpace(e.Volume)}
		for _, ch := range e.Chapters {
			ch = strings.TrimSpace(ch)
			if ch == "" {
				continue
			}
			vol.Chapters = append(vol.Chapters, resolveURL(base, ch))
		}
		catalog.Volumes = append(catalog.Volumes, vol)
	}
	return catalog, nil
}

func resolveURL(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// Chapters returns every chapter identifier in catalog order.
func (c *Catalog) Chapters() []string {
	var out []string
	for _, v := range c.Volumes {
		out = append(out, v.Chapters...)
	}
	return out
}

// Membership maps each chapter identifier to the name of its volume. A chapter
// listed under several volumes belongs to the first one.
func (c *Catalog) Membership() map[string]string {
	m := make(map[string]string)
	for _, v := range c.Volumes {
		for _, ch := range v.Chapters {
			if _, ok := m[ch]; !ok {
				m[ch] = v.Name
			}
		}
	}
	return m
}

// Volume returns the volume with the given name.
func (c *Catalog) Volume(name string) (Volume, bool) {
	for _, v := range c.Volumes {
		if strings.EqualFold(v.Name, strings.TrimSpace(name)) {
			return v, true
		}
	}
	return Volume{}, false
}

// WithoutIllustrations drops illustration chapters and any volume left empty.
func (c *Catalog) WithoutIllustrations() *Catalog {
	out := &Catalog{}
	for _, v := range c.Volumes {
		kept := Volume{Name: v.Name}
		for _, ch := range v.Chapters {
			if IsIllustration(ch) {
				continue
			}
			kept.Chapters = append(kept.Chapters, ch)
		}
		if len(kept.Chapters) > 0 {
			out.Volumes = append(out.Volumes, kept)
		}
	}
	return out
}

// IsIllustration reports whether a chapter URL points at an illustration page.
func IsIllustration(id string) bool {
	return strings.Contains(id, "minh-hoa")
}

func (c *Catalog) Empty() bool {
	return c == nil || len(c.Chapters()) == 0
}
