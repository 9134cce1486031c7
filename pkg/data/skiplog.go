package data

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SkipFileName is the SkipLog artifact written at the output root.
const SkipFileName = "skipped.txt"

type SkipEntry struct {
	Target string // chapter identifier or artifact path
	Reason string
}

func (e SkipEntry) String() string {
	if e.Reason == "" {
		return e.Target
	}
	return fmt.Sprintf("%s (error: %s)", e.Target, e.Reason)
}

// SkipLog collects failed fetches and exports. It is not safe for concurrent
// use; a single owner appends to it after all fetch tasks are collected.
type SkipLog struct {
	entries []SkipEntry
}

func (l *SkipLog) Add(target string, err error) {
	reason := ""
	if err != nil {
		reason = strings.ReplaceAll(err.Error(), "\n", " ")
	}
	l.entries = append(l.entries, SkipEntry{Target: target, Reason: reason})
}

func (l *SkipLog) Entries() []SkipEntry {
	return append([]SkipEntry(nil), l.entries...)
}

func (l *SkipLog) Len() int {
	return len(l.entries)
}

func (l *SkipLog) String() string {
	var b strings.Builder
	for _, e := range l.entries {
		b.WriteString(e.String())
		b.WriteString("\n")
	}
	return b.String()
}

// WriteFile writes the log into dir when it has entries and returns the file
// path, or "" when nothing was skipped.
func (l *SkipLog) WriteFile(dir string) (string, error) {
	if l.Len() == 0 {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, SkipFileName)
	if err := os.WriteFile(path, []byte(l.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write skip log: %w", err)
	}
	return path, nil
}
