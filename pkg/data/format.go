package data

import (
	"fmt"
	"strings"
)

// Format identifies one of the document renderers.
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatEPUB     Format = "epub"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// AllFormats lists every supported format in export order.
var AllFormats = []Format{FormatPDF, FormatEPUB, FormatHTML, FormatMarkdown, FormatText}

// ParseFormat accepts the canonical names plus a few common aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pdf":
		return FormatPDF, nil
	case "epub":
		return FormatEPUB, nil
	case "html", "htm":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt", "plain":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// AggregationMode selects how chapters are merged into export units.
type AggregationMode string

const (
	PerChapter AggregationMode = "per-chapter"
	PerVolume  AggregationMode = "per-volume"
	WholeWork  AggregationMode = "whole-work"
)

func ParseAggregationMode(s string) (AggregationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "per-chapter", "chapter", "1":
		return PerChapter, nil
	case "per-volume", "volume", "2":
		return PerVolume, nil
	case "whole-work", "work", "all", "3":
		return WholeWork, nil
	}
	return "", fmt.Errorf("unknown aggregation mode %q", s)
}
