package services

import (
	"path"
	"strconv"
	"strings"

	"github.com/kerbaras/novels/pkg/data"
	"github.com/kerbaras/novels/pkg/utils"
)

// Aggregate groups the successful chapters of order into export units.
// membership maps chapter ids to volume names; it is only read.
func Aggregate(order []string, outcomes map[string]data.FetchOutcome, membership map[string]string, mode data.AggregationMode, workTitle string) []data.ExportUnit {
	var chapters []*data.ChapterContent
	for _, id := range Unique(order) {
		if o, ok := outcomes[id]; ok && o.OK() {
			chapters = append(chapters, o.Content)
		}
	}

	var units []data.ExportUnit
	switch mode {
	case data.PerVolume:
		units = perVolume(chapters, membership, workTitle)
	case data.WholeWork:
		units = []data.ExportUnit{wholeWork(chapters, workTitle)}
	default:
		units = perChapter(chapters, membership)
	}
	return uniqueDestinations(units)
}

// uniqueDestinations suffixes BaseName with -2, -3, ... when a unit would be
// written over an earlier one in the same directory. Names are compared
// case-insensitively.
func uniqueDestinations(units []data.ExportUnit) []data.ExportUnit {
	taken := make(map[string]bool, len(units))
	key := func(dir, base string) string {
		return strings.ToLower(path.Join(dir, base))
	}
	for i := range units {
		base := units[i].BaseName
		for n := 2; taken[key(units[i].Dir, base)]; n++ {
			base = units[i].BaseName + "-" + strconv.Itoa(n)
		}
		units[i].BaseName = base
		taken[key(units[i].Dir, base)] = true
	}
	return units
}

func perChapter(chapters []*data.ChapterContent, membership map[string]string) []data.ExportUnit {
	units := make([]data.ExportUnit, 0, len(chapters))
	for _, ch := range chapters {
		dir := ""
		if vol := membership[ch.ID]; vol != "" {
			dir = utils.SanitizeFilename(vol)
		}
		units = append(units, data.ExportUnit{
			Title:    ch.Title,
			Dir:      dir,
			BaseName: utils.SanitizeFilename(ch.Title),
			Items:    ch.Items,
		})
	}
	return units
}

func perVolume(chapters []*data.ChapterContent, membership map[string]string, workTitle string) []data.ExportUnit {
	var names []string
	groups := make(map[string][]data.ContentItem)
	for _, ch := range chapters {
		name := membership[ch.ID]
		if name == "" {
			name = workTitle
		}
		if _, ok := groups[name]; !ok {
			names = append(names, name)
			groups[name] = nil
		}
		groups[name] = append(groups[name], ch.Items...)
	}

	units := make([]data.ExportUnit, 0, len(names))
	for _, name := range names {
		dir := utils.SanitizeFilename(name)
		if name == workTitle {
			dir = ""
		}
		units = append(units, data.ExportUnit{
			Title:    name,
			Dir:      dir,
			BaseName: utils.SanitizeFilename(name),
			Items:    groups[name],
		})
	}
	return units
}

func wholeWork(chapters []*data.ChapterContent, workTitle string) data.ExportUnit {
	var items []data.ContentItem
	for _, ch := range chapters {
		items = append(items, ch.Items...)
	}
	return data.ExportUnit{
		Title:    workTitle,
		BaseName: utils.SanitizeFilename(workTitle),
		Items:    items,
	}
}
