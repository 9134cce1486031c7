package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/kerbaras/novels/pkg/data"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previous export runs",
	Long:  "Display recorded export runs in a formatted table, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := data.OpenRepository(cfg.History.Path)
		if err != nil {
			return err
		}
		defer repo.Close()

		runs, err := repo.ListRuns(historyLimit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("📚 No runs recorded yet. Use 'novels export' to export a novel.")
			return nil
		}

		columns := []table.Column{
			{Title: "ID", Width: 8},
			{Title: "Title", Width: 30},
			{Title: "Mode", Width: 12},
			{Title: "Formats", Width: 16},
			{Title: "Fetched", Width: 9},
			{Title: "Skipped", Width: 8},
			{Title: "Finished", Width: 16},
		}

		rows := []table.Row{}
		for _, run := range runs {
			rows = append(rows, table.Row{
				data.ShortID(run.ID),
				truncateString(run.Title, 28),
				string(run.Mode),
				truncateString(formatList(run.Formats), 16),
				fmt.Sprintf("%d/%d", run.Fetched, run.Selected),
				fmt.Sprintf("%d", run.Skipped),
				run.FinishedAt.Local().Format("2006-01-02 15:04"),
			})
		}

		t := table.New(
			table.WithColumns(columns),
			table.WithRows(rows),
			table.WithFocused(false),
			table.WithHeight(len(rows)),
		)
		t.SetStyles(tableStyles())

		fmt.Printf("\n📚 History (%d runs)\n\n", len(runs))
		fmt.Println(t.View())
		fmt.Println("\nUse 'novels history show <id>' for the files and skips of a run.")
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Long:  "Show one run. The ID may be shortened to any unique prefix, such as the one listed by 'novels history'.",
	Short: "Show the files and skips of one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := data.OpenRepository(cfg.History.Path)
		if err != nil {
			return err
		}
		defer repo.Close()

		run, err := repo.GetRun(args[0])
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("no run with id %q", args[0])
		}

		fmt.Printf("\n📖 %s\n", run.Title)
		fmt.Printf("   Mode:     %s\n", run.Mode)
		fmt.Printf("   Formats:  %s\n", formatList(run.Formats))
		fmt.Printf("   Output:   %s\n", run.OutputDir)
		fmt.Printf("   Chapters: %d fetched of %d selected\n", run.Fetched, run.Selected)
		fmt.Printf("   Duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Second))

		if len(run.Artifacts) > 0 {
			fmt.Printf("\n📄 Files (%d)\n", len(run.Artifacts))
			for _, a := range run.Artifacts {
				fmt.Printf("   %-9s %s\n", a.Format, a.Path)
			}
		}
		if len(run.Skips) > 0 {
			fmt.Printf("\n⚠️  Skipped (%d)\n", len(run.Skips))
			for _, s := range run.Skips {
				fmt.Printf("   %s\n", s)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
	historyCmd.AddCommand(historyShowCmd)
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	return s
}

func formatList(formats []data.Format) string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return strings.Join(names, ",")
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
