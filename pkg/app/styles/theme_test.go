package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestStatusStyle(t *testing.T) {
	tests := []struct {
		status string
		want   lipgloss.TerminalColor
	}{
		{"fetching", Info},
		{"done", Success},
		{"warning", Warning},
		{"failed", Error},
		{"skipped", Error},
		{"unknown", Muted},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := StatusStyle(tt.status).GetForeground(); got != tt.want {
				t.Errorf("StatusStyle(%q) foreground = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}
