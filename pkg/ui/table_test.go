package ui

import (
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in       string
		width    int
		expected string
	}{
		{"hero", 10, "hero"},
		{"hero", 4, "hero"},
		{"hero_walk", 5, "hero…"},
		{"ÿÿÿÿÿÿ", 3, "ÿÿ…"},
	}

	for _, tt := range tests {
		if got := Truncate(tt.in, tt.width); got != tt.expected {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.expected)
		}
	}
}

func TestTable_RenderIncludesRows(t *testing.T) {
	table := NewTable([]TableColumn{
		{Header: "NAME"},
		{Header: "FOLDER", MaxWidth: 8},
	})
	table.AddRow([]string{"hero", "/sprites/player"})
	table.AddRow([]string{"theme", "/music"})

	out := table.Render()

	for _, want := range []string{"NAME", "hero", "theme", "/sprite…", "/music"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered table missing %q:\n%s", want, out)
		}
	}
	if table.Rows[0][1] != "/sprites/player" {
		t.Error("Render must not modify stored rows")
	}
}

func TestTable_Empty(t *testing.T) {
	if got := NewTable(nil).Render(); got != "" {
		t.Errorf("empty table should render nothing, got %q", got)
	}
}

func TestAssetIcon(t *testing.T) {
	if AssetIcon("folder") == AssetIcon("image") {
		t.Error("folder and image should have distinct icons")
	}
	if AssetIcon("unknown") != "•" {
		t.Errorf("unknown types fall back to a bullet, got %q", AssetIcon("unknown"))
	}
}
