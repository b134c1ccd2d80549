package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	fuzzyfinder "github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/nst/pkg/ui"
)

var grepCmd = &cobra.Command{
	Use:     "grep [query]",
	Aliases: []string{"g"},
	Short:   "Search the C sources (alias: g)",
	Long: `Search through every source file under src/ with a fuzzy finder and open
the selected line in your editor.

With a query, only lines containing it (case insensitive) are offered.

Examples:
  nst grep
  nst grep rom:/`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGrep,
}

func runGrep(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	query := ""
	if len(args) == 1 {
		query = args[0]
	}

	matches, err := sourceService.Grep(ctx, query)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		if query == "" {
			fmt.Println(ui.FormatWarning("No source files found. Run 'nst generate' first."))
		} else {
			fmt.Println(ui.FormatWarning("No lines match: " + query))
		}
		return nil
	}

	idx, err := fuzzyfinder.Find(
		matches,
		func(i int) string {
			m := matches[i]
			return fmt.Sprintf("%s:%d  %s", m.File, m.LineNum, strings.TrimSpace(m.Content))
		},
		fuzzyfinder.WithPromptString("src> "),
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			m := matches[i]
			return generatePreview(appWorkspace.Abs(m.File), m.LineNum, h/2)
		}),
	)
	if err != nil {
		fmt.Println(ui.FormatInfo("Search cancelled."))
		return nil
	}

	selected := matches[idx]
	fmt.Printf("Opening %s at line %d...\n", selected.File, selected.LineNum)
	return openAtLine(ctx, appWorkspace.Abs(selected.File), selected.LineNum)
}

// generatePreview reads the file on demand to show context around the match
func generatePreview(path string, targetLine, contextLines int) string {
	file, err := os.Open(path)
	if err != nil {
		return "Failed to read file"
	}
	defer file.Close()

	contextLines = max(contextLines, 3)
	startLine := targetLine - contextLines
	endLine := targetLine + contextLines

	var sb strings.Builder
	scanner := bufio.NewScanner(file)
	currentLine := 0
	for scanner.Scan() {
		currentLine++
		if currentLine < startLine {
			continue
		}
		if currentLine > endLine {
			break
		}

		prefix := fmt.Sprintf("%4d  ", currentLine)
		style := ui.StyleMuted
		if currentLine == targetLine {
			prefix = fmt.Sprintf("%4d >", currentLine)
			style = ui.StyleBold
		}
		sb.WriteString(style.Render(prefix+scanner.Text()) + "\n")
	}

	return sb.String()
}
