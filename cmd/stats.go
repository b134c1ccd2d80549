package cmd

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/nst/internal/core/services"
	"github.com/kamal-hamza/nst/pkg/ui"
)

var (
	statsChart bool
	statsOpen  bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show asset and scene statistics",
	Long: `Summarize the project: assets per type with their size on disk,
folders, scenes and scripts.

--chart writes an HTML report with the same numbers to build/stats.html.`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsChart, "chart", false, "Write an HTML chart report to build/stats.html")
	statsCmd.Flags().BoolVar(&statsOpen, "open", false, "Open the chart report after writing it")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	stats, err := statsService.Collect(ctx)
	if err != nil {
		return err
	}

	fmt.Println(ui.FormatTitle("Project Statistics"))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 4, ' ', 0)
	fmt.Fprintf(w, "%s\t%d\n", ui.StyleBold.Render("Assets:"), stats.Assets)
	fmt.Fprintf(w, "%s\t%s\n", ui.StyleBold.Render("Size on disk:"), humanize.Bytes(uint64(stats.Bytes)))
	fmt.Fprintf(w, "%s\t%d\n", ui.StyleBold.Render("Folders:"), stats.Folders)
	fmt.Fprintf(w, "%s\t%d\n", ui.StyleBold.Render("Scenes:"), stats.Scenes)
	fmt.Fprintf(w, "%s\t%d\n", ui.StyleBold.Render("Scripts:"), stats.Scripts)
	w.Flush()
	fmt.Println()

	if stats.Largest != nil {
		m := stats.Largest.Meta()
		fmt.Printf("%s %s (%s)\n", ui.StyleMuted.Render("Largest:    "), m.Name, humanize.Bytes(uint64(m.Size)))
	}
	if stats.LastImport != nil {
		m := stats.LastImport.Meta()
		fmt.Printf("%s %s (%s)\n", ui.StyleMuted.Render("Last import:"), m.Name, humanize.Time(m.ImportedAt))
	}
	if stats.Largest != nil || stats.LastImport != nil {
		fmt.Println()
	}

	renderTypeBars(stats.Types)

	if !statsChart {
		return nil
	}

	path := filepath.Join(appWorkspace.BuildPath, "stats.html")
	if err := os.MkdirAll(appWorkspace.BuildPath, 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	project, err := projectService.Load(ctx)
	if err != nil {
		return err
	}
	if err := renderStatsChart(f, project.Name, stats); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	fmt.Println()
	fmt.Println(ui.FormatSuccess("Wrote " + path))

	if statsOpen {
		return launcher.Launch(ctx, "", path)
	}
	return nil
}

// renderTypeBars displays a horizontal bar chart of assets per type
func renderTypeBars(types []services.TypeStats) {
	maxCount := 0
	for _, t := range types {
		maxCount = max(maxCount, t.Count)
	}
	if maxCount == 0 {
		fmt.Println(ui.FormatMuted("No assets imported yet"))
		return
	}

	fmt.Println(ui.StyleHeader.Render("Assets by Type"))

	barWidth := 20
	for _, t := range types {
		length := int(math.Ceil(float64(t.Count) / float64(maxCount) * float64(barWidth)))
		fmt.Printf("%s %s%s %-8s %s\n",
			ui.AssetIcon(t.Type.String()),
			ui.StyleAccent.Render(strings.Repeat("█", length)),
			strings.Repeat(" ", barWidth-length),
			t.Type,
			ui.StyleMuted.Render(fmt.Sprintf("%d  %s", t.Count, humanize.Bytes(uint64(t.Bytes)))),
		)
	}
}

// renderStatsChart writes an HTML page with a count bar chart and a size pie chart
func renderStatsChart(w io.Writer, title string, stats *services.ProjectStats) error {
	names := make([]string, 0, len(stats.Types))
	counts := make([]opts.BarData, 0, len(stats.Types))
	sizes := make([]opts.PieData, 0, len(stats.Types))
	for _, t := range stats.Types {
		names = append(names, t.Type.String())
		counts = append(counts, opts.BarData{Value: t.Count})
		if t.Bytes > 0 {
			sizes = append(sizes, opts.PieData{Name: t.Type.String(), Value: t.Bytes})
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "Assets by type"}),
	)
	bar.SetXAxis(names).AddSeries("assets", counts)

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Size on disk", Subtitle: humanize.Bytes(uint64(stats.Bytes))}),
	)
	pie.AddSeries("bytes", sizes)

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(bar, pie)
	return page.Render(w)
}
