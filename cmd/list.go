package cmd

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/internal/core/services"
	"github.com/kamal-hamza/nst/pkg/ui"
)

var (
	listType    string
	listFolder  string
	listSortBy  string
	listReverse bool
	listTree    bool
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List assets as a table or folder tree (alias: ls)",
	Aliases: []string{"ls"},
	Long: `List all assets in a table format, or as the content browser tree.

Examples:
  nst list
  nst list --type sound
  nst list --folder /sprites --sort size --reverse
  nst list --tree`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listType, "type", "t", "", "Filter by asset type")
	listCmd.Flags().StringVarP(&listFolder, "folder", "f", "", "Only assets in this folder or below")
	listCmd.Flags().StringVar(&listSortBy, "sort", "name", "Sort by field (name, size, date, type)")
	listCmd.Flags().BoolVar(&listReverse, "reverse", false, "Reverse sort order")
	listCmd.Flags().BoolVar(&listTree, "tree", false, "Show the virtual folder tree")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	if listTree {
		root, _, err := assetService.Tree(ctx)
		if err != nil {
			return err
		}
		if listFolder != "" {
			if root = root.Folder(listFolder); root == nil {
				return fmt.Errorf("folder %s not found", domain.NormalizeFolder(listFolder))
			}
		}
		fmt.Print(renderTree(root))
		folders, leaves := root.Count()
		fmt.Println()
		fmt.Println(ui.FormatMuted(fmt.Sprintf("%d folders, %d assets", folders, leaves)))
		return nil
	}

	t, err := parseTypeFlag(listType)
	if err != nil {
		return err
	}

	resp, err := listService.Execute(ctx, services.ListRequest{
		Type:    t,
		Folder:  listFolder,
		SortBy:  listSortBy,
		Reverse: listReverse,
	})
	if err != nil {
		fmt.Println(ui.FormatError("Failed to list assets"))
		return err
	}

	if resp.Total == 0 {
		fmt.Println(ui.FormatWarning("No assets found"))
		fmt.Println(ui.FormatInfo("Import your first asset with: nst import hero.png"))
		return nil
	}

	fmt.Println(ui.FormatTitle("Assets"))
	fmt.Println()
	fmt.Print(assetTable(resp.Assets).Render())
	fmt.Println()
	fmt.Println(ui.FormatMuted(fmt.Sprintf("Total: %d assets", resp.Total)))

	return nil
}

func assetTable(assets []domain.Asset) *ui.Table {
	table := ui.NewTable([]ui.TableColumn{
		{Header: "Name", Width: 24, MaxWidth: 32, Align: "left"},
		{Header: "Type", Width: 8, Align: "left"},
		{Header: "Folder", Width: 24, MaxWidth: 32, Align: "left"},
		{Header: "Size", Width: 8, Align: "right"},
		{Header: "Imported", Width: 12, Align: "left"},
	})

	for _, a := range assets {
		m := a.Meta()
		imported := ""
		if !m.ImportedAt.IsZero() {
			imported = m.ImportedAt.Local().Format(appConfig.DateFormat)
		}
		table.AddRow([]string{
			ui.AssetIcon(a.Type().String()) + " " + m.Name,
			a.Type().String(),
			m.DestinationFolder,
			humanize.Bytes(uint64(m.Size)),
			imported,
		})
	}
	return table
}

// renderTree draws the folder tree with box drawing connectors
func renderTree(root *domain.Node) string {
	var sb strings.Builder
	sb.WriteString(ui.StyleHeader.Render(ui.AssetIcon("folder")+" "+root.Name) + "\n")
	renderChildren(&sb, root, "")
	return sb.String()
}

func renderChildren(sb *strings.Builder, n *domain.Node, prefix string) {
	for i, c := range n.Children {
		last := i == len(n.Children)-1
		connector, indent := "├── ", "│   "
		if last {
			connector, indent = "└── ", "    "
		}

		label := ui.AssetIcon(c.Type.String()) + " " + c.Name
		if c.IsFolder() {
			label = ui.StyleBold.Render(label)
		} else {
			label += ui.StyleMuted.Render(" (" + c.Type.String() + ")")
		}

		sb.WriteString(ui.StyleMuted.Render(prefix+connector) + label + "\n")
		if c.IsFolder() {
			renderChildren(sb, c, prefix+indent)
		}
	}
}

var findCopy bool

var findCmd = &cobra.Command{
	Use:     "find [query]",
	Aliases: []string{"f"},
	Short:   "Fuzzy find an asset and print its ROM path (alias: f)",
	Long: `Search assets by name, folder and original filename.

With a query the ranked matches are printed. Without one an interactive
picker opens and the chosen asset's ROM path is printed (and copied to
the clipboard with --copy).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFind,
}

func init() {
	findCmd.Flags().BoolVarP(&findCopy, "copy", "c", false, "Copy the selected ROM path to the clipboard")
}

func runFind(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	if len(args) == 1 {
		resp, err := listService.Search(ctx, services.SearchRequest{Query: args[0]})
		if err != nil {
			return err
		}
		if resp.Total == 0 {
			fmt.Println(ui.FormatWarning("No assets match: " + args[0]))
			return nil
		}
		fmt.Print(assetTable(resp.Assets).Render())
		return nil
	}

	resp, err := listService.Search(ctx, services.SearchRequest{})
	if err != nil {
		return err
	}
	asset, err := pickAsset(resp.Assets)
	if err != nil {
		if err == errCancelled {
			fmt.Println(ui.FormatInfo("Search cancelled."))
			return nil
		}
		return err
	}

	romPath := domain.RomPath(asset)
	fmt.Println(romPath)
	if findCopy {
		if err := clipboard.WriteAll(romPath); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		fmt.Println(ui.FormatInfo("Copied to clipboard"))
	}
	return nil
}
