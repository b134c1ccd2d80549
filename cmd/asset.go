package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/pkg/ui"
)

var assetTypeFlag string

var showCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show an asset's details and where the sources load it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShow,
}

var setCmd = &cobra.Command{
	Use:   "set <name> <key=value>...",
	Short: "Change type specific settings of an asset",
	Long: `Change settings used when the asset is converted for the ROM.

  image:   slice_h, slice_v, format (RGBA16, RGBA32, CI4, CI8, I4, I8, IA4, ...), dither
  sound:   loop, loop_start, compress, mono, resample
  font:    size, range_start, range_end, outline
  general: compress

Examples:
  nst set hero slice_h=4 slice_v=2
  nst set theme loop=true loop_start=1024`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSet,
}

var moveCmd = &cobra.Command{
	Use:     "move <name> <folder>",
	Aliases: []string{"mv"},
	Short:   "Move an asset to another virtual folder (alias: mv)",
	Args:    cobra.ExactArgs(2),
	RunE:    runMove,
}

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:     "delete [name]",
	Aliases: []string{"rm"},
	Short:   "Delete an asset and its copied file (alias: rm)",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runDelete,
}

func init() {
	for _, c := range []*cobra.Command{showCmd, setCmd, moveCmd, deleteCmd} {
		c.Flags().StringVarP(&assetTypeFlag, "type", "t", "", "Asset type, when the name is shared across types")
	}
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	asset, err := selectAsset(ctx, args, assetTypeFlag)
	if errors.Is(err, errCancelled) {
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println(ui.FormatTitle(ui.AssetIcon(asset.Type().String()) + " " + asset.Meta().Name))
	fmt.Println()
	fmt.Print(assetDetails(asset))

	reg := domain.NewRegistry()
	if err := reg.Add(asset); err != nil {
		return err
	}
	usage, err := sourceService.Usage(ctx, reg)
	if err != nil {
		return err
	}

	fmt.Println()
	if len(usage) == 0 || len(usage[0].References) == 0 {
		fmt.Println(ui.FormatMuted("Not referenced by any source file"))
		return nil
	}
	fmt.Println(ui.StyleHeader.Render("Used in"))
	for _, ref := range usage[0].References {
		fmt.Printf("  %s:%d\n", ui.StyleAccent.Render(ref.File), ref.LineNum)
	}
	return nil
}

func runSet(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	t, err := parseTypeFlag(assetTypeFlag)
	if err != nil {
		return err
	}
	fields, err := parseFields(args[1:])
	if err != nil {
		return err
	}

	reg, err := assetService.Load(ctx)
	if err != nil {
		return err
	}
	target, err := assetService.Resolve(reg, t, args[0])
	if err != nil {
		return err
	}

	asset, err := assetService.Update(ctx, target.Type(), target.Meta().Name, fields)
	if err != nil {
		fmt.Println(ui.FormatError("Settings not changed"))
		return err
	}

	fmt.Println(ui.FormatSuccess("Updated " + asset.Meta().Name))
	for _, kv := range domain.AssetFields(asset) {
		if _, changed := fields[kv[0]]; changed {
			fmt.Println(ui.RenderKeyValue("  "+kv[0], kv[1]))
		}
	}
	return nil
}

func runMove(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	t, err := parseTypeFlag(assetTypeFlag)
	if err != nil {
		return err
	}
	reg, err := assetService.Load(ctx)
	if err != nil {
		return err
	}
	target, err := assetService.Resolve(reg, t, args[0])
	if err != nil {
		return err
	}

	asset, err := assetService.Move(ctx, target.Type(), target.Meta().Name, args[1])
	if err != nil {
		return err
	}

	fmt.Println(ui.FormatSuccess(fmt.Sprintf("Moved %s to %s", asset.Meta().Name, asset.Meta().DestinationFolder)))
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	target, err := selectAsset(ctx, args, assetTypeFlag)
	if errors.Is(err, errCancelled) {
		return nil
	}
	if err != nil {
		return err
	}
	m := target.Meta()

	if !deleteForce && !confirm(fmt.Sprintf("Delete %s %q and %s?", target.Type(), m.Name, m.FilePath)) {
		fmt.Println(ui.FormatInfo("Cancelled"))
		return nil
	}

	if _, err := assetService.Delete(ctx, target.Type(), m.Name); err != nil {
		fmt.Println(ui.FormatError("Failed to delete asset"))
		return err
	}

	fmt.Println(ui.FormatSuccess("Deleted " + m.Name))
	return nil
}
