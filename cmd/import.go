package cmd

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/internal/core/services"
	"github.com/kamal-hamza/nst/pkg/ui"
)

var (
	importType   string
	importName   string
	importFolder string
	importSet    []string
)

var importCmd = &cobra.Command{
	Use:     "import <file>...",
	Aliases: []string{"add"},
	Short:   "Import source files as assets (alias: add)",
	Long: `Copy files into the project's assets/ directory and register them.

The asset type is inferred from the extension unless --type is given:
  image   .png .bmp .jpg .webp .tiff   -> mksprite
  sound   .wav .mp3 .aiff .xm .ym      -> audioconv64
  font    .ttf .otf .bdf               -> mkfont
  tiled   .tmx .tmj
  ldtk    .ldtk
  general anything else

Type specific settings can be given with --set, for example
  nst import hero.png --folder /sprites/player --set slice_h=4 --set format=CI4

After a single import the asset's ROM path is copied to the clipboard
(disable with copy_to_clipboard: false).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importType, "type", "t", "", "Asset type (image, sound, font, tiled, ldtk, general)")
	importCmd.Flags().StringVarP(&importName, "name", "n", "", "Asset name (default: derived from the filename)")
	importCmd.Flags().StringVarP(&importFolder, "folder", "f", "", "Virtual destination folder (default from config)")
	importCmd.Flags().StringArrayVarP(&importSet, "set", "s", nil, "Type specific setting key=value (repeatable)")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	if importName != "" && len(args) > 1 {
		return errors.New("--name can only be used when importing a single file")
	}

	t, err := parseTypeFlag(importType)
	if err != nil {
		return err
	}
	fields, err := parseFields(importSet)
	if err != nil {
		return err
	}

	folder := importFolder
	if !cmd.Flags().Changed("folder") {
		folder = appConfig.DefaultAssetFolder
	}

	var imported []domain.Asset
	var failed int
	for _, src := range args {
		resp, err := assetService.Import(ctx, services.ImportRequest{
			SourcePath: src,
			Type:       t,
			Name:       importName,
			Folder:     folder,
			Fields:     fields,
		})
		if err != nil {
			fmt.Println(ui.FormatError(fmt.Sprintf("%s: %v", src, err)))
			failed++
			continue
		}

		a := resp.Asset
		m := a.Meta()
		fmt.Println(ui.FormatSuccess(fmt.Sprintf("Imported %s %s", ui.AssetIcon(a.Type().String()), m.Name)))
		fmt.Println(ui.FormatMuted(fmt.Sprintf("  %s  %s  %s", m.FilePath, m.DestinationFolder, humanize.Bytes(uint64(m.Size)))))
		imported = append(imported, a)
	}

	if len(imported) == 1 && appConfig.CopyToClipboard {
		romPath := domain.RomPath(imported[0])
		if err := clipboard.WriteAll(romPath); err == nil {
			fmt.Println(ui.FormatInfo("Copied " + romPath + " to clipboard"))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d imports failed", failed, len(args))
	}
	return nil
}
