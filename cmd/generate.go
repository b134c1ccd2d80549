package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/nst/pkg/ui"
)

var generateVerbose bool

var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"gen"},
	Short:   "Regenerate the Makefile and C glue code",
	Long: `Writes the Makefile, src/setup.{c,h} and the scene table from the project,
scene and asset descriptors.

Scene and script skeletons and src/main.c are only created when missing;
files you have edited are never overwritten.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := codegenService.GenerateAll(getContext())
		if err != nil {
			return err
		}

		fmt.Println(ui.FormatSuccess(fmt.Sprintf("Generated %d files", len(result.Written))))
		for _, rel := range result.Written {
			fmt.Println(ui.FormatMuted("  wrote " + rel))
		}
		if generateVerbose {
			for _, rel := range result.Skipped {
				fmt.Println(ui.FormatMuted("  kept  " + rel))
			}
		} else if len(result.Skipped) > 0 {
			fmt.Println(ui.FormatMuted(fmt.Sprintf("  kept %d existing source files", len(result.Skipped))))
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().BoolVarP(&generateVerbose, "all", "a", false, "List kept source files too")
}
