package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/nst/pkg/ui"
)

var projectCmd = &cobra.Command{
	Use:     "project",
	Aliases: []string{"settings"},
	Short:   "Show and change project settings",
	Long: `Project settings live in project.json and are addressed by dotted keys:

  name, rom_name, title, initial_scene_id
  modules.<name>          true/false
  display.width|height|bit_depth|buffers|gamma|filters
  memory.heap_kb|expansion_pak
  toolchain.emulator|editor|build_jobs

Changes are validated before they are written, and the build files are
regenerated afterwards.`,
	Args: cobra.NoArgs,
	RunE: runProjectShow,
}

var projectShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show all settings",
	Args:  cobra.NoArgs,
	RunE:  runProjectShow,
}

var projectGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := projectService.Get(getContext(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	},
}

var projectSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Example: `  nst project set title "Space Rocks"
  nst project set modules.audio true
  nst project set display.width 640`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := projectService.Set(getContext(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Println(ui.FormatSuccess(fmt.Sprintf("%s = %s", args[0], args[1])))
		regenerate()
		return nil
	},
}

func init() {
	projectCmd.AddCommand(projectShowCmd, projectGetCmd, projectSetCmd)
}

func runProjectShow(cmd *cobra.Command, args []string) error {
	project, err := projectService.Load(getContext())
	if err != nil {
		return err
	}

	fmt.Println(ui.FormatTitle(project.Name))
	fmt.Println(ui.FormatMuted(appWorkspace.RootPath))

	section := ""
	for _, kv := range project.Settings() {
		head, _, nested := strings.Cut(kv[0], ".")
		if !nested {
			head = ""
		}
		if head != section {
			section = head
			fmt.Println()
			fmt.Println(ui.StyleHeader.Render(section))
		}
		fmt.Println(ui.RenderKeyValue(kv[0], kv[1]))
	}

	if err := project.Validate(); err != nil {
		fmt.Println()
		fmt.Println(ui.FormatWarning(err.Error()))
	}
	return nil
}
