package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/pkg/ui"
)

var sceneCmd = &cobra.Command{
	Use:     "scene",
	Aliases: []string{"scenes"},
	Short:   "Manage scenes and their scripts",
	Long: `Scenes are game states with their own init/update/draw functions.
Each scene gets a C skeleton in src/scenes/ and can have scripts attached,
which get their own skeletons in src/scripts/.

Build files are regenerated after every change; existing C files are never
overwritten.`,
	RunE: runSceneList,
}

var sceneNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a scene",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := getContext()
		scene, err := sceneService.Create(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println(ui.FormatSuccess(fmt.Sprintf("Created scene %d %q", scene.ID, scene.Name)))
		regenerate()
		return nil
	},
}

var sceneListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List scenes",
	Args:    cobra.NoArgs,
	RunE:    runSceneList,
}

var sceneRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a scene",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSceneID(args[0])
		if err != nil {
			return err
		}
		scene, err := sceneService.Rename(getContext(), id, args[1])
		if err != nil {
			return err
		}
		fmt.Println(ui.FormatSuccess(fmt.Sprintf("Scene %d is now %q", scene.ID, scene.Name)))
		regenerate()
		return nil
	},
}

var sceneDeleteForce bool

var sceneDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a scene (its C source is kept)",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := getContext()
		id, err := parseSceneID(args[0])
		if err != nil {
			return err
		}
		scene, err := sceneService.Get(ctx, id)
		if err != nil {
			return err
		}
		if !sceneDeleteForce && !confirm(fmt.Sprintf("Delete scene %d %q?", scene.ID, scene.Name)) {
			fmt.Println(ui.FormatInfo("Cancelled"))
			return nil
		}
		if err := sceneService.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Println(ui.FormatSuccess(fmt.Sprintf("Deleted scene %d", id)))
		fmt.Println(ui.FormatMuted("  src/scenes/" + scene.Symbol() + ".c was left in place"))
		regenerate()
		return nil
	},
}

var sceneInitialCmd = &cobra.Command{
	Use:   "initial <id>",
	Short: "Set the scene the game starts in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSceneID(args[0])
		if err != nil {
			return err
		}
		if err := sceneService.SetInitial(getContext(), id); err != nil {
			return err
		}
		fmt.Println(ui.FormatSuccess(fmt.Sprintf("Scene %d is the initial scene", id)))
		regenerate()
		return nil
	},
}

var sceneBgNoFill bool

var sceneBgCmd = &cobra.Command{
	Use:   "bg <id> <#rrggbb>",
	Short: "Set a scene's background colour",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSceneID(args[0])
		if err != nil {
			return err
		}
		scene, err := sceneService.SetBackground(getContext(), id, args[1], !sceneBgNoFill)
		if err != nil {
			return err
		}
		fmt.Println(ui.FormatSuccess(fmt.Sprintf("Scene %d background %s (fill: %t)", scene.ID, scene.BackgroundColor, scene.FillBackground)))
		regenerate()
		return nil
	},
}

var sceneScriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Attach or detach scripts",
}

var sceneScriptAddCmd = &cobra.Command{
	Use:   "add <scene-id> <name>",
	Short: "Attach a new script to a scene",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSceneID(args[0])
		if err != nil {
			return err
		}
		scene, err := sceneService.AddScript(getContext(), id, args[1])
		if err != nil {
			return err
		}
		fmt.Println(ui.FormatSuccess(fmt.Sprintf("Attached %s to scene %d", args[1], scene.ID)))
		regenerate()
		return nil
	},
}

var sceneScriptRemoveCmd = &cobra.Command{
	Use:     "remove <scene-id> <name>",
	Aliases: []string{"rm"},
	Short:   "Detach a script from a scene (its C source is kept)",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseSceneID(args[0])
		if err != nil {
			return err
		}
		scene, err := sceneService.RemoveScript(getContext(), id, args[1])
		if err != nil {
			return err
		}
		fmt.Println(ui.FormatSuccess(fmt.Sprintf("Detached %s from scene %d", args[1], scene.ID)))
		regenerate()
		return nil
	},
}

func init() {
	sceneDeleteCmd.Flags().BoolVarP(&sceneDeleteForce, "force", "f", false, "Skip confirmation")
	sceneBgCmd.Flags().BoolVar(&sceneBgNoFill, "no-fill", false, "Do not clear the screen with the colour every frame")

	sceneScriptCmd.AddCommand(sceneScriptAddCmd, sceneScriptRemoveCmd)
	sceneCmd.AddCommand(sceneNewCmd, sceneListCmd, sceneRenameCmd, sceneDeleteCmd,
		sceneInitialCmd, sceneBgCmd, sceneScriptCmd, sceneViewCmd)
}

func runSceneList(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	scenes, err := sceneService.List(ctx)
	if err != nil {
		return err
	}
	if len(scenes) == 0 {
		fmt.Println(ui.FormatWarning("No scenes yet"))
		fmt.Println(ui.FormatInfo("Create one with: nst scene new \"Title Screen\""))
		return nil
	}

	project, err := projectService.Load(ctx)
	if err != nil {
		return err
	}

	fmt.Println(ui.FormatTitle(ui.IconScene + " Scenes"))
	fmt.Println()

	table := ui.NewTable([]ui.TableColumn{
		{Header: "ID", Width: 4, Align: "right"},
		{Header: "Name", Width: 24, MaxWidth: 32, Align: "left"},
		{Header: "Background", Width: 10, Align: "left"},
		{Header: "Scripts", Width: 30, MaxWidth: 40, Align: "left"},
		{Header: "", Width: 7, Align: "left"},
	})
	for _, s := range scenes {
		bg := s.BackgroundColor
		if !s.FillBackground {
			bg += " (off)"
		}
		mark := ""
		if s.ID == project.InitialSceneID {
			mark = "initial"
		}
		table.AddRow([]string{strconv.Itoa(s.ID), s.Name, bg, strings.Join(s.Scripts, ", "), mark})
	}
	fmt.Print(table.Render())

	return nil
}

func parseSceneID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not a scene id", domain.ErrSceneNotFound, arg)
	}
	return id, nil
}

// regenerate refreshes the build files after a project change
func regenerate() {
	gen, err := codegenService.GenerateAll(getContext())
	if err != nil {
		fmt.Println(ui.FormatWarning("Build files not regenerated: " + err.Error()))
		return
	}
	created := 0
	for _, rel := range gen.Written {
		if strings.HasPrefix(rel, "src/scenes/scene_") && rel != "src/scenes/scene_table.c" && rel != "src/scenes/scene_table.h" ||
			strings.HasPrefix(rel, "src/scripts/") {
			fmt.Println(ui.FormatMuted("  created " + rel))
			created++
		}
	}
	logger.Debug("regenerated build files", "written", len(gen.Written), "skeletons", created)
}
