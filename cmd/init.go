package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/nst/internal/core/services"
	"github.com/kamal-hamza/nst/pkg/ui"
	"github.com/kamal-hamza/nst/pkg/workspace"
)

var (
	initGit   bool
	initScene string
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init <name> [directory]",
	Short: "Create a new N64 project",
	Long: `Create a new project in the given directory (default: the current directory).

This creates the following structure:
  - project.json : Project settings (modules, display, memory)
  - assets/      : Imported source files, grouped by type
  - src/         : Generated and hand written C sources
  - .nst/        : Asset and scene descriptors
  - Makefile     : Generated libdragon build file

Examples:
  nst init "Space Blaster"
  nst init "Space Blaster" ./space-blaster --git`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initGit, "git", false, "Initialize a git repository and commit the new project")
	initCmd.Flags().StringVar(&initScene, "scene", "Main", "Name of the first scene (empty for none)")
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	dir := projectDir
	if len(args) > 1 {
		dir = args[1]
	}
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		dir = cwd
	}

	ws, err := workspace.New(dir)
	if err != nil {
		return err
	}
	if ws.Exists() {
		fmt.Println(ui.FormatWarning("Project already initialized"))
		fmt.Println(ui.FormatMuted("Location: " + ws.RootPath))
		return nil
	}

	fmt.Println(ui.FormatRocket("Creating project..."))
	fmt.Println()

	wire(ws, appConfig, 0)

	project, err := projectService.Create(ctx, args[0])
	if err != nil {
		fmt.Println(ui.FormatError("Failed to create project"))
		return err
	}

	if initScene != "" {
		if _, err := sceneService.Create(ctx, initScene); err != nil {
			fmt.Println(ui.FormatWarning("Failed to create first scene: " + err.Error()))
		}
	}

	gen, err := codegenService.GenerateAll(ctx)
	if err != nil {
		fmt.Println(ui.FormatWarning("Failed to generate sources: " + err.Error()))
	} else {
		fmt.Println(ui.FormatSuccess(fmt.Sprintf("Generated %d files", len(gen.Written))))
	}

	if err := createDefaultConfig(); err != nil {
		fmt.Println(ui.FormatWarning("Failed to create default config: " + err.Error()))
	}

	if initGit {
		git := services.NewGitService(ws.RootPath)
		if !git.Available() {
			fmt.Println(ui.FormatWarning("git not found, skipping repository setup"))
		} else if err := git.Init(ctx); err != nil {
			fmt.Println(ui.FormatWarning("git init failed: " + err.Error()))
		} else if _, err := git.Snapshot(ctx, "Create "+project.Name); err != nil {
			fmt.Println(ui.FormatWarning("Initial commit failed: " + err.Error()))
		} else {
			fmt.Println(ui.FormatSuccess("Git repository initialized"))
		}
	}

	fmt.Println(ui.FormatSuccess("Project created successfully!"))
	fmt.Println()
	fmt.Println(ui.RenderKeyValue("Name", project.Name))
	fmt.Println(ui.RenderKeyValue("ROM", project.RomName+".z64"))
	fmt.Println(ui.RenderKeyValue("Location", ws.RootPath))
	fmt.Println()
	fmt.Println(ui.FormatInfo("Next steps:"))
	fmt.Println(ui.FormatMuted("  1. Import an asset:   nst import hero.png --folder /sprites"))
	fmt.Println(ui.FormatMuted("  2. Enable modules:    nst project set modules.audio true"))
	fmt.Println(ui.FormatMuted("  3. Build the ROM:     nst build"))
	fmt.Println(ui.FormatMuted("  4. Run it:            nst run"))

	return nil
}

// createDefaultConfig writes the user config with defaults unless one exists
func createDefaultConfig() error {
	if _, err := os.Stat(appConfigPath); err == nil {
		return nil
	}
	return appConfig.Save(appConfigPath)
}
