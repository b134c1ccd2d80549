package cmd

import (
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/nst/internal/adapters/toolchain"
	"github.com/kamal-hamza/nst/internal/core/domain"
	"github.com/kamal-hamza/nst/pkg/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the project and the toolchain",
	Long: `Diagnose issues with the project and its build environment.

Checks for:
  - Build tool, emulator and git on PATH
  - The libdragon SDK location
  - Invalid project settings and a missing initial scene
  - Asset files that are missing or changed since import
  - rom:/ paths in the sources that no asset produces
  - Assets no source file loads`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

var romRefRe = regexp.MustCompile(`rom:/[A-Za-z0-9_./-]+`)

func runDoctor(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	fmt.Println(ui.FormatTitle("🩺 NST Doctor"))
	fmt.Println()

	checkStep(appConfig.BuildTool+" (Build)", func() error {
		if !toolchain.IsAvailable(appConfig.BuildTool) {
			return fmt.Errorf("not found in PATH")
		}
		return nil
	})

	checkStep("libdragon SDK", func() error {
		sdk := appConfig.SDKPath
		if sdk == "" {
			if env, err := toolchain.Environment(appWorkspace, appConfig); err == nil {
				sdk = lookupEnv(env, "N64_INST")
			}
		}
		if sdk == "" {
			return fmt.Errorf("N64_INST is not set (set sdk_path in the config or N64_INST in .env)")
		}
		if info, err := os.Stat(sdk); err != nil || !info.IsDir() {
			return fmt.Errorf("%s is not a directory", sdk)
		}
		return nil
	})

	project, projectErr := projectService.Load(ctx)

	checkStep("Emulator (Run)", func() error {
		emulator := appConfig.Emulator
		if projectErr == nil && project.Toolchain.Emulator != "" {
			emulator = project.Toolchain.Emulator
		}
		if emulator == "" {
			return fmt.Errorf("not configured")
		}
		if !toolchain.IsAvailable(emulator) {
			return fmt.Errorf("%s not found in PATH", emulator)
		}
		return nil
	})

	checkStep("git (Snapshot)", func() error {
		if !toolchain.IsAvailable("git") {
			return fmt.Errorf("not found (required for 'nst snapshot')")
		}
		return nil
	})

	fmt.Println()
	fmt.Println(ui.FormatInfo("Checking project..."))

	checkStep("Project Settings", func() error {
		if projectErr != nil {
			return projectErr
		}
		return project.Validate()
	})

	checkStep("Initial Scene", func() error {
		if projectErr != nil {
			return projectErr
		}
		scenes, err := sceneService.List(ctx)
		if err != nil {
			return err
		}
		if len(scenes) == 0 {
			return fmt.Errorf("project has no scenes")
		}
		if _, err := sceneService.Get(ctx, project.InitialSceneID); err != nil {
			return fmt.Errorf("initial scene %d does not exist", project.InitialSceneID)
		}
		return nil
	})

	reg, regErr := assetService.Load(ctx)

	checkStep("Asset Files", func() error {
		if regErr != nil {
			return regErr
		}
		problems, err := assetService.Verify(ctx, reg)
		if err != nil {
			return err
		}
		for _, p := range problems {
			fmt.Printf("    %s\n", p)
		}
		if len(problems) > 0 {
			return fmt.Errorf("%d assets missing or modified since import", len(problems))
		}
		return nil
	})

	checkStep("ROM Paths", func() error {
		if regErr != nil {
			return regErr
		}
		known := make(map[string]bool, reg.Len())
		for _, a := range reg.All() {
			known[domain.RomPath(a)] = true
		}

		matches, err := sourceService.Grep(ctx, "rom:/")
		if err != nil {
			return err
		}
		broken := 0
		for _, m := range matches {
			for _, ref := range romRefRe.FindAllString(m.Content, -1) {
				if !known[ref] {
					fmt.Printf("    %s:%d -> %s (missing)\n", m.File, m.LineNum, ref)
					broken++
				}
			}
		}
		if broken > 0 {
			return fmt.Errorf("found %d references to assets that do not exist", broken)
		}
		return nil
	})

	checkStep("Unused Assets", func() error {
		if regErr != nil {
			return regErr
		}
		usage, err := sourceService.Usage(ctx, reg)
		if err != nil {
			return err
		}
		unused := 0
		for _, u := range usage {
			if len(u.References) == 0 {
				fmt.Printf("    %s\n", domain.RomPath(u.Asset))
				unused++
			}
		}
		if unused > 0 {
			return fmt.Errorf("%d assets are never loaded (they still take ROM space)", unused)
		}
		return nil
	})

	return nil
}

// checkStep runs a check function and prints the result
func checkStep(name string, check func() error) {
	err := check()
	if err == nil {
		fmt.Printf("%s %s\n", ui.FormatSuccess("✔"), name)
		return
	}
	fmt.Printf("%s %s\n", ui.FormatError("✘"), name)
	fmt.Printf("    %s\n", ui.StyleMuted.Render(err.Error()))
}

// lookupEnv returns the last value of key in a KEY=VALUE list
func lookupEnv(env []string, key string) string {
	value := ""
	for _, kv := range env {
		if len(kv) > len(key) && kv[:len(key)] == key && kv[len(key)] == '=' {
			value = kv[len(key)+1:]
		}
	}
	return value
}
