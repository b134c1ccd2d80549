package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/nst/internal/adapters/toolchain"
	"github.com/kamal-hamza/nst/internal/core/services"
	"github.com/kamal-hamza/nst/pkg/ui"
)

var (
	buildNoGenerate bool
	buildJobs       int
	buildRun        bool
	buildQuiet      bool
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Build the ROM",
	Long: `Regenerates the build files and runs the build tool (make by default)
in the project root, streaming its output.

The SDK location comes from sdk_path in the config, N64_INST in the
environment or the project's .env file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := getContext()

		if err := rewireJobs(); err != nil {
			return err
		}
		if runner.Busy() {
			return toolchain.ErrBusy
		}

		fmt.Println(ui.FormatBuild("Building " + appWorkspace.RootPath))
		start := time.Now()

		resp, err := buildService.Build(ctx, services.BuildRequest{
			SkipGenerate: buildNoGenerate,
			OnOutput:     printToolOutput,
		})
		if err != nil {
			if resp != nil {
				fmt.Println(ui.FormatError(fmt.Sprintf("Build failed with exit code %d", resp.ExitCode)))
			}
			return err
		}

		fmt.Println(ui.FormatSuccess(fmt.Sprintf("Built %s in %s", resp.RomPath, time.Since(start).Round(time.Millisecond))))
		if info, err := os.Stat(resp.RomPath); err == nil {
			fmt.Println(ui.FormatMuted("  " + humanize.Bytes(uint64(info.Size()))))
		}

		if buildRun {
			emulator, err := buildService.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Println(ui.FormatRocket("Launched " + emulator))
		}
		return nil
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove build outputs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runner.Busy() {
			return toolchain.ErrBusy
		}

		if _, err := buildService.Clean(getContext(), printToolOutput); err != nil {
			// without a Makefile, fall back to removing the directories directly
			logger.Debug("make clean failed, removing outputs", "err", err)
			if err := appWorkspace.CleanBuild(); err != nil {
				return err
			}
		}
		fmt.Println(ui.FormatSuccess("Cleaned build outputs"))
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the built ROM in the emulator",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		emulator, err := buildService.Run(getContext())
		if err != nil {
			if errors.Is(err, services.ErrRomMissing) {
				fmt.Println(ui.FormatInfo("Run 'nst build' first"))
			}
			return err
		}
		fmt.Println(ui.FormatRocket("Launched " + emulator))
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit [path]",
	Short: "Open the project or a file in your editor",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := ""
		if len(args) == 1 {
			target = args[0]
		}
		editor, err := buildService.Edit(getContext(), target)
		if err != nil {
			return err
		}
		if editor == "" {
			editor = "the default application"
		}
		fmt.Println(ui.FormatSuccess("Opened in " + editor))
		return nil
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildNoGenerate, "no-generate", false, "Do not regenerate build files first")
	buildCmd.Flags().IntVarP(&buildJobs, "jobs", "j", 0, "Parallel build jobs (default: project, then config)")
	buildCmd.Flags().BoolVarP(&buildRun, "run", "r", false, "Launch the emulator after a successful build")
	buildCmd.Flags().BoolVarP(&buildQuiet, "quiet", "q", false, "Hide build tool output")
}

// rewireJobs rebuilds the toolchain when the job count differs from the config
func rewireJobs() error {
	jobs := buildJobs
	if jobs <= 0 {
		project, err := projectService.Load(getContext())
		if err != nil {
			return err
		}
		jobs = project.Toolchain.BuildJobs
	}
	if jobs > 0 && jobs != appConfig.BuildJobs {
		wire(appWorkspace, appConfig, jobs)
		logger.Debug("build jobs override", "jobs", jobs)
	}
	return nil
}

func printToolOutput(line string) {
	if buildQuiet {
		return
	}
	fmt.Println(ui.FormatMuted("  " + line))
}
