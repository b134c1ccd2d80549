package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/nst/internal/adapters/media"
	"github.com/kamal-hamza/nst/internal/adapters/repository"
	"github.com/kamal-hamza/nst/internal/adapters/toolchain"
	"github.com/kamal-hamza/nst/internal/core/services"
	"github.com/kamal-hamza/nst/pkg/config"
	"github.com/kamal-hamza/nst/pkg/ui"
	"github.com/kamal-hamza/nst/pkg/workspace"
)

var (
	// Global flags
	projectDir string
	verbose    bool

	// Global configuration and project
	appConfig     *config.Config
	appConfigPath string
	appWorkspace  *workspace.Workspace
	logger        *slog.Logger

	// Services
	assetService   *services.AssetService
	listService    *services.ListService
	projectService *services.ProjectService
	sceneService   *services.SceneService
	codegenService *services.CodegenService
	buildService   *services.BuildService
	sourceService  *services.SourceService
	statsService   *services.StatsService

	// Repositories
	assetRepo   *repository.FileAssetRepository
	projectRepo *repository.ProjectRepository
	sceneRepo   *repository.SceneRepository

	// Toolchain
	runner   *toolchain.Runner
	launcher *toolchain.Launcher
)

// commands that work without an open project
var projectlessCommands = map[string]bool{
	"init":       true,
	"version":    true,
	"config":     true,
	"help":       true,
	"completion": true,
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nst",
	Short: "nst - N64 homebrew project manager",
	Long: ui.StyleTitle.Render("NST") + " - N64 homebrew project manager\n\n" +
		"Import and organize game assets, manage scenes and scripts,\n" +
		"generate the libdragon build files and drive the toolchain.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initializeApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.FormatError(err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "C", "", "Project directory (default: search upwards from the current directory)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(sceneCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(grepCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp loads the user config, sets up logging and wires the
// project's repositories and services
func initializeApp(cmd *cobra.Command, args []string) error {
	path, err := config.DefaultPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	appConfig = cfg
	appConfigPath = path

	ui.SetTheme(cfg.ColorTheme)
	setupLogging(cfg.LogLevel)

	if projectlessCommands[cmd.Name()] {
		return nil
	}

	start := projectDir
	if start == "" {
		if start, err = os.Getwd(); err != nil {
			return err
		}
	}

	ws, err := workspace.Find(start)
	if err != nil {
		fmt.Println(ui.FormatInfo("Run 'nst init \"My Game\"' to create a project"))
		return err
	}

	wire(ws, cfg, 0)
	logger.Debug("opened project", "root", ws.RootPath)
	return nil
}

// wire creates the repositories, adapters and services for a project.
// jobs overrides the configured parallel build jobs when > 0.
func wire(ws *workspace.Workspace, cfg *config.Config, jobs int) {
	appWorkspace = ws

	assetRepo = repository.NewFileAssetRepository(ws)
	projectRepo = repository.NewProjectRepository(ws)
	sceneRepo = repository.NewSceneRepository(ws)

	if runner == nil {
		runner = toolchain.NewRunner(256, logger)
	}
	env, err := toolchain.Environment(ws, cfg)
	if err != nil {
		logger.Warn("ignoring project environment", "err", err)
		env = os.Environ()
	}
	launcher = toolchain.NewLauncher(runner, ws.RootPath, env)
	buildTool := toolchain.NewMake(runner, ws, cfg, jobs)

	assetService = services.NewAssetService(ws, assetRepo, media.NewProbe(), logger)
	listService = services.NewListService(assetRepo)
	projectService = services.NewProjectService(ws, projectRepo, logger)
	sceneService = services.NewSceneService(projectRepo, sceneRepo, logger)
	codegenService = services.NewCodegenService(ws, projectRepo, sceneRepo, assetRepo, logger)
	buildService = services.NewBuildService(ws, projectRepo, buildTool, launcher, codegenService, cfg, logger)
	sourceService = services.NewSourceService(ws)
	statsService = services.NewStatsService(assetRepo, sceneRepo)
}

// setupLogging installs a tint console handler as the default slog logger
func setupLogging(level string) {
	lvl := slog.LevelWarn
	if verbose {
		lvl = slog.LevelDebug
	} else if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelWarn
	}

	logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
}

var (
	appCtx     context.Context
	appCtxOnce sync.Once
)

// getContext returns a context for operations, cancelled on Ctrl+C
func getContext() context.Context {
	appCtxOnce.Do(func() {
		appCtx, _ = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	})
	return appCtx
}
