package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/kamal-hamza/nst/internal/adapters/toolchain"
	"github.com/kamal-hamza/nst/internal/core/services"
	"github.com/kamal-hamza/nst/pkg/ui"
	"github.com/kamal-hamza/nst/pkg/workspace"
)

var (
	watchQuiet bool
	watchBuild bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate build files when the project changes",
	Long: `Watches project.json and the asset and scene descriptors, and
regenerates the Makefile and C glue code whenever they change.

Use --build to also rebuild the ROM after each change. A change that
arrives while a build is running is picked up by the next one.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVarP(&watchQuiet, "quiet", "q", false, "Only report errors")
	watchCmd.Flags().BoolVarP(&watchBuild, "build", "b", false, "Rebuild the ROM after regenerating")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range []string{appWorkspace.RootPath, appWorkspace.DescriptorsPath, appWorkspace.ScenesPath} {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	if !watchQuiet {
		fmt.Println(ui.FormatRocket("Watching " + appWorkspace.RootPath))
		fmt.Println(ui.FormatMuted("Press Ctrl+C to stop"))
		fmt.Println()
	}

	debounce := time.Duration(appConfig.WatchDebounceMS) * time.Millisecond
	var debounceTimer *time.Timer
	trigger := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watchRelevant(appWorkspace, event) {
				continue
			}
			logger.Debug("project changed", "file", event.Name, "op", event.Op.String())

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			onProjectChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "err", err)

		case <-ctx.Done():
			if !watchQuiet {
				fmt.Println()
				fmt.Println(ui.FormatMuted("Watch stopped"))
			}
			return nil
		}
	}
}

// watchRelevant keeps descriptor and project file changes, ignoring the
// temporary files editors and atomic writes leave behind
func watchRelevant(ws *workspace.Workspace, event fsnotify.Event) bool {
	if !(event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
		return false
	}

	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") || strings.HasSuffix(base, ".tmp") {
		return false
	}

	switch filepath.Dir(event.Name) {
	case ws.RootPath:
		return base == workspace.ProjectFileName
	case ws.DescriptorsPath, ws.ScenesPath:
		return strings.HasSuffix(base, ".json")
	}
	return false
}

func onProjectChange() {
	ctx := getContext()

	if appConfig.WatchRegenerate {
		gen, err := codegenService.GenerateAll(ctx)
		if err != nil {
			fmt.Println(ui.FormatError("Generate failed: " + err.Error()))
			return
		}
		if !watchQuiet {
			fmt.Println(ui.FormatSuccess(fmt.Sprintf("%s regenerated %d files", time.Now().Format(time.Kitchen), len(gen.Written))))
		}
	}

	if !watchBuild {
		return
	}
	if runner.Busy() {
		logger.Info("skipping build", "err", toolchain.ErrBusy)
		return
	}

	resp, err := buildService.Build(ctx, services.BuildRequest{
		SkipGenerate: appConfig.WatchRegenerate,
		OnOutput: func(line string) {
			if !watchQuiet {
				fmt.Println(ui.FormatMuted("  " + line))
			}
		},
	})
	switch {
	case errors.Is(err, toolchain.ErrBusy):
		logger.Info("skipping build", "err", err)
	case err != nil:
		fmt.Println(ui.FormatError(err.Error()))
	case !watchQuiet:
		fmt.Println(ui.FormatBuild("Built " + resp.RomPath))
	}
}
