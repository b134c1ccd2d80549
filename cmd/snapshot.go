package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/nst/internal/core/services"
	"github.com/kamal-hamza/nst/pkg/ui"
)

var snapshotStatus bool

var snapshotCmd = &cobra.Command{
	Use:     "snapshot [message]",
	Aliases: []string{"snap"},
	Short:   "Commit the whole project to git",
	Long: `Stage every change in the project and commit it, initializing a git
repository first when there is none. Nothing is committed when the tree is
clean.

Examples:
  nst snapshot
  nst snapshot "Boss fight scene"
  nst snapshot --status`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().BoolVarP(&snapshotStatus, "status", "s", false, "Show uncommitted changes instead of committing")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	ctx := getContext()

	git := services.NewGitService(appWorkspace.RootPath)
	if !git.Available() {
		return fmt.Errorf("git not found in PATH")
	}

	if snapshotStatus {
		if !git.IsRepo() {
			fmt.Println(ui.FormatWarning("Project is not a git repository yet"))
			return nil
		}
		status, err := git.Status(ctx)
		if err != nil {
			return err
		}
		if strings.TrimSpace(status) == "" {
			fmt.Println(ui.FormatSuccess("Nothing to snapshot"))
			return nil
		}
		fmt.Print(status)
		return nil
	}

	if err := git.Init(ctx); err != nil {
		return err
	}

	message := "Snapshot " + time.Now().Format("2006-01-02 15:04")
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		message = args[0]
	}

	committed, err := git.Snapshot(ctx, message)
	if err != nil {
		return err
	}
	if !committed {
		fmt.Println(ui.FormatInfo("Nothing changed since the last snapshot"))
		return nil
	}
	fmt.Println(ui.FormatSuccess("Committed: " + message))
	return nil
}
