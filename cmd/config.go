package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/kamal-hamza/nst/pkg/ui"
)

var configPathOnly bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Edit the nst configuration file",
	Long: `Open the user configuration file in $EDITOR, creating it with
defaults first if it does not exist.

Use --path to print its location instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := appConfigPath

		if configPathOnly {
			fmt.Println(path)
			return nil
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := appConfig.Save(path); err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
			fmt.Println(ui.FormatSuccess("Created default config"))
		}

		fmt.Println(ui.FormatInfo("Opening config: " + path))

		editor := appConfig.Editor
		if editor == "" {
			editor = os.Getenv("EDITOR")
		}
		if editor == "" {
			editor = "vi"
		}

		c := exec.Command(editor, path)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		return c.Run()
	},
}

func init() {
	configCmd.Flags().BoolVar(&configPathOnly, "path", false, "Print the config file location")
}
