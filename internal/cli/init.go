package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/piwi3910/PlantLayout/internal/project"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default run configuration",
		Long: `Write a run configuration with the default search parameters and the
sixteen-station demo line. Without a path the file goes to
~/.plantlayout/plantlayout.toml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := project.DefaultConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := project.SaveRunConfig(path, project.DefaultRunConfig()); err != nil {
				return fmt.Errorf("write config %s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			printSuccess(out, "Configuration written")
			printFile(out, path)
			printNextStep(out, "Optimize", appName+" optimize -c "+path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}
