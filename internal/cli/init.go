package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/k-releaser/internal/config"
	clierrors "github.com/ariel-frischer/k-releaser/internal/errors"
	"github.com/ariel-frischer/k-releaser/internal/git"
	"github.com/ariel-frischer/k-releaser/internal/output"
)

var initForceFlag bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default k-releaser.toml",
	Long: `Write k-releaser.toml with every option and its default value to the
repository root. Uncomment and edit the options you want to change.

Examples:
  k-releaser init          # Create k-releaser.toml
  k-releaser init --force  # Overwrite an existing file`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd)
	},
}

func init() {
	initCmd.GroupID = GroupConfiguration
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVarP(&initForceFlag, "force", "f", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command) error {
	path, err := initTarget()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !initForceFlag {
		return clierrors.ConfigExists(path)
	}

	if err := os.WriteFile(path, []byte(config.DefaultTemplate()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	output.PrintSuccess(cmd.OutOrStdout(), "created "+path)
	return nil
}

// initTarget is --config, or k-releaser.toml in the repository root.
func initTarget() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	repo, err := git.Open(repoPath)
	if err != nil {
		return "", clierrors.GitNotRepository(displayRepoPath(), err)
	}
	return filepath.Join(repo.Root(), config.ProjectConfigNames[0]), nil
}
