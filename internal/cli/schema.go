package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/k-releaser/internal/config"
)

var schemaCmd = &cobra.Command{
	Use:   "generate-schema",
	Short: "Print the JSON schema of k-releaser.toml",
	Long: `Print the JSON schema of the configuration file. Editors with TOML
schema support use it for completion and validation.

Examples:
  k-releaser generate-schema > k-releaser.schema.json`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := config.Schema()
		if err != nil {
			return fmt.Errorf("generating schema: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	schemaCmd.GroupID = GroupConfiguration
	rootCmd.AddCommand(schemaCmd)
}
