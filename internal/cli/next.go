package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	clierrors "github.com/ariel-frischer/k-releaser/internal/errors"
	"github.com/ariel-frischer/k-releaser/internal/output"
)

var nextOutputFlag string

// nextEntry is the machine readable form of one planned release.
type nextEntry struct {
	Package  string `json:"package" yaml:"package"`
	Previous string `json:"previous,omitempty" yaml:"previous,omitempty"`
	Next     string `json:"next" yaml:"next"`
	Bump     string `json:"bump" yaml:"bump"`
	Tag      string `json:"tag" yaml:"tag"`
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the next version of each package",
	Long: `Show the version each package would be released as, computed from the
conventional commits since its last release tag. Nothing is written.

Examples:
  k-releaser next                # One line per package
  k-releaser next --output json  # JSON array for scripts`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNext(cmd)
	},
}

func init() {
	nextCmd.GroupID = GroupGettingStarted
	rootCmd.AddCommand(nextCmd)

	nextCmd.Flags().StringVarP(&nextOutputFlag, "output", "o", "text", "Output format: text, json or yaml")
}

func runNext(cmd *cobra.Command) error {
	switch nextOutputFlag {
	case "text", "json", "yaml":
	default:
		return clierrors.InvalidOutputFormat(nextOutputFlag)
	}

	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	plans, err := ws.plan(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch nextOutputFlag {
	case "json":
		return writeNextJSON(out, plans)
	case "yaml":
		return writeNextYAML(out, plans)
	}

	if len(releasable(plans)) == 0 {
		fmt.Fprintln(out, "nothing to release")
		return nil
	}
	for _, p := range plans {
		if p.result == nil {
			output.PrintSkipped(out, p.pkg.Name+": nothing to release")
			continue
		}
		output.PrintTransition(out, p.pkg.Name, p.previous(), p.result.Next.String(), p.result.Bump.String())
	}
	return nil
}

func nextEntries(plans []packagePlan) []nextEntry {
	entries := []nextEntry{}
	for _, p := range releasable(plans) {
		entries = append(entries, nextEntry{
			Package:  p.pkg.Name,
			Previous: p.previous(),
			Next:     p.result.Next.String(),
			Bump:     p.result.Bump.String(),
			Tag:      p.tagFor(),
		})
	}
	return entries
}

func writeNextJSON(out io.Writer, plans []packagePlan) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(nextEntries(plans)); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

func writeNextYAML(out io.Writer, plans []packagePlan) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(nextEntries(plans)); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}
