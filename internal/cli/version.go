package cli

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/k-releaser/internal/build"
)

var versionPlainFlag bool

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Display version information",
	Long:    "Display version, commit, build date and platform of this k-releaser binary.",
	Example: `  k-releaser version
  k-releaser version --plain`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if versionPlainFlag {
			fmt.Fprintln(out, build.Summary())
			return
		}

		bold := color.New(color.Bold).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Fprintf(out, "%s %s\n", bold("k-releaser"), cyan(build.Version))
		fmt.Fprintf(out, "  Commit:   %s\n", build.Commit)
		fmt.Fprintf(out, "  Built:    %s\n", build.BuildDate)
		fmt.Fprintf(out, "  Go:       %s\n", runtime.Version())
		fmt.Fprintf(out, "  Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	versionCmd.GroupID = GroupGettingStarted
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolVar(&versionPlainFlag, "plain", false, "Print a single plain line")
	rootCmd.Version = build.Version
	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")
}
