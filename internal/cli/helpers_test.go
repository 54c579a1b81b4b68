package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ariel-frischer/k-releaser/internal/testutil"
)

var releaseDay = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

// fixture is a test repository the CLI runs against.
type fixture struct {
	*testutil.GitRepo
	t *testing.T
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{GitRepo: testutil.NewGitRepo(t), t: t}
}

// run executes the root command against the fixture and returns the
// combined output.
func (f *fixture) run(args ...string) (string, error) {
	return runCLI(f.t, append([]string{"--repo", f.Dir}, args...)...)
}

// runCLI executes the root command with fresh flags and a fixed clock.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	resetFlags(rootCmd)

	originalNow := now
	now = func() time.Time { return releaseDay }
	t.Cleanup(func() { now = originalNow })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag to its default so runs do not leak state.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// forgeConfig points a config file at the fake forge.
func forgeConfig(fake *testutil.FakeForge) string {
	return `
[forge]
type = "github"
url = "` + fake.URL() + `"
token = "secret"
owner = "acme"
repo = "widgets"
`
}
