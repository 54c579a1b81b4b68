package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/k-releaser/internal/build"
	"github.com/ariel-frischer/k-releaser/internal/config"
)

func TestInit(t *testing.T) {
	f := newFixture(t)
	f.Commit("chore: initial", nil)
	path := filepath.Join(f.Dir, "k-releaser.toml")

	out, err := f.run("init")
	require.NoError(t, err)
	assert.Equal(t, "✓ created "+path+"\n", out)
	assert.Equal(t, config.DefaultTemplate(), f.Read("k-releaser.toml"))

	// The written file loads as a valid configuration.
	cfg, err := config.Load(f.Dir)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Source)

	_, err = f.run("init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file already exists")

	f.Write("k-releaser.toml", "# edited\n")
	_, err = f.run("init", "--force")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultTemplate(), f.Read("k-releaser.toml"))
}

func TestInit_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "release.toml")

	_, err := runCLI(t, "--config", path, "init")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultTemplate(), string(data))
}

func TestGenerateSchema(t *testing.T) {
	out, err := runCLI(t, "generate-schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Equal(t, config.SchemaID, schema["$id"])
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version", "--plain")
	require.NoError(t, err)
	assert.Equal(t, build.Summary()+"\n", out)

	out, err = runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "k-releaser "+build.Version+"\n")
	assert.Contains(t, out, "Platform:")
}
