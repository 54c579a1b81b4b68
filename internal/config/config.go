// Package config provides layered configuration for k-releaser using koanf.
// Configuration is loaded with priority: environment variables (K_RELEASER_*)
// > project config (k-releaser.toml, .k-releaser.toml, .k-releaser.yml) > defaults.
// A .env file in the repository root is read before the environment layer
// without overriding variables that are already set.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ariel-frischer/k-releaser/internal/changelog"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "K_RELEASER_"

// ProjectConfigNames are the project config files looked up in the
// repository root, in order.
var ProjectConfigNames = []string{
	"k-releaser.toml",
	".k-releaser.toml",
	".k-releaser.yml",
	".k-releaser.yaml",
}

// Configuration is the k-releaser configuration.
type Configuration struct {
	Workspace Workspace `koanf:"workspace"`
	Forge     Forge     `koanf:"forge"`
	Changelog Changelog `koanf:"changelog"`
	// Packages declares the monorepo packages. Empty means the whole
	// repository is one package.
	Packages []Package `koanf:"package" validate:"dive"`

	// Source is the project config file that was loaded, empty if none.
	Source string `koanf:"-" json:"-"`
}

// Workspace holds settings shared by every package.
type Workspace struct {
	// ChangelogPath is the changelog file name relative to each package path.
	ChangelogPath string `koanf:"changelog_path" validate:"required"`
	// GitTagName is the tag template, e.g. "v{version}" or "{package}-v{version}".
	// Empty selects the default for single or multi package repositories.
	GitTagName string `koanf:"git_tag_name"`
	// InitialVersion is the version of a package's first release.
	InitialVersion string `koanf:"initial_version" validate:"required"`
	// SortCommits orders changelog entries: newest or oldest first.
	SortCommits string `koanf:"sort_commits" validate:"oneof=newest oldest" jsonschema:"enum=newest,enum=oldest"`
	// Remote is the git remote releases are pushed to.
	Remote string `koanf:"remote" validate:"required"`
	// BaseBranch is the release PR target. Empty means the current branch.
	BaseBranch     string   `koanf:"base_branch"`
	PRBranchPrefix string   `koanf:"pr_branch_prefix" validate:"required"`
	PRTitle        string   `koanf:"pr_title"`
	PRBody         string   `koanf:"pr_body"`
	PRLabels       []string `koanf:"pr_labels"`
	PRDraft        bool     `koanf:"pr_draft"`
	ReleaseDraft   bool     `koanf:"release_draft"`
	// CommitLink turns entry references into links; {id} is the full hash.
	CommitLink string `koanf:"commit_link"`
	// ReleaseLink links section headings; supports {previous_tag} and {tag}.
	ReleaseLink string `koanf:"release_link"`
}

// Forge selects and authenticates the git forge.
type Forge struct {
	// Type is github, gitlab or gitea. Empty means detect from the remote host.
	Type string `koanf:"type" validate:"omitempty,oneof=github gitlab gitea" jsonschema:"enum=github,enum=gitlab,enum=gitea"`
	// URL is the forge API base URL. Empty uses the public default for Type.
	URL   string `koanf:"url" validate:"omitempty,url"`
	Token string `koanf:"token" json:"-"`
	// Owner and Repo override the values parsed from the remote URL.
	Owner string `koanf:"owner"`
	Repo  string `koanf:"repo"`
}

// Changelog customizes rendering.
type Changelog struct {
	EntryTemplate string                `koanf:"entry_template"`
	NoRefs        bool                  `koanf:"no_refs"`
	Groups        []changelog.GroupRule `koanf:"group"`
}

// Package declares one releasable directory of the repository.
type Package struct {
	Name string `koanf:"name" validate:"required"`
	// Path is the package directory relative to the repository root.
	Path          string `koanf:"path"`
	ChangelogPath string `koanf:"changelog_path"`
	GitTagName    string `koanf:"git_tag_name"`
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// Root is the repository root where project config and .env are looked up.
	Root string
	// ConfigPath overrides the project config lookup. The file must exist.
	ConfigPath string
	// EnvFile overrides the .env path. Set to "-" to skip it.
	EnvFile string
}

// Load loads configuration for the repository at root.
func Load(root string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{Root: root})
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")

	loadDefaults(k)

	source, err := loadProjectConfig(k, opts)
	if err != nil {
		return nil, err
	}

	if err := loadDotEnv(opts); err != nil {
		return nil, err
	}

	if err := loadEnvironmentConfig(k); err != nil {
		return nil, err
	}

	return finalizeConfig(k, source)
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf) {
	for key, value := range GetDefaults() {
		k.Set(key, value)
	}
}

// loadProjectConfig loads the explicit config path or the first project
// config file found in the root. Returns the loaded path.
func loadProjectConfig(k *koanf.Koanf, opts LoadOptions) (string, error) {
	path := opts.ConfigPath
	if path != "" {
		if !fileExists(path) {
			return "", fmt.Errorf("specified config does not exist at path %s", path)
		}
	} else {
		path = findProjectConfig(opts.Root)
		if path == "" {
			return "", nil
		}
	}

	if err := loadConfigFile(k, path); err != nil {
		return "", err
	}
	return path, nil
}

// findProjectConfig returns the first existing project config in root.
func findProjectConfig(root string) string {
	for _, name := range ProjectConfigNames {
		path := filepath.Join(root, name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// loadConfigFile checks the syntax of a TOML or YAML config file, chosen by
// extension, and loads it.
func loadConfigFile(k *koanf.Koanf, path string) error {
	ext := filepath.Ext(path)
	format, ok := fileFormats[strings.ToLower(ext)]
	if !ok {
		return fmt.Errorf("unsupported config format %q (use .toml or .yml)", ext)
	}
	if err := format.checkSyntax(path); err != nil {
		return fmt.Errorf("validating %s syntax: %w", format.name, err)
	}
	if err := k.Load(file.Provider(path), format.parser); err != nil {
		return fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return nil
}

// loadDotEnv reads KEY=VALUE pairs from the .env file into the process
// environment. Variables that are already set win.
func loadDotEnv(opts LoadOptions) error {
	path := opts.EnvFile
	if path == "-" {
		return nil
	}
	if path == "" {
		path = filepath.Join(opts.Root, ".env")
	}

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// loadEnvironmentConfig loads environment variable overrides
func loadEnvironmentConfig(k *koanf.Koanf) error {
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	return nil
}

// finalizeConfig unmarshals and validates
func finalizeConfig(k *koanf.Koanf, source string) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Source = source

	name := source
	if name == "" {
		name = "config"
	}
	if err := ValidateConfigValues(&cfg, name); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// envTransform converts environment variable names to config keys.
// The first segment names the section.
// Example: K_RELEASER_FORGE_TOKEN -> forge.token
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// TokenFor returns the configured token, falling back to the conventional
// environment variable of the forge kind.
func (f Forge) TokenFor(kind string) string {
	if f.Token != "" {
		return f.Token
	}
	switch kind {
	case "github":
		return os.Getenv("GITHUB_TOKEN")
	case "gitlab":
		return os.Getenv("GITLAB_TOKEN")
	case "gitea":
		return os.Getenv("GITEA_TOKEN")
	}
	return ""
}

// IsMultiPackage reports whether more than one package is declared.
func (c *Configuration) IsMultiPackage() bool {
	return len(c.Packages) > 1
}

// ResolvedPackages returns the releasable packages with every default filled
// in. rootName names the implicit root package when none are declared.
func (c *Configuration) ResolvedPackages(rootName string) []Package {
	packages := c.Packages
	if len(packages) == 0 {
		packages = []Package{{Name: rootName, Path: "."}}
	}

	defaultTag := c.Workspace.GitTagName
	if defaultTag == "" {
		defaultTag = "v{version}"
		if c.IsMultiPackage() {
			defaultTag = "{package}-v{version}"
		}
	}

	out := make([]Package, 0, len(packages))
	for _, p := range packages {
		if p.Path == "" {
			p.Path = "."
		}
		if p.ChangelogPath == "" {
			p.ChangelogPath = filepath.Join(p.Path, c.Workspace.ChangelogPath)
		}
		if p.GitTagName == "" {
			p.GitTagName = defaultTag
		}
		out = append(out, p)
	}
	return out
}

// Policy returns the changelog grouping policy with configured overrides.
func (c *Configuration) Policy() changelog.Policy {
	return changelog.DefaultPolicy().WithOverrides(c.Changelog.Groups)
}

// MarkdownOptions returns the renderer options for changelog sections.
func (c *Configuration) MarkdownOptions() changelog.MarkdownOptions {
	return changelog.MarkdownOptions{
		EntryTemplate: c.Changelog.EntryTemplate,
		CommitLink:    c.Workspace.CommitLink,
		NoRefs:        c.Changelog.NoRefs,
	}
}
