package config

import "github.com/ariel-frischer/k-releaser/internal/changelog"

// Default values that other packages refer to.
const (
	DefaultInitialVersion = "0.1.0"
	DefaultBranchPrefix   = "k-releaser-"
)

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"workspace.changelog_path":   changelog.DefaultFilename,
		"workspace.git_tag_name":     "", // v{version}, or {package}-v{version} for monorepos
		"workspace.initial_version":  DefaultInitialVersion,
		"workspace.sort_commits":     "newest",
		"workspace.remote":           "origin",
		"workspace.base_branch":      "",
		"workspace.pr_branch_prefix": DefaultBranchPrefix,
		"workspace.pr_title":         "",
		"workspace.pr_body":          "",
		"workspace.pr_labels":        []string{},
		"workspace.pr_draft":         false,
		"workspace.release_draft":    false,
		"workspace.commit_link":      "",
		"workspace.release_link":     "",
		"forge.type":                 "",
		"forge.url":                  "",
		"forge.token":                "",
		"changelog.entry_template":   "",
		"changelog.no_refs":          false,
	}
}

// DefaultTemplate returns a fully commented k-releaser.toml that documents
// every option. Written by `k-releaser init`.
func DefaultTemplate() string {
	return `# k-releaser configuration
# See 'k-releaser generate-schema' for the JSON schema of this file.

[workspace]
changelog_path = "CHANGELOG.md"      # Changelog file, relative to each package path
# git_tag_name = "v{version}"        # Tag template; default {package}-v{version} for monorepos
initial_version = "0.1.0"            # Version of a package's first release
sort_commits = "newest"              # Changelog entry order: newest | oldest
remote = "origin"                    # Remote that tags and release branches are pushed to
# base_branch = "main"               # Release PR target (default: current branch)
pr_branch_prefix = "k-releaser-"     # Release branch prefix; a timestamp is appended
# pr_title = "chore: release v{{ .Version }}"   # Go template, see README
pr_labels = []                       # Labels added to the release PR
pr_draft = false                     # Open the release PR as a draft
release_draft = false                # Create forge releases as drafts
# commit_link = "https://github.com/OWNER/REPO/commit/{id}"
# release_link = "https://github.com/OWNER/REPO/compare/{previous_tag}...{tag}"

[forge]
# type = "github"                    # github | gitlab | gitea (default: detect from remote)
# url = ""                           # API base URL for self-hosted forges
# token is read from K_RELEASER_FORGE_TOKEN, GITHUB_TOKEN, GITLAB_TOKEN or GITEA_TOKEN

[changelog]
# entry_template = "{{if .Scope}}*({{.Scope}})* {{end}}{{.Description}}{{if .Ref}} ({{.Ref}}){{end}}"
no_refs = false                      # Omit commit references from entries

# Override group labels or visibility per commit kind:
# [[changelog.group]]
# kind = "docs"
# label = "Documentation"
# hidden = false

# Declare packages for a monorepo. Without any, the repository is one package.
# [[package]]
# name = "core"
# path = "crates/core"
`
}
