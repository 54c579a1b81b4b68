package forge

import (
	"fmt"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"
)

// MaxBodyLength is the longest pull request body GitHub accepts, counted
// in characters.
const MaxBodyLength = 65536

// DefaultBodyTemplate renders the release pull request body.
const DefaultBodyTemplate = `
## New release
{{range .Releases}}
* ` + "`{{.Package}}`" + `: {{if and .Previous (ne .Previous .Next)}}{{.Previous}} -> {{end}}{{.Next}}
{{- end}}
{{if .Changes}}
<details><summary><i><b>Changelog</b></i></summary><p>
{{.Changes}}
</p></details>
{{end}}
---
This PR was generated with [k-releaser](https://github.com/ariel-frischer/k-releaser/).`

// PackageRelease is one package's part of a release pull request.
type PackageRelease struct {
	Package  string
	Previous string // empty on a first release
	Next     string
	// Title is the changelog section heading, e.g. "[1.3.0] - 2026-10-14".
	Title string
	// Changelog is the section body without its heading.
	Changelog string
}

// PullRequestPlan is the input of RenderPullRequest.
type PullRequestPlan struct {
	Releases []PackageRelease
	// MultiPackage is true when the project declares several packages, even
	// if only one of them is released.
	MultiPackage bool
}

// titleData holds the slots of a pr_title template. Package is set when a
// single package is released, Version when every release shares it.
type titleData struct {
	Package string
	Version string
}

type bodyData struct {
	Releases []PackageRelease
	Changes  string
}

// ReleaseBranch returns the release branch name for now, e.g.
// "k-releaser-2026-10-14T09-30-00Z".
func ReleaseBranch(prefix string, now time.Time) string {
	stamp := now.UTC().Format(time.RFC3339)
	return prefix + strings.ReplaceAll(stamp, ":", "-")
}

// RenderPullRequest renders the pull request title and body. Empty
// templates select the defaults.
func RenderPullRequest(plan PullRequestPlan, titleTemplate, bodyTemplate string) (title, body string, err error) {
	if len(plan.Releases) == 0 {
		return "", "", fmt.Errorf("no releases to describe")
	}

	title, err = renderTitle(plan, titleTemplate)
	if err != nil {
		return "", "", err
	}
	body, err = renderBody(plan.Releases, bodyTemplate)
	if err != nil {
		return "", "", err
	}
	return title, body, nil
}

func renderTitle(plan PullRequestPlan, text string) (string, error) {
	releases := plan.Releases
	first := releases[0].Next
	sameVersion := true
	for _, r := range releases[1:] {
		if r.Next != first {
			sameVersion = false
			break
		}
	}

	if strings.TrimSpace(text) != "" {
		var data titleData
		if len(releases) == 1 {
			data.Package = releases[0].Package
		}
		if sameVersion {
			data.Version = first
		}
		out, err := execute("pr_title", text, data)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(out), nil
	}

	switch {
	case len(releases) == 1 && plan.MultiPackage:
		return fmt.Sprintf("chore(%s): release v%s", releases[0].Package, first), nil
	case len(releases) > 1 && !sameVersion:
		return "chore: release", nil
	default:
		return "chore: release v" + first, nil
	}
}

func renderBody(releases []PackageRelease, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		text = DefaultBodyTemplate
	}

	body, err := execute("pr_body", text, bodyData{Releases: releases, Changes: changes(releases)})
	if err != nil {
		return "", err
	}
	if utf8.RuneCountInString(body) <= MaxBodyLength {
		return body, nil
	}

	logDebug("[forge] PR body is longer than %d characters, omitting changelogs", MaxBodyLength)
	short := make([]PackageRelease, len(releases))
	for i, r := range releases {
		r.Title, r.Changelog = "", ""
		short[i] = r
	}
	body, err = execute("pr_body", text, bodyData{Releases: short})
	if err != nil {
		return "", err
	}
	return truncateRunes(body, MaxBodyLength), nil
}

// changes renders the changelog sections quoted under their package.
func changes(releases []PackageRelease) string {
	var b strings.Builder
	for _, r := range releases {
		if r.Title == "" || r.Changelog == "" {
			continue
		}
		if len(releases) > 1 {
			fmt.Fprintf(&b, "\n## `%s`\n", r.Package)
		}
		fmt.Fprintf(&b, "<blockquote>\n\n## %s\n\n%s\n</blockquote>\n", r.Title, strings.TrimSpace(r.Changelog))
	}
	return b.String()
}

func execute(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parsing %s template: %w", name, err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering %s template: %w", name, err)
	}
	return b.String(), nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
