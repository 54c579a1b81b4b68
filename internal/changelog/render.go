package changelog

import (
	"fmt"
	"io"
	"strings"
	"text/template"
)

// DefaultEntryTemplate renders an entry as "*(scope)* description (ref)".
const DefaultEntryTemplate = `{{if .Scope}}*({{.Scope}})* {{end}}{{.Description}}{{if .Ref}} ({{.Ref}}){{end}}`

// shortIDLength is the number of hash characters used for commit references.
const shortIDLength = 7

// Renderer turns a section into changelog text.
type Renderer interface {
	RenderSection(s Section) (string, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(s Section) (string, error)

// RenderSection calls f(s).
func (f RendererFunc) RenderSection(s Section) (string, error) {
	return f(s)
}

// MarkdownOptions configures a MarkdownRenderer.
type MarkdownOptions struct {
	// EntryTemplate is a text/template for one entry line without the "- "
	// bullet. Empty means DefaultEntryTemplate.
	EntryTemplate string
	// CommitLink, when set, turns commit references into markdown links.
	// The placeholders {id} and {short_id} are substituted.
	CommitLink string
	// NoRefs disables commit references entirely.
	NoRefs bool
}

// entryData is the fixed set of slots available to the entry template.
type entryData struct {
	Description string
	Scope       string
	Ref         string
	CommitID    string
	ShortID     string
	Kind        string
	Breaking    bool
}

// MarkdownRenderer renders sections in Keep a Changelog format:
//
//	## [1.3.0] - 2026-10-14
//
//	### Features
//	- add export flag
type MarkdownRenderer struct {
	entry      *template.Template
	commitLink string
	noRefs     bool
}

// NewMarkdownRenderer parses the entry template and returns a renderer.
func NewMarkdownRenderer(opts MarkdownOptions) (*MarkdownRenderer, error) {
	text := opts.EntryTemplate
	if strings.TrimSpace(text) == "" {
		text = DefaultEntryTemplate
	}

	tmpl, err := template.New("entry").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing entry template: %w", err)
	}

	return &MarkdownRenderer{entry: tmpl, commitLink: opts.CommitLink, noRefs: opts.NoRefs}, nil
}

// RenderSection renders s. Rendering is deterministic for equal inputs.
func (r *MarkdownRenderer) RenderSection(s Section) (string, error) {
	var b strings.Builder
	if err := r.Render(s, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Render writes s to w.
func (r *MarkdownRenderer) Render(s Section, w io.Writer) error {
	if _, err := io.WriteString(w, FormatHeading(s)+"\n"); err != nil {
		return err
	}

	for _, g := range s.Groups {
		if err := r.renderGroup(g, w); err != nil {
			return fmt.Errorf("rendering group %s: %w", g.Label, err)
		}
	}

	return nil
}

// FormatHeading formats the release heading line of a section.
func FormatHeading(s Section) string {
	var b strings.Builder
	b.WriteString("## [")
	b.WriteString(s.Version)
	b.WriteString("]")

	if s.Version == Unreleased {
		return b.String()
	}
	if s.Link != "" {
		b.WriteString("(" + s.Link + ")")
	}
	if !s.Date.IsZero() {
		b.WriteString(" - " + s.Date.Format("2006-01-02"))
	}
	return b.String()
}

// renderGroup writes a single group heading with its entries.
func (r *MarkdownRenderer) renderGroup(g Group, w io.Writer) error {
	if _, err := io.WriteString(w, "\n### "+g.Label+"\n"); err != nil {
		return err
	}

	for _, e := range g.Entries {
		line, err := r.renderEntry(e)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, "- "+line+"\n"); err != nil {
			return err
		}
	}

	return nil
}

// renderEntry executes the entry template for e.
func (r *MarkdownRenderer) renderEntry(e Entry) (string, error) {
	data := entryData{
		Description: e.Description,
		Scope:       e.Scope,
		CommitID:    e.CommitID,
		ShortID:     shortID(e.CommitID),
		Kind:        string(e.Kind),
		Breaking:    e.Breaking,
	}
	if !r.noRefs {
		data.Ref = r.reference(e.CommitID)
	}

	var b strings.Builder
	if err := r.entry.Execute(&b, data); err != nil {
		return "", fmt.Errorf("executing entry template: %w", err)
	}

	return strings.TrimSpace(strings.ReplaceAll(b.String(), "\n", " ")), nil
}

// reference returns the short hash, linked when a commit link is configured.
func (r *MarkdownRenderer) reference(id string) string {
	if id == "" {
		return ""
	}
	short := shortID(id)
	if r.commitLink == "" {
		return short
	}
	link := strings.NewReplacer("{id}", id, "{short_id}", short).Replace(r.commitLink)
	return fmt.Sprintf("[%s](%s)", short, link)
}

// shortID truncates a commit hash to shortIDLength characters.
func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}
