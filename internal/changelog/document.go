package changelog

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// DefaultHeader is used when a package has no changelog yet.
const DefaultHeader = `# Changelog

All notable changes to this project will be documented in this file.

The format is based on [Keep a Changelog](https://keepachangelog.com/en/1.1.0/),
and this project adheres to [Semantic Versioning](https://semver.org/spec/v2.0.0.html).

## [Unreleased]

`

// DefaultFilename is the changelog file name used when none is configured.
const DefaultFilename = "CHANGELOG.md"

// releaseHeadingPattern matches "## [1.2.3] - date", "## 1.2.3" and
// "## [v1.2.3](link) - date". "## [Unreleased]" does not match.
var releaseHeadingPattern = regexp.MustCompile(`^##\s+\[?v?(\d+\.\d+\.\d+(?:[-+][0-9A-Za-z.+-]*)?)\]?`)

// titlePattern matches the top-level "# Title" heading of the header.
var titlePattern = regexp.MustCompile(`^#\s+\S`)

// MalformedError reports a changelog whose insertion point cannot be located.
type MalformedError struct {
	Document string
	Reason   string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed changelog %s: %s", e.Document, e.Reason)
}

// SectionExistsError is returned when inserting a version that the
// document already contains.
type SectionExistsError struct {
	Document string
	Version  string
}

func (e *SectionExistsError) Error() string {
	return fmt.Sprintf("changelog %s already contains a section for version %s", e.Document, e.Version)
}

// IsMalformed returns true if err is a MalformedError.
func IsMalformed(err error) bool {
	var me *MalformedError
	return errors.As(err, &me)
}

// RawSection is an existing release section kept as opaque text.
type RawSection struct {
	// Version is the heading version without a "v" prefix.
	Version string
	// Text is the section exactly as it appears in the document,
	// from its heading up to the next release heading.
	Text string
}

// Document is a changelog file split at its release headings.
// Sections are newest first. A Document is never modified in place:
// Insert returns a new value.
type Document struct {
	Name     string
	Header   string
	Sections []RawSection
}

// Parse splits text into a header and release sections. name is used in
// error messages. Blank text yields a document with DefaultHeader.
//
// The header is everything before the first release heading and must contain
// a top-level "# " title; an "## [Unreleased]" block stays in the header.
// Headings inside fenced code blocks are ignored.
func Parse(name, text string) (*Document, error) {
	if strings.TrimSpace(text) == "" {
		return &Document{Name: name, Header: DefaultHeader}, nil
	}

	doc := &Document{Name: name}
	var current *RawSection
	var header strings.Builder
	hasTitle := false
	fence := ""

	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimRight(line, "\r\n")
		if marker := fenceMarker(trimmed); marker != "" {
			switch {
			case fence == "":
				fence = marker
			case marker[0] == fence[0] && len(marker) >= len(fence):
				fence = ""
			}
		}
		inFence := fence != ""

		if !inFence {
			if m := releaseHeadingPattern.FindStringSubmatch(trimmed); m != nil {
				if current == nil && !hasTitle {
					return nil, &MalformedError{
						Document: name,
						Reason:   `missing top-level "# " title before the first release section`,
					}
				}
				if current != nil {
					doc.Sections = append(doc.Sections, *current)
				}
				current = &RawSection{Version: m[1]}
			}
		}

		if current != nil {
			current.Text += line
			continue
		}
		if !inFence && titlePattern.MatchString(trimmed) {
			hasTitle = true
		}
		header.WriteString(line)
	}

	if current != nil {
		doc.Sections = append(doc.Sections, *current)
	}
	if !hasTitle {
		return nil, &MalformedError{Document: name, Reason: `missing top-level "# " title heading`}
	}

	doc.Header = header.String()
	return doc, nil
}

// fenceMarker returns the run of backticks or tildes opening a fenced code
// block on line, or "" when line is not a fence. A closing fence uses the
// same character and is at least as long as the opening one.
func fenceMarker(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || (line[0] != '`' && line[0] != '~') {
		return ""
	}
	n := 0
	for n < len(line) && line[n] == line[0] {
		n++
	}
	if n < 3 {
		return ""
	}
	return line[:n]
}

// String returns the full document text.
func (d *Document) String() string {
	var b strings.Builder
	b.WriteString(d.Header)
	for _, s := range d.Sections {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Find returns the section for version. A leading "v" is ignored.
func (d *Document) Find(version string) (RawSection, bool) {
	version = strings.TrimPrefix(version, "v")
	for _, s := range d.Sections {
		if s.Version == version {
			return s, true
		}
	}
	return RawSection{}, false
}

// Latest returns the first (newest) release section.
func (d *Document) Latest() (RawSection, bool) {
	if len(d.Sections) == 0 {
		return RawSection{}, false
	}
	return d.Sections[0], true
}

// Insert returns a new document with text as the newest section, placed
// right after the header and before every existing section. Existing
// sections are carried over byte for byte.
func (d *Document) Insert(version, text string) (*Document, error) {
	version = strings.TrimPrefix(version, "v")
	if _, ok := d.Find(version); ok {
		return nil, &SectionExistsError{Document: d.Name, Version: version}
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("inserting version %s into %s: section text is empty", version, d.Name)
	}

	body := strings.TrimRight(text, "\n") + "\n"
	if len(d.Sections) > 0 {
		body += "\n"
	}

	sections := make([]RawSection, 0, len(d.Sections)+1)
	sections = append(sections, RawSection{Version: version, Text: body})
	sections = append(sections, d.Sections...)

	return &Document{
		Name:     d.Name,
		Header:   strings.TrimRight(d.Header, "\n") + "\n\n",
		Sections: sections,
	}, nil
}

// Body returns the section text without its heading line, trimmed.
// It is used as the body of forge releases.
func (s RawSection) Body() string {
	_, rest, _ := strings.Cut(s.Text, "\n")
	return strings.TrimSpace(rest)
}

// SetVersion returns a new document whose section for from is headed with
// version to instead. Only the heading line changes, including a compare
// link in it. The result is parsed again, so a heading that no longer reads
// as a release is an error.
func (d *Document) SetVersion(from, to string) (*Document, error) {
	from, to = strings.TrimPrefix(from, "v"), strings.TrimPrefix(to, "v")
	idx := slices.IndexFunc(d.Sections, func(s RawSection) bool { return s.Version == from })
	if idx < 0 {
		return nil, fmt.Errorf("changelog %s has no section for version %s", d.Name, from)
	}
	if from == to {
		return d, nil
	}
	if _, ok := d.Find(to); ok {
		return nil, &SectionExistsError{Document: d.Name, Version: to}
	}

	sections := slices.Clone(d.Sections)
	heading, body, hasBody := strings.Cut(sections[idx].Text, "\n")
	heading = replaceVersion(heading, from, to)
	if hasBody {
		heading += "\n" + body
	}
	sections[idx].Text = heading

	updated, err := Parse(d.Name, (&Document{Header: d.Header, Sections: sections}).String())
	if err != nil {
		return nil, err
	}
	if len(updated.Sections) != len(d.Sections) || updated.Sections[idx].Version != to {
		return nil, fmt.Errorf("changelog %s: heading %q does not name version %s", d.Name, strings.TrimSpace(heading), to)
	}
	return updated, nil
}

// replaceVersion swaps every standalone occurrence of from in line for to.
// "1.3.0" inside "11.3.0" or "1.3.0-rc.1" is left alone.
func replaceVersion(line, from, to string) string {
	pattern := regexp.MustCompile(`(^|[^0-9A-Za-z])(v?)` + regexp.QuoteMeta(from) + `($|[^0-9A-Za-z+-])`)
	return pattern.ReplaceAllString(line, "${1}${2}"+to+"${3}")
}
