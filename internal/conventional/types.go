// Package conventional classifies commit messages following the
// Conventional Commits format (https://www.conventionalcommits.org/).
//
// Classification is a pure, total function of the message text: a message
// that does not follow the format is classified as Other and never produces
// an error, so a single malformed commit cannot abort a release run.
package conventional

import (
	"strings"
	"time"
)

// Kind is the category of a conventional commit.
// The set is open: a well-formed subject with a type outside the fixed set
// classifies as Other and keeps its raw type in Classified.OtherType.
type Kind string

const (
	Feat     Kind = "feat"
	Fix      Kind = "fix"
	Perf     Kind = "perf"
	Refactor Kind = "refactor"
	Docs     Kind = "docs"
	Chore    Kind = "chore"
	Build    Kind = "build"
	CI       Kind = "ci"
	Test     Kind = "test"
	Style    Kind = "style"
	Revert   Kind = "revert"
	Other    Kind = "other"
)

// knownKinds holds the fixed category set, keyed by lowercase type token.
var knownKinds = map[string]Kind{
	"feat":     Feat,
	"fix":      Fix,
	"perf":     Perf,
	"refactor": Refactor,
	"docs":     Docs,
	"chore":    Chore,
	"build":    Build,
	"ci":       CI,
	"test":     Test,
	"style":    Style,
	"revert":   Revert,
}

// Kinds returns the fixed category set in a stable order, followed by Other.
func Kinds() []Kind {
	return []Kind{Feat, Fix, Perf, Refactor, Docs, Chore, Build, CI, Test, Style, Revert, Other}
}

// ParseKind maps a type token to its Kind, case-insensitively.
// The second return value is false for tokens outside the fixed set.
func ParseKind(token string) (Kind, bool) {
	k, ok := knownKinds[strings.ToLower(token)]
	if !ok {
		return Other, false
	}
	return k, true
}

// Commit is one raw commit read from version control.
type Commit struct {
	// ID is the opaque commit identifier (a full hash for git).
	ID string
	// Message is the full message; the first line is the subject.
	Message string
	// Timestamp is the commit time.
	Timestamp time.Time
	// Author is used for display only.
	Author string
}

// Classified is a commit parsed into its conventional-commit parts.
type Classified struct {
	Kind Kind
	// OtherType is the lowercase type token of a well-formed subject whose
	// type is not in the fixed set (e.g. "wip"). Empty for known kinds and
	// for unparseable subjects.
	OtherType   string
	Scope       string
	Breaking    bool
	Description string
	Body        string
	// Source points back at the commit this was derived from.
	// It is for traceability only and never used for identity.
	Source Commit
}

// Type returns the commit type as written, falling back to the kind name.
func (c Classified) Type() string {
	if c.OtherType != "" {
		return c.OtherType
	}
	return string(c.Kind)
}

// IsOther reports whether the commit fell outside the fixed category set.
func (c Classified) IsOther() bool {
	return c.Kind == Other
}
