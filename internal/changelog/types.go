package changelog

import (
	"time"

	"github.com/ariel-frischer/k-releaser/internal/conventional"
)

// Unreleased is the version label of a section that has no release yet.
const Unreleased = "Unreleased"

// BreakingLabel is the group that collects every breaking commit.
const BreakingLabel = "Breaking Changes"

// Entry is one changelog line before rendering.
type Entry struct {
	Description string
	Scope       string
	CommitID    string
	Kind        conventional.Kind
	Breaking    bool
}

// Group is a labelled list of entries within a section.
// Entries keep the order in which commits were supplied.
type Group struct {
	Label   string
	Entries []Entry
}

// Section is one release's worth of changelog entries.
type Section struct {
	// Version is a semantic version string or Unreleased.
	Version string
	// Date is the release date. The zero value means no date is rendered.
	Date time.Time
	// Link is an optional URL rendered in the heading (e.g. a compare link).
	Link string
	// Groups are in render order; empty groups are never present.
	Groups []Group
}

// IsEmpty returns true if the section has no entries in any group.
func (s Section) IsEmpty() bool {
	return s.Count() == 0
}

// Count returns the total number of entries across all groups.
// A breaking entry duplicated into its natural group counts twice.
func (s Section) Count() int {
	n := 0
	for _, g := range s.Groups {
		n += len(g.Entries)
	}
	return n
}

// Group returns the group with the given label.
func (s Section) Group(label string) (Group, bool) {
	for _, g := range s.Groups {
		if g.Label == label {
			return g, true
		}
	}
	return Group{}, false
}

// GroupRule maps a commit kind to its group label.
type GroupRule struct {
	Kind   conventional.Kind `koanf:"kind"`
	Label  string            `koanf:"label"`
	Hidden bool              `koanf:"hidden"`
}

// Policy decides which group each commit kind is routed to and the order
// in which groups are rendered. The breaking group is not part of the policy:
// it is always rendered first and is never hidden.
type Policy struct {
	Rules []GroupRule
}

// DefaultPolicy returns the built-in group labels and visibility.
func DefaultPolicy() Policy {
	return Policy{Rules: []GroupRule{
		{Kind: conventional.Feat, Label: "Features"},
		{Kind: conventional.Fix, Label: "Bug Fixes"},
		{Kind: conventional.Perf, Label: "Performance"},
		{Kind: conventional.Refactor, Label: "Refactor"},
		{Kind: conventional.Revert, Label: "Reverted"},
		{Kind: conventional.Docs, Label: "Documentation", Hidden: true},
		{Kind: conventional.Chore, Label: "Miscellaneous", Hidden: true},
		{Kind: conventional.Build, Label: "Build System", Hidden: true},
		{Kind: conventional.CI, Label: "CI", Hidden: true},
		{Kind: conventional.Test, Label: "Tests", Hidden: true},
		{Kind: conventional.Style, Label: "Styling", Hidden: true},
		{Kind: conventional.Other, Label: "Other", Hidden: true},
	}}
}

// WithOverrides returns a copy of p where each override replaces the rule of
// the same kind. Overrides for kinds not yet in p are appended.
func (p Policy) WithOverrides(overrides []GroupRule) Policy {
	rules := make([]GroupRule, len(p.Rules))
	copy(rules, p.Rules)

	for _, o := range overrides {
		replaced := false
		for i := range rules {
			if rules[i].Kind == o.Kind {
				if o.Label == "" {
					o.Label = rules[i].Label
				}
				rules[i] = o
				replaced = true
				break
			}
		}
		if !replaced && o.Label != "" {
			rules = append(rules, o)
		}
	}

	return Policy{Rules: rules}
}

// rule returns the rule for kind.
func (p Policy) rule(kind conventional.Kind) (GroupRule, bool) {
	for _, r := range p.Rules {
		if r.Kind == kind {
			return r, true
		}
	}
	return GroupRule{}, false
}
