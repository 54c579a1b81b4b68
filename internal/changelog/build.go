package changelog

import (
	"time"

	"github.com/ariel-frischer/k-releaser/internal/conventional"
)

// Build groups classified commits into a release section.
//
// Breaking commits always land in the BreakingLabel group and also in their
// natural group when that group is visible, so both "what's new" and "what
// might break me" readers see them. Non-breaking commits land in the group of
// their kind unless the policy hides it. Groups with no entries are omitted,
// and entries keep the order in which commits were supplied.
func Build(version string, date time.Time, commits []conventional.Classified, policy Policy) Section {
	var breaking []Entry
	byLabel := make(map[string][]Entry)

	for _, c := range commits {
		e := entryFor(c)
		if c.Breaking {
			breaking = append(breaking, e)
		}

		r, ok := policy.rule(c.Kind)
		if !ok || r.Hidden || r.Label == "" {
			continue
		}
		byLabel[r.Label] = append(byLabel[r.Label], e)
	}

	section := Section{Version: version, Date: date}
	if len(breaking) > 0 {
		section.Groups = append(section.Groups, Group{Label: BreakingLabel, Entries: breaking})
	}

	seen := make(map[string]bool)
	for _, r := range policy.Rules {
		if seen[r.Label] {
			continue
		}
		seen[r.Label] = true
		if entries := byLabel[r.Label]; len(entries) > 0 {
			section.Groups = append(section.Groups, Group{Label: r.Label, Entries: entries})
		}
	}

	return section
}

// entryFor converts a classified commit into an unrendered entry.
func entryFor(c conventional.Classified) Entry {
	return Entry{
		Description: c.Description,
		Scope:       c.Scope,
		CommitID:    c.Source.ID,
		Kind:        c.Kind,
		Breaking:    c.Breaking,
	}
}
