package conventional

import (
	"regexp"
	"strings"
)

// subjectPattern matches `type(scope)!: description`.
// The scope group rejects nested or unterminated parentheses, so
// "feat(api: x" does not match and falls back to Other.
var subjectPattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_-]*)(?:\(([^()\r\n]*)\))?(!)?:\s+(\S.*)$`)

// breakingFooterPattern matches a breaking-change footer token.
var breakingFooterPattern = regexp.MustCompile(`(?i)^BREAKING[ -]CHANGE:\s*\S`)

// Classify parses a commit message. It never fails: a message that does not
// follow the conventional format is returned as Kind=Other with the full
// subject as description and Breaking=false.
func Classify(message string) Classified {
	subject, rest := splitMessage(message)
	body := strings.TrimSpace(rest)

	m := subjectPattern.FindStringSubmatch(subject)
	if m == nil {
		return Classified{Kind: Other, Description: subject, Body: body}
	}

	kind, known := ParseKind(m[1])
	if !known {
		return Classified{
			Kind:        Other,
			OtherType:   strings.ToLower(m[1]),
			Description: subject,
			Body:        body,
		}
	}

	return Classified{
		Kind:        kind,
		Scope:       strings.TrimSpace(m[2]),
		Breaking:    m[3] == "!" || hasBreakingFooter(rest),
		Description: strings.TrimSpace(m[4]),
		Body:        body,
	}
}

// ClassifyCommit classifies c.Message and links the result back to c.
func ClassifyCommit(c Commit) Classified {
	cc := Classify(c.Message)
	cc.Source = c
	return cc
}

// ClassifyAll classifies commits, preserving their order.
func ClassifyAll(commits []Commit) []Classified {
	out := make([]Classified, 0, len(commits))
	for _, c := range commits {
		out = append(out, ClassifyCommit(c))
	}
	return out
}

// splitMessage returns the trimmed first line and everything after it.
func splitMessage(message string) (string, string) {
	message = strings.ReplaceAll(message, "\r\n", "\n")
	message = strings.TrimLeft(message, "\n")
	subject, rest, _ := strings.Cut(message, "\n")
	return strings.TrimSpace(subject), rest
}

// hasBreakingFooter reports whether a BREAKING CHANGE footer appears after
// the blank line that separates the body from the footers.
func hasBreakingFooter(rest string) bool {
	afterBlank := false
	for _, line := range strings.Split(rest, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			afterBlank = true
			continue
		}
		if afterBlank && breakingFooterPattern.MatchString(trimmed) {
			return true
		}
	}
	return false
}
