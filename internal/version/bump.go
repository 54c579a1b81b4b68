// Package version decides the next semantic version of a package from its
// classified commits. Versions are Masterminds semver values, which carry the
// standard precedence rules (pre-releases sort below the matching release and
// compare identifier by identifier).
package version

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/ariel-frischer/k-releaser/internal/conventional"
)

// Bump is the magnitude of a version increase.
// The zero value None is the identity for Max.
type Bump int

const (
	None Bump = iota
	Patch
	Minor
	Major
)

// ErrNoBump is returned by Apply when asked to apply None.
// No release is produced in that case; callers must not coerce it to Patch.
var ErrNoBump = errors.New("no version bump: nothing to release")

// String returns the lowercase bump name.
func (b Bump) String() string {
	switch b {
	case Major:
		return "major"
	case Minor:
		return "minor"
	case Patch:
		return "patch"
	default:
		return "none"
	}
}

// Max returns the larger of two bumps.
func Max(a, b Bump) Bump {
	if a > b {
		return a
	}
	return b
}

// BumpFor returns the bump a single commit justifies on its own.
func BumpFor(c conventional.Classified) Bump {
	switch {
	case c.Breaking:
		return Major
	case c.Kind == conventional.Feat:
		return Minor
	case c.Kind == conventional.Fix, c.Kind == conventional.Perf:
		return Patch
	default:
		return None
	}
}

// Compute folds commits into one bump by taking the maximum.
// An empty slice yields None.
func Compute(commits []conventional.Classified) Bump {
	b := None
	for _, c := range commits {
		b = Max(b, BumpFor(c))
		if b == Major {
			break
		}
	}
	return b
}

// Apply returns the version that follows current under b.
//
// Below 1.0.0 every bump shifts down one level: a breaking change bumps the
// minor number and a feature bumps the patch number. Pre-release and build
// metadata on current are always dropped.
func Apply(current *semver.Version, b Bump) (*semver.Version, error) {
	if current == nil {
		return nil, fmt.Errorf("current version is nil")
	}
	if b == None {
		return nil, ErrNoBump
	}

	major, minor, patch := current.Major(), current.Minor(), current.Patch()
	if major == 0 && b > Patch {
		b--
	}

	switch b {
	case Major:
		return semver.New(major+1, 0, 0, "", ""), nil
	case Minor:
		return semver.New(major, minor+1, 0, "", ""), nil
	default:
		return semver.New(major, minor, patch+1, "", ""), nil
	}
}

// Parse parses a full major.minor.patch version with an optional leading "v".
func Parse(s string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(strings.TrimPrefix(strings.TrimSpace(s), "v"))
	if err != nil {
		return nil, fmt.Errorf("parsing version %q: %w", s, err)
	}
	return v, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) *semver.Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}
