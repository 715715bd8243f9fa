package pkgver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrParse is returned when no version can be extracted from the input text.
var ErrParse = errors.New("unable to parse version")

const (
	// coreComponents is the number of numeric components kept as major.minor.patch.
	coreComponents = 3

	// preReleaseSeparators may introduce a pre-release part after the numbers.
	preReleaseSeparators = "-_.~"

	// postReleaseMarker introduces a post-release part that is kept as build metadata.
	postReleaseMarker = "post"
)

var (
	// zero is used for the zero Version so comparisons never dereference nil.
	//nolint:gochecknoglobals // Immutable comparison helper.
	zero = semver.New(0, 0, 0, "", "")

	// releaseMarkers are suffixes some projects append to final releases.
	//nolint:gochecknoglobals // Read-only lookup table.
	releaseMarkers = map[string]struct{}{
		"final":   {},
		"ga":      {},
		"release": {},
		"stable":  {},
	}
)

// Version is a leniently parsed version that remembers the text it came from.
// Ordering and equality only look at the parsed fields; build metadata
// and the original text never take part in comparisons.
type Version struct {
	// parsed is the normalized semantic version.
	parsed *semver.Version
	// original is the exact text passed to Parse.
	original string
}

// Parse extracts a version from free-form text such as a tag name.
func Parse(text string) (Version, error) {
	trimmed := strings.TrimSpace(text)

	start := strings.IndexFunc(trimmed, isDigit)
	if start < 0 {
		return Version{}, fmt.Errorf("%w: %q has no numeric component", ErrParse, text)
	}

	numbers, rest := splitNumbers(trimmed[start:])

	core := make([]uint64, coreComponents)

	for i, number := range numbers {
		if i >= coreComponents {
			break
		}

		value, err := strconv.ParseUint(number, 10, 64)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q: %w", ErrParse, text, err)
		}

		core[i] = value
	}

	preRelease, metadata := splitSuffix(rest)
	if len(numbers) > coreComponents {
		metadata = joinIdentifiers(append(numbers[coreComponents:], metadata))
	}

	canonical := fmt.Sprintf("%d.%d.%d", core[0], core[1], core[2])
	if preRelease != "" {
		canonical += "-" + preRelease
	}

	if metadata != "" {
		canonical += "+" + metadata
	}

	parsed, err := semver.NewVersion(canonical)
	if err != nil {
		return Version{}, fmt.Errorf("%w: %q: %w", ErrParse, text, err)
	}

	return Version{
		parsed:   parsed,
		original: text,
	}, nil
}

// MustParse is like Parse but panics on error. Meant for constants and tests.
func MustParse(text string) Version {
	v, err := Parse(text)
	if err != nil {
		panic(err)
	}

	return v
}

// Major returns the major component.
func (v Version) Major() uint64 { return v.semver().Major() }

// Minor returns the minor component.
func (v Version) Minor() uint64 { return v.semver().Minor() }

// Patch returns the patch component.
func (v Version) Patch() uint64 { return v.semver().Patch() }

// Prerelease returns the normalized pre-release part, empty for releases.
func (v Version) Prerelease() string { return v.semver().Prerelease() }

// Metadata returns the normalized build metadata.
func (v Version) Metadata() string { return v.semver().Metadata() }

// IsPrerelease reports whether the version carries a pre-release part.
func (v Version) IsPrerelease() bool {
	return v.Prerelease() != ""
}

// IsZero reports whether v was never parsed.
func (v Version) IsZero() bool {
	return v.parsed == nil
}

// Compare returns -1, 0 or 1 following semantic version precedence.
func (v Version) Compare(other Version) int {
	return v.semver().Compare(other.semver())
}

// LessThan reports whether v orders before other.
func (v Version) LessThan(other Version) bool {
	return v.Compare(other) < 0
}

// GreaterThan reports whether v orders after other.
func (v Version) GreaterThan(other Version) bool {
	return v.Compare(other) > 0
}

// Equal reports whether both versions have the same precedence.
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// Original returns the text the version was parsed from.
func (v Version) Original() string {
	return v.original
}

// CleanOriginal returns the original text without a cosmetic "v" prefix.
// The prefix is only dropped when a digit follows it, so names like "vim-8"
// are returned untouched.
func (v Version) CleanOriginal() string {
	if len(v.original) >= 2 && v.original[0] == 'v' && isDigit(rune(v.original[1])) {
		return v.original[1:]
	}

	return v.original
}

// String returns the canonical major.minor.patch[-pre][+meta] form.
func (v Version) String() string {
	return v.semver().String()
}

func (v Version) semver() *semver.Version {
	if v.parsed == nil {
		return zero
	}

	return v.parsed
}

// splitNumbers consumes dot separated digit runs from the start of s.
func splitNumbers(s string) ([]string, string) {
	var numbers []string

	for {
		end := 0
		for end < len(s) && isDigit(rune(s[end])) {
			end++
		}

		numbers = append(numbers, s[:end])
		s = s[end:]

		if len(s) < 2 || s[0] != '.' || !isDigit(rune(s[1])) {
			return numbers, s
		}

		s = s[1:]
	}
}

// splitSuffix turns whatever follows the numbers into pre-release and metadata parts.
func splitSuffix(rest string) (string, string) {
	preRelease, metadata, _ := strings.Cut(rest, "+")

	if preRelease != "" && strings.ContainsRune(preReleaseSeparators, rune(preRelease[0])) {
		preRelease = preRelease[1:]
	}

	preRelease = sanitizeIdentifiers(preRelease, true)
	metadata = sanitizeIdentifiers(metadata, false)

	if _, ok := releaseMarkers[strings.ToLower(preRelease)]; ok {
		preRelease = ""
	}

	// Post-releases such as 1.0.post1 are final releases, not previews.
	if isPostRelease(preRelease) {
		metadata = joinIdentifiers([]string{preRelease, metadata})
		preRelease = ""
	}

	return preRelease, metadata
}

// isPostRelease reports whether s is a "post" marker with an optional number.
func isPostRelease(s string) bool {
	rest, ok := strings.CutPrefix(strings.ToLower(s), postReleaseMarker)
	if !ok {
		return false
	}

	rest = strings.TrimLeft(rest, ".-")

	return strings.IndexFunc(rest, func(r rune) bool { return !isDigit(r) }) < 0
}

// sanitizeIdentifiers rewrites s into dot separated semver identifiers.
// Characters outside [0-9A-Za-z-] become "-"; empty identifiers are dropped.
// Numeric pre-release identifiers lose their leading zeros.
func sanitizeIdentifiers(s string, trimZeros bool) string {
	if s == "" {
		return ""
	}

	parts := strings.Split(s, ".")
	identifiers := make([]string, 0, len(parts))

	for _, part := range parts {
		part = strings.Map(func(r rune) rune {
			if isDigit(r) || r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				return r
			}

			return '-'
		}, part)

		if part == "" {
			continue
		}

		if trimZeros && strings.IndexFunc(part, func(r rune) bool { return !isDigit(r) }) < 0 {
			part = strings.TrimLeft(part, "0")
			if part == "" {
				part = "0"
			}
		}

		identifiers = append(identifiers, part)
	}

	return joinIdentifiers(identifiers)
}

func joinIdentifiers(identifiers []string) string {
	nonEmpty := identifiers[:0:0]

	for _, identifier := range identifiers {
		if identifier != "" {
			nonEmpty = append(nonEmpty, identifier)
		}
	}

	return strings.Join(nonEmpty, ".")
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
