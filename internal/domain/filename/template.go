// Package filename derives version-agnostic filename templates from download
// URLs and renders them back for candidate versions.
package filename

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/oshokin/aur-autoupdater/internal/domain/pkgver"
)

// Placeholder marks the version dependent part of a template.
const Placeholder = "_VERSION_PLACEHOLDER_"

// ErrNoFileSegment is returned when a download URL does not end with a file name.
var ErrNoFileSegment = errors.New("download url has no file segment")

// Template is a download file name with its version replaced by Placeholder.
type Template string

// Derive builds a template from the last path segment of downloadURL by
// replacing every occurrence of the canonical form of current.
func Derive(downloadURL string, current pkgver.Version) (Template, error) {
	parsed, err := url.Parse(downloadURL)
	if err != nil {
		return "", fmt.Errorf("parse download url %q: %w", downloadURL, err)
	}

	segments := strings.Split(strings.TrimPrefix(parsed.Path, "/"), "/")

	name := segments[len(segments)-1]
	if name == "" {
		return "", fmt.Errorf("%w: %q", ErrNoFileSegment, downloadURL)
	}

	return Template(strings.ReplaceAll(name, current.String(), Placeholder)), nil
}

// Render substitutes the placeholder with the original text of v.
func (t Template) Render(v pkgver.Version) string {
	return strings.ReplaceAll(string(t), Placeholder, v.Original())
}

// RenderFrom renders the template for next and also rewrites literal
// occurrences of current, which covers file names whose version was written
// in a shorter form than the canonical one.
func (t Template) RenderFrom(current, next pkgver.Version) string {
	if current.Original() == "" {
		return t.Render(next)
	}

	// Rewrite the raw template first so the freshly inserted version is never
	// rewritten again when it contains the current one.
	return Template(strings.ReplaceAll(string(t), current.Original(), next.Original())).Render(next)
}

// Matches reports whether candidateURL contains the template rendered for v.
// The original, cleaned and canonical spellings of v are all tried so a tag
// named "v1.2.0" still matches an asset called "tool-1.2.0.tar.gz".
func (t Template) Matches(candidateURL string, v pkgver.Version) bool {
	seen := make(map[string]struct{}, 3)

	for _, spelling := range []string{v.Original(), v.CleanOriginal(), v.String()} {
		if _, ok := seen[spelling]; ok {
			continue
		}

		seen[spelling] = struct{}{}

		if strings.Contains(candidateURL, strings.ReplaceAll(string(t), Placeholder, spelling)) {
			return true
		}
	}

	return false
}

// HasPlaceholder reports whether derivation found the version in the file name.
func (t Template) HasPlaceholder() bool {
	return strings.Contains(string(t), Placeholder)
}

// String returns the raw template.
func (t Template) String() string {
	return string(t)
}
