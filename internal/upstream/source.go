package upstream

import (
	"context"
	"errors"

	"github.com/oshokin/aur-autoupdater/internal/domain/filename"
	"github.com/oshokin/aur-autoupdater/internal/domain/pkgver"
)

var (
	// ErrUnsupportedHost is returned when no Source is registered for a download URL host.
	ErrUnsupportedHost = errors.New("unsupported host")
	// ErrMalformedURL is returned when a download URL cannot be interpreted.
	ErrMalformedURL = errors.New("malformed download url")
	// ErrMissingProjectName is returned when a PyPI URL does not carry a project name.
	ErrMissingProjectName = errors.New("missing project name")
	// ErrAlreadyFetched is returned when FetchLastVersion is called twice on one Source.
	ErrAlreadyFetched = errors.New("last version already fetched")
)

// Source queries one hosting provider for the newest qualifying release.
// A Source is built per check: FetchLastVersion runs once, then the
// accessors report its outcome.
type Source interface {
	// Name identifies the provider in logs.
	Name() string
	// FetchLastVersion looks up the newest release whose artifact matches tmpl.
	// Finding nothing is not an error; the accessors then report no result.
	FetchLastVersion(ctx context.Context, tmpl filename.Template) error
	// CurrentVersion is the version the check started from.
	CurrentVersion() pkgver.Version
	// RemoteVersion is the newest version found, if any.
	RemoteVersion() (pkgver.Version, bool)
	// DownloadURL is the artifact of RemoteVersion, if one was resolved.
	DownloadURL() (string, bool)
	// Candidate returns the resolved version and URL together.
	Candidate() (Candidate, bool)
	// HasNewerVersion reports whether RemoteVersion is strictly greater than CurrentVersion.
	HasNewerVersion() bool
}

// Candidate is a release found upstream. URL is empty when the release
// exists but no artifact matched.
type Candidate struct {
	Version pkgver.Version
	URL     string
}

// state holds what every Source tracks. Implementations embed it.
type state struct {
	current pkgver.Version
	remote  *pkgver.Version
	url     string
	fetched bool
}

func newState(current pkgver.Version) state {
	return state{current: current}
}

// begin marks the single allowed fetch.
func (s *state) begin() error {
	if s.fetched {
		return ErrAlreadyFetched
	}

	s.fetched = true

	return nil
}

// resolve records the outcome of a fetch.
func (s *state) resolve(c *Candidate) {
	if c == nil {
		return
	}

	v := c.Version
	s.remote = &v
	s.url = c.URL
}

func (s *state) CurrentVersion() pkgver.Version {
	return s.current
}

func (s *state) RemoteVersion() (pkgver.Version, bool) {
	if s.remote == nil {
		return pkgver.Version{}, false
	}

	return *s.remote, true
}

func (s *state) DownloadURL() (string, bool) {
	return s.url, s.url != ""
}

func (s *state) Candidate() (Candidate, bool) {
	if s.remote == nil {
		return Candidate{}, false
	}

	return Candidate{Version: *s.remote, URL: s.url}, true
}

func (s *state) HasNewerVersion() bool {
	return s.remote != nil && s.remote.GreaterThan(s.current)
}

// tracker keeps the running maximum of candidates. Equal versions never
// replace the incumbent, so the first one seen wins.
type tracker struct {
	best *Candidate
}

func (t *tracker) offer(v pkgver.Version, url string) {
	if t.best != nil && !v.GreaterThan(t.best.Version) {
		return
	}

	t.best = &Candidate{Version: v, URL: url}
}
