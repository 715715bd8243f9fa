package upstream

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/aur-autoupdater/internal/domain/filename"
	"github.com/oshokin/aur-autoupdater/internal/domain/pkgver"
)

const configUpdaterURL = "https://files.pythonhosted.org/packages/source/X/X/X-2.0.tar.gz"

func pypiResolver(t *testing.T, body string) *Resolver {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /pypi/X/json", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, body)
	})

	return newTestResolver(t, mux)
}

// TestPyPI_MatchingFile returns the file named after the newest stable release.
func TestPyPI_MatchingFile(t *testing.T) {
	t.Parallel()

	resolver := pypiResolver(t, `{"releases": {
		"2.0": [{"filename": "X-2.0.tar.gz", "url": "OLD"}],
		"3.0.1": [
			{"filename": "X-3.0.1-py3-none-any.whl", "url": "WHEEL"},
			{"filename": "X-3.0.1.tar.gz", "url": "U"}
		],
		"3.1.0b1": [{"filename": "X-3.1.0b1.tar.gz", "url": "BETA"}],
		"not-a-version": []
	}}`)

	current := pkgver.MustParse("2.0")

	tmpl, err := filename.Derive(configUpdaterURL, current)
	require.NoError(t, err)

	source, err := resolver.Check(context.Background(), configUpdaterURL, current, tmpl)
	require.NoError(t, err)
	require.True(t, source.HasNewerVersion())

	candidate, ok := source.Candidate()
	require.True(t, ok)
	require.Equal(t, "3.0.1", candidate.Version.Original())
	require.Equal(t, "U", candidate.URL)
}

// TestPyPI_NoMatchingFile still reports the newer version without a download URL.
func TestPyPI_NoMatchingFile(t *testing.T) {
	t.Parallel()

	resolver := pypiResolver(t, `{"releases": {
		"2.0": [{"filename": "X-2.0.tar.gz", "url": "OLD"}],
		"3.0.1": [{"filename": "x-3.0.1.tar.gz", "url": "U"}]
	}}`)

	current := pkgver.MustParse("2.0")

	tmpl, err := filename.Derive(configUpdaterURL, current)
	require.NoError(t, err)

	source, err := resolver.Check(context.Background(), configUpdaterURL, current, tmpl)
	require.NoError(t, err)
	require.True(t, source.HasNewerVersion())

	remote, ok := source.RemoteVersion()
	require.True(t, ok)
	require.Equal(t, "3.0.1", remote.Original())

	_, ok = source.DownloadURL()
	require.False(t, ok)
}

// TestPyPI_PostRelease treats a post-release as a final release.
func TestPyPI_PostRelease(t *testing.T) {
	t.Parallel()

	resolver := pypiResolver(t, `{"releases": {
		"2.0": [{"filename": "X-2.0.tar.gz", "url": "OLD"}],
		"2.0.1.post1": [{"filename": "X-2.0.1.post1.tar.gz", "url": "POST"}]
	}}`)

	current := pkgver.MustParse("2.0")

	tmpl, err := filename.Derive(configUpdaterURL, current)
	require.NoError(t, err)

	source, err := resolver.Check(context.Background(), configUpdaterURL, current, tmpl)
	require.NoError(t, err)
	require.True(t, source.HasNewerVersion())

	candidate, ok := source.Candidate()
	require.True(t, ok)
	require.Equal(t, "2.0.1.post1", candidate.Version.Original())
	require.Equal(t, "POST", candidate.URL)
}

// TestPyPI_OnlyPrereleases finds nothing when every newer release is a pre-release.
func TestPyPI_OnlyPrereleases(t *testing.T) {
	t.Parallel()

	resolver := pypiResolver(t, `{"releases": {"3.0.0rc1": [{"filename": "X-3.0.0rc1.tar.gz", "url": "RC"}]}}`)

	source, err := resolver.Check(context.Background(), configUpdaterURL, pkgver.MustParse("2.0"),
		filename.Template("X-2.0.tar.gz"))
	require.NoError(t, err)
	require.False(t, source.HasNewerVersion())

	_, ok := source.RemoteVersion()
	require.False(t, ok)
}

// TestLatestStable_TieBreak prefers the lexically smallest key among equal versions.
func TestLatestStable_TieBreak(t *testing.T) {
	t.Parallel()

	winner, ok := latestStable(context.Background(), map[string][]pypiFile{
		"1.2.0": nil,
		"1.2":   nil,
		"1.1.9": nil,
	})
	require.True(t, ok)
	require.Equal(t, "1.2", winner.key)
}

// TestNewPyPI_Project reads the project from the fifth path segment.
func TestNewPyPI_Project(t *testing.T) {
	t.Parallel()

	source, err := NewResolver(nil).Resolve(
		"https://files.pythonhosted.org/packages/source/C/ConfigUpdater/ConfigUpdater-2.0.tar.gz",
		pkgver.MustParse("2.0"))
	require.NoError(t, err)

	pypi, ok := source.(*PyPI)
	require.True(t, ok)
	require.Equal(t, "ConfigUpdater", pypi.Project())
}
