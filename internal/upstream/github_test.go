package upstream

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/aur-autoupdater/internal/domain/filename"
	"github.com/oshokin/aur-autoupdater/internal/domain/pkgver"
)

const testPackageURL = "https://github.com/acme/test-package/releases/download/0.1.0/test-package-0.1.0.tar.gz"

func testPackageTemplate(t *testing.T) filename.Template {
	t.Helper()

	tmpl, err := filename.Derive(testPackageURL, pkgver.MustParse("0.1.0"))
	require.NoError(t, err)

	return tmpl
}

// TestGitHub_ReleaseAsset picks the release asset matching the template.
func TestGitHub_ReleaseAsset(t *testing.T) {
	t.Parallel()

	assetURL := "https://github.com/acme/test-package/releases/download/0.1.1/test-package-0.1.1.tar.gz"

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/test-package/releases", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Equal(t, githubAPIVersion, r.Header.Get("X-GitHub-Api-Version"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))

		writeJSON(w, fmt.Sprintf(`[
			{"tag_name": "nightly", "assets": []},
			{"tag_name": "0.1.1", "assets": [
				{"browser_download_url": "https://github.com/acme/test-package/releases/download/0.1.1/checksums.txt"},
				{"browser_download_url": %q}
			]},
			{"tag_name": "0.0.9", "assets": [
				{"browser_download_url": "https://github.com/acme/test-package/releases/download/0.0.9/test-package-0.0.9.tar.gz"}
			]}
		]`, assetURL))
	})
	mux.HandleFunc("GET /repos/acme/test-package/tags", func(http.ResponseWriter, *http.Request) {
		t.Error("tags must not be listed when a release asset matches")
	})

	resolver := newTestResolver(t, mux, WithGitHubToken("secret"))

	source, err := resolver.Check(context.Background(), testPackageURL, pkgver.MustParse("0.1.0"), testPackageTemplate(t))
	require.NoError(t, err)
	require.True(t, source.HasNewerVersion())

	remote, ok := source.RemoteVersion()
	require.True(t, ok)
	require.Equal(t, "0.1.1", remote.Original())

	downloadURL, ok := source.DownloadURL()
	require.True(t, ok)
	require.Equal(t, assetURL, downloadURL)
}

// TestGitHub_EqualVersionsKeepFirst never replaces the incumbent with an equal version.
func TestGitHub_EqualVersionsKeepFirst(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/test-package/releases", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `[
			{"tag_name": "v0.2.0", "assets": [
				{"browser_download_url": "https://github.com/acme/test-package/releases/download/v0.2.0/test-package-0.2.0.tar.gz"}
			]},
			{"tag_name": "0.2", "assets": [
				{"browser_download_url": "https://github.com/acme/test-package/releases/download/0.2/test-package-0.2.tar.gz"}
			]}
		]`)
	})

	resolver := newTestResolver(t, mux)

	source, err := resolver.Check(context.Background(), testPackageURL, pkgver.MustParse("0.1.0"), testPackageTemplate(t))
	require.NoError(t, err)

	candidate, ok := source.Candidate()
	require.True(t, ok)
	require.Equal(t, "v0.2.0", candidate.Version.Original())
	require.Contains(t, candidate.URL, "/v0.2.0/")
}

// TestGitHub_TagFallback synthesizes an archive URL when no asset matches.
func TestGitHub_TagFallback(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/test-package/releases", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `[{"tag_name": "0.3.0", "assets": [
			{"browser_download_url": "https://github.com/acme/test-package/releases/download/0.3.0/other.zip"}
		]}]`)
	})
	mux.HandleFunc("GET /repos/acme/test-package/tags", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `[{"name": "latest"}, {"name": "v0.2.0"}, {"name": "0.1.5"}, {"name": "0.0.1"}]`)
	})

	resolver := newTestResolver(t, mux)

	source, err := resolver.Check(context.Background(), testPackageURL, pkgver.MustParse("0.1.0"), testPackageTemplate(t))
	require.NoError(t, err)
	require.True(t, source.HasNewerVersion())

	candidate, ok := source.Candidate()
	require.True(t, ok)
	require.Equal(t, "v0.2.0", candidate.Version.Original())
	require.Equal(t, "https://github.com/acme/test-package/archive/refs/tags/v0.2.0.tar.gz", candidate.URL)
}

// TestGitHub_NothingNewer reports the current release without claiming an update.
func TestGitHub_NothingNewer(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/test-package/releases", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `[]`)
	})
	mux.HandleFunc("GET /repos/acme/test-package/tags", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `[{"name": "0.1.0"}]`)
	})

	resolver := newTestResolver(t, mux)

	source, err := resolver.Check(context.Background(), testPackageURL, pkgver.MustParse("0.1.0"), testPackageTemplate(t))
	require.NoError(t, err)
	require.False(t, source.HasNewerVersion())

	remote, ok := source.RemoteVersion()
	require.True(t, ok)
	require.True(t, remote.Equal(pkgver.MustParse("0.1.0")))
}

// TestGitHub_Pagination follows rel="next" links across pages.
func TestGitHub_Pagination(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/test-package/releases", func(w http.ResponseWriter, r *http.Request) {
		baseURL := "http://" + r.Host

		switch r.URL.Query().Get("page") {
		case "":
			w.Header().Set("Link",
				fmt.Sprintf(`<%s/repos/acme/test-package/releases?page=2>; rel="next", <%s/last>; rel="last"`, baseURL, baseURL))
			writeJSON(w, `[{"tag_name": "0.1.1", "assets": [
				{"browser_download_url": "https://github.com/acme/test-package/releases/download/0.1.1/test-package-0.1.1.tar.gz"}
			]}]`)
		case "2":
			writeJSON(w, `[{"tag_name": "0.4.0", "assets": [
				{"browser_download_url": "https://github.com/acme/test-package/releases/download/0.4.0/test-package-0.4.0.tar.gz"}
			]}]`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})

	resolver := newTestResolver(t, mux)

	source, err := resolver.Check(context.Background(), testPackageURL, pkgver.MustParse("0.1.0"), testPackageTemplate(t))
	require.NoError(t, err)

	remote, ok := source.RemoteVersion()
	require.True(t, ok)
	require.Equal(t, "0.4.0", remote.String())
}

// TestNextPageURL extracts only the rel="next" target.
func TestNextPageURL(t *testing.T) {
	t.Parallel()

	require.Equal(t, "https://api.github.com/x?page=2",
		nextPageURL(`<https://api.github.com/x?page=2>; rel="next", <https://api.github.com/x?page=5>; rel="last"`))
	require.Empty(t, nextPageURL(`<https://api.github.com/x?page=1>; rel="prev"`))
	require.Empty(t, nextPageURL(""))
	require.Empty(t, nextPageURL(`garbage; rel="next"`))
}
