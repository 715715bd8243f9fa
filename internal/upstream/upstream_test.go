package upstream

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oshokin/aur-autoupdater/internal/service/common"
)

// newTestResolver points both providers at a test server serving handler.
func newTestResolver(t *testing.T, handler http.Handler, opts ...ResolverOption) *Resolver {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]ResolverOption{
		WithGitHubBaseURL(server.URL),
		WithPyPIBaseURL(server.URL + "/pypi/"),
	}, opts...)

	return NewResolver(common.New(common.WithUserAgent("upstream-test")), opts...)
}

// writeJSON serves a canned JSON body.
func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}
