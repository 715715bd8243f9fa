package updater

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/aur-autoupdater/internal/service/common"
)

const (
	payloadDigest = "d8b2af1c85cdb4588e978aed5875e12cbfd20f68009823cf914b40cf41d8e4ce"
	emptyDigest   = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

func testPayload() []byte {
	return bytes.Repeat([]byte("0123456789abcdef"), 4096)
}

// TestHasher_Compute yields the same digest whether the body arrives at once or in chunks.
func TestHasher_Compute(t *testing.T) {
	t.Parallel()

	payload := testPayload()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /whole.tar.gz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	})
	mux.HandleFunc("GET /chunked.tar.gz", func(w http.ResponseWriter, _ *http.Request) {
		flusher, ok := w.(http.Flusher)
		assert.True(t, ok)

		for chunk := range slices.Chunk(payload, 1000) {
			_, _ = w.Write(chunk)

			if ok {
				flusher.Flush()
			}
		}
	})
	mux.HandleFunc("GET /empty.tar.gz", func(http.ResponseWriter, *http.Request) {})

	server := httptest.NewServer(mux)
	defer server.Close()

	hasher := NewHasher(common.New())

	for path, expected := range map[string]string{
		"/whole.tar.gz":   payloadDigest,
		"/chunked.tar.gz": payloadDigest,
		"/empty.tar.gz":   emptyDigest,
	} {
		sum, err := hasher.Compute(context.Background(), server.URL+path)
		require.NoError(t, err, path)
		require.Equal(t, expected, sum, path)
	}
}

// TestHasher_ComputeStatus reports non-success statuses as network errors.
func TestHasher_ComputeStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := NewHasher(common.New()).Compute(context.Background(), server.URL+"/missing.tar.gz")
	require.ErrorIs(t, err, common.ErrNetwork)
}
