package updater

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/oshokin/aur-autoupdater/internal/logger"
	"github.com/oshokin/aur-autoupdater/internal/service/common"
)

// Hasher computes the sha256 of remote artifacts.
type Hasher struct {
	client *common.Client
}

// NewHasher creates a Hasher downloading through client.
func NewHasher(client *common.Client) *Hasher {
	return &Hasher{client: client}
}

// Compute streams the body at url into a sha256 digest and returns it as
// lowercase hex. The served bytes are trusted as they are.
func (h *Hasher) Compute(ctx context.Context, url string) (string, error) {
	logger.InfoKV(ctx, "Calculating hash for the download URL", "url", url)

	digest := sha256.New()

	written, err := h.client.Stream(ctx, url, digest)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", url, err)
	}

	sum := hex.EncodeToString(digest.Sum(nil))

	logger.InfoKV(ctx, "Hash calculated", "sha256", sum, "bytes", written)

	return sum, nil
}
