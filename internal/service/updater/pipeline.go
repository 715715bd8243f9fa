package updater

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oshokin/aur-autoupdater/internal/domain/filename"
	"github.com/oshokin/aur-autoupdater/internal/domain/pkgver"
	"github.com/oshokin/aur-autoupdater/internal/logger"
	"github.com/oshokin/aur-autoupdater/internal/upstream"
)

// ErrMissingDownloadTarget is returned when a newer version exists but no artifact could be resolved for it.
var ErrMissingDownloadTarget = errors.New("newer version has no download target")

// Stage is how far a package got through the pipeline.
type Stage int

const (
	// StageMetadataParsed means the build metadata was read.
	StageMetadataParsed Stage = iota
	// StageVersionChecked means the upstream was queried.
	StageVersionChecked
	// StageNoUpdate means the package is already on the newest version.
	StageNoUpdate
	// StageUpdated means a newer version with a download target was found.
	StageUpdated
	// StageMutationApplied means the package definition was rewritten.
	StageMutationApplied
)

// String returns the stage name used in logs.
func (s Stage) String() string {
	switch s {
	case StageMetadataParsed:
		return "metadata-parsed"
	case StageVersionChecked:
		return "version-checked"
	case StageNoUpdate:
		return "no-update"
	case StageUpdated:
		return "updated"
	case StageMutationApplied:
		return "mutation-applied"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

type (
	// Checker looks up the newest upstream release. *upstream.Resolver implements it.
	Checker interface {
		Check(
			ctx context.Context,
			downloadURL string,
			current pkgver.Version,
			tmpl filename.Template,
		) (upstream.Source, error)
	}

	// Digester hashes remote artifacts. *Hasher implements it.
	Digester interface {
		Compute(ctx context.Context, url string) (string, error)
	}

	// Pipeline decides and applies the update of one package definition.
	Pipeline struct {
		checker Checker
		hasher  Digester
	}

	// Decision is the outcome of the version check.
	Decision struct {
		// Stage is StageNoUpdate or StageUpdated.
		Stage Stage
		// Template is the artifact file name template derived from the current source.
		Template filename.Template
		// Current is the version the check started from.
		Current pkgver.Version
		// Remote is the newest upstream version; zero when nothing was found.
		Remote pkgver.Version
		// DownloadURL is the artifact of Remote when Stage is StageUpdated.
		DownloadURL string
	}

	// Result is the outcome of Pipeline.Update.
	Result struct {
		// Stage is StageNoUpdate or StageMutationApplied.
		Stage Stage
		// Contents is the rewritten package definition, or the input when nothing changed.
		Contents string
		// Label is the commit message of the update.
		Label string
		// RemoteVersion is the version the package was moved to.
		RemoteVersion pkgver.Version
		// DownloadURL is the artifact of RemoteVersion.
		DownloadURL string
		// Checksum is the sha256 of DownloadURL.
		Checksum string
	}
)

// NewPipeline creates a Pipeline.
func NewPipeline(checker Checker, hasher Digester) *Pipeline {
	return &Pipeline{
		checker: checker,
		hasher:  hasher,
	}
}

// Decide checks upstream for a version newer than meta.Version.
func (p *Pipeline) Decide(ctx context.Context, meta *Metadata) (*Decision, error) {
	tmpl, err := filename.Derive(meta.Source, meta.Version)
	if err != nil {
		return nil, fmt.Errorf("derive file name template: %w", err)
	}

	if !tmpl.HasPlaceholder() {
		logger.DebugKV(ctx, "Version not found in the file name, matching it literally", "template", tmpl.String())
	}

	source, err := p.checker.Check(ctx, meta.Source, meta.Version, tmpl)
	if err != nil {
		return nil, fmt.Errorf("check upstream: %w", err)
	}

	decision := &Decision{
		Stage:    StageNoUpdate,
		Template: tmpl,
		Current:  meta.Version,
	}

	if remote, ok := source.RemoteVersion(); ok {
		decision.Remote = remote
	}

	if !source.HasNewerVersion() {
		return decision, nil
	}

	downloadURL, ok := source.DownloadURL()
	if !ok {
		return nil, fmt.Errorf("%w: version %s, template %q", ErrMissingDownloadTarget,
			decision.Remote.Original(), tmpl.String())
	}

	decision.Stage = StageUpdated
	decision.DownloadURL = downloadURL

	return decision, nil
}

// Update runs Decide and, when a newer version exists, hashes its artifact
// and rewrites contents. meta is moved to the new release on success.
func (p *Pipeline) Update(ctx context.Context, meta *Metadata, contents string) (*Result, error) {
	decision, err := p.Decide(ctx, meta)
	if err != nil {
		return nil, err
	}

	if decision.Stage == StageNoUpdate {
		logger.InfoKV(ctx, "Already on the latest version", "version", meta.Version.Original())

		return &Result{
			Stage:    StageNoUpdate,
			Contents: contents,
		}, nil
	}

	checksum, err := p.hasher.Compute(ctx, decision.DownloadURL)
	if err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	logger.InfoKV(ctx, "Updating version",
		"current_version", meta.Version.Original(),
		"current_hash", meta.Checksum,
		"remote_version", decision.Remote.Original(),
		"remote_hash", checksum,
	)

	if meta.Checksum == "" {
		logger.Warn(ctx, "No current checksum, leaving sums untouched")
	}

	updated := ApplyUpdate(contents, meta.Version, decision.Remote, meta.Checksum, checksum)

	logger.DebugKV(ctx, "Final PKGBUILD file", "contents", updated)

	meta.Version = decision.Remote
	meta.Source = decision.DownloadURL
	meta.Checksum = checksum

	return &Result{
		Stage:         StageMutationApplied,
		Contents:      updated,
		Label:         Label(decision.Remote),
		RemoteVersion: decision.Remote,
		DownloadURL:   decision.DownloadURL,
		Checksum:      checksum,
	}, nil
}

// ApplyUpdate replaces every occurrence of the current version text with the
// cleaned remote version and every occurrence of oldHash with newHash.
// An empty oldHash leaves hashes untouched. Digests are substituted whole, so a
// short version such as "1" inside a hex digest is never rewritten.
func ApplyUpdate(contents string, current, remote pkgver.Version, oldHash, newHash string) string {
	if oldHash == "" {
		return strings.ReplaceAll(contents, current.Original(), remote.CleanOriginal())
	}

	parts := strings.Split(contents, oldHash)
	for i, part := range parts {
		parts[i] = strings.ReplaceAll(part, current.Original(), remote.CleanOriginal())
	}

	return strings.Join(parts, newHash)
}

// Label is the commit message of an update to remote.
func Label(remote pkgver.Version) string {
	return "Update to version " + remote.String()
}
