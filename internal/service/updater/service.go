package updater

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/multierr"

	"github.com/oshokin/aur-autoupdater/internal/logger"
)

// ErrBatchFailed is returned when at least one package of a batch failed.
var ErrBatchFailed = errors.New("some packages failed to update")

type (
	// Workspace keeps the local clone of a package repository.
	Workspace interface {
		// Sync clones repository into directory when missing and resets it to the remote branch.
		Sync(ctx context.Context, repository, directory string) error
		// Commit records every tracked change with message.
		Commit(ctx context.Context, directory, message string) error
		// Push publishes the commits.
		Push(ctx context.Context, directory string) error
	}

	// Evaluator runs a PKGBUILD and returns its key=value metadata lines.
	Evaluator interface {
		Evaluate(ctx context.Context, pkgbuildPath string) ([]string, error)
	}

	// Builder rebuilds a package and regenerates its .SRCINFO.
	Builder interface {
		Build(ctx context.Context, directory string) error
		WriteSrcInfo(ctx context.Context, directory string) error
	}

	// Lister returns the packages maintained by an AUR user.
	Lister interface {
		ListUserPackages(ctx context.Context, username string) ([]string, error)
	}

	// Locator maps a package name to its repository and clone directory.
	Locator func(name string) Package

	// Dependencies are the collaborators of a Service.
	Dependencies struct {
		Locate    Locator
		Workspace Workspace
		Evaluator Evaluator
		Builder   Builder
		Lister    Lister
	}

	// Service processes packages one after another.
	Service struct {
		Dependencies

		pipeline *Pipeline
	}
)

// NewService creates a Service running pipeline.
func NewService(pipeline *Pipeline, deps Dependencies) *Service {
	return &Service{
		Dependencies: deps,
		pipeline:     pipeline,
	}
}

// ProcessPackage brings the named package to its newest upstream version and publishes it.
// Every error is wrapped with the package name.
func (s *Service) ProcessPackage(ctx context.Context, name string) (*Result, error) {
	ctx = logger.WithKV(ctx, "package", name)

	logger.Info(ctx, "Processing")

	result, err := s.processPackage(ctx, s.Locate(name))
	if err != nil {
		return nil, fmt.Errorf("package %s: %w", name, err)
	}

	return result, nil
}

func (s *Service) processPackage(ctx context.Context, pkg Package) (*Result, error) {
	if err := s.Workspace.Sync(ctx, pkg.Repository, pkg.Directory); err != nil {
		return nil, fmt.Errorf("sync repository: %w", err)
	}

	lines, err := s.Evaluator.Evaluate(ctx, pkg.PKGBUILD())
	if err != nil {
		return nil, fmt.Errorf("evaluate PKGBUILD: %w", err)
	}

	meta, err := ParseMetadata(lines)
	if err != nil {
		return nil, fmt.Errorf("parse PKGBUILD metadata: %w", err)
	}

	logger.DebugKV(ctx, "Stage reached", "stage", StageMetadataParsed.String(),
		"version", meta.Version.Original(), "source", meta.Source)

	info, err := os.Stat(pkg.PKGBUILD())
	if err != nil {
		return nil, fmt.Errorf("stat PKGBUILD: %w", err)
	}

	contents, err := os.ReadFile(pkg.PKGBUILD())
	if err != nil {
		return nil, fmt.Errorf("read PKGBUILD: %w", err)
	}

	result, err := s.pipeline.Update(ctx, meta, string(contents))
	if err != nil {
		return nil, err
	}

	if result.Stage == StageNoUpdate {
		return result, nil
	}

	if err = os.WriteFile(pkg.PKGBUILD(), []byte(result.Contents), info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("write PKGBUILD: %w", err)
	}

	logger.Info(ctx, "Building package")

	if err = s.Builder.Build(ctx, pkg.Directory); err != nil {
		return nil, fmt.Errorf("build package: %w", err)
	}

	if err = s.Builder.WriteSrcInfo(ctx, pkg.Directory); err != nil {
		return nil, fmt.Errorf("write .SRCINFO: %w", err)
	}

	logger.InfoKV(ctx, "Publishing", "label", result.Label)

	if err = s.Workspace.Commit(ctx, pkg.Directory, result.Label); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if err = s.Workspace.Push(ctx, pkg.Directory); err != nil {
		return nil, fmt.Errorf("push: %w", err)
	}

	logger.InfoKV(ctx, "Package updated", "version", result.RemoteVersion.String())

	return result, nil
}

// ProcessPackages processes names strictly in order. A failing package is
// logged and does not stop the rest; the result is nil only when all succeeded.
func (s *Service) ProcessPackages(ctx context.Context, names []string) error {
	var (
		errs   error
		failed int
	)

	for _, name := range names {
		if _, err := s.ProcessPackage(ctx, name); err != nil {
			logger.ErrorKV(ctx, "Failed to process package", "package", name, "error", err)

			errs = multierr.Append(errs, err)
			failed++
		}
	}

	if errs != nil {
		return multierr.Combine(fmt.Errorf("%w: %d of %d", ErrBatchFailed, failed, len(names)), errs)
	}

	logger.InfoKV(ctx, "All packages processed", "count", len(names))

	return nil
}

// ProcessUser processes every package maintained by username.
func (s *Service) ProcessUser(ctx context.Context, username string) error {
	ctx = logger.WithKV(ctx, "user", username)

	names, err := s.Lister.ListUserPackages(ctx, username)
	if err != nil {
		return fmt.Errorf("list packages of %s: %w", username, err)
	}

	logger.InfoKV(ctx, "Found packages", "count", len(names))

	return s.ProcessPackages(ctx, names)
}
