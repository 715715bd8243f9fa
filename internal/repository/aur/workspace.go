package aur

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/aur-autoupdater/internal/logger"
	"github.com/oshokin/aur-autoupdater/internal/service/common"
)

// cacheDirPermissions is used for the parent of clones.
const cacheDirPermissions = 0o750

// ErrGit is returned when a git command fails.
var ErrGit = errors.New("git command failed")

// Workspace runs the git steps of an update inside package clones.
type Workspace struct {
	runner common.Runner
	branch string
}

// NewWorkspace creates a Workspace resetting clones to origin/branch.
func NewWorkspace(runner common.Runner, branch string) *Workspace {
	return &Workspace{
		runner: runner,
		branch: branch,
	}
}

// Sync clones repository into directory if needed, then discards local
// changes by resetting to the remote branch.
func (w *Workspace) Sync(ctx context.Context, repository, directory string) error {
	_, err := os.Stat(directory)

	switch {
	case errors.Is(err, os.ErrNotExist):
		if err = w.clone(ctx, repository, directory); err != nil {
			return err
		}
	case err != nil:
		return fmt.Errorf("stat clone directory: %w", err)
	}

	logger.DebugKV(ctx, "Cleaning up the clone", "branch", w.branch)

	if err = w.git(ctx, directory, "remote", "update", "-p"); err != nil {
		return fmt.Errorf("update remote: %w", err)
	}

	if err = w.git(ctx, directory, "reset", "--hard", "origin/"+w.branch); err != nil {
		return fmt.Errorf("reset to %s: %w", w.branch, err)
	}

	return nil
}

// Commit records every tracked change with message.
func (w *Workspace) Commit(ctx context.Context, directory, message string) error {
	if err := w.git(ctx, directory, "commit", "-am", message); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// Push publishes the current branch.
func (w *Workspace) Push(ctx context.Context, directory string) error {
	if err := w.git(ctx, directory, "push"); err != nil {
		return fmt.Errorf("push: %w", err)
	}

	return nil
}

func (w *Workspace) clone(ctx context.Context, repository, directory string) error {
	logger.InfoKV(ctx, "Cloning repository", "repository", repository, "directory", directory)

	parent := filepath.Dir(directory)
	if err := os.MkdirAll(parent, cacheDirPermissions); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	if err := w.git(ctx, parent, "clone", "-v", repository, directory); err != nil {
		return fmt.Errorf("clone %s: %w", repository, err)
	}

	return nil
}

func (w *Workspace) git(ctx context.Context, directory string, args ...string) error {
	err := w.runner.Run(ctx, common.Command{
		Name: "git",
		Args: args,
		Dir:  directory,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrGit, err)
	}

	return nil
}
