package packager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/aur-autoupdater/internal/config"
	"github.com/oshokin/aur-autoupdater/internal/logger"
	"github.com/oshokin/aur-autoupdater/internal/service/common"
)

const (
	// SrcInfoFilename is the machine-readable metadata AUR reads.
	SrcInfoFilename = ".SRCINFO"

	srcInfoPermissions = 0o644
)

// ErrBuildFailed is returned when makepkg fails.
var ErrBuildFailed = errors.New("package build failed")

// Builder runs makepkg inside package clones.
type Builder struct {
	runner  common.Runner
	command string
	args    []string
	env     []string
}

// NewBuilder creates a Builder from the build section of the configuration.
func NewBuilder(runner common.Runner, build config.Build) *Builder {
	return &Builder{
		runner:  runner,
		command: build.Command,
		args:    append([]string(nil), build.Args...),
		env:     append([]string(nil), build.Env...),
	}
}

// Build makes the package to prove the updated PKGBUILD still works.
func (b *Builder) Build(ctx context.Context, directory string) error {
	logger.InfoKV(ctx, "Running package build", "command", b.command)

	err := b.runner.Run(ctx, common.Command{
		Name: b.command,
		Args: b.args,
		Dir:  directory,
		Env:  b.env,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}

	return nil
}

// WriteSrcInfo replaces .SRCINFO with the output of makepkg --printsrcinfo.
// The file is only replaced once the whole output was produced.
func (b *Builder) WriteSrcInfo(ctx context.Context, directory string) error {
	var out bytes.Buffer

	err := b.runner.Run(ctx, common.Command{
		Name:   b.command,
		Args:   []string{"--printsrcinfo"},
		Dir:    directory,
		Env:    b.env,
		Stdout: &out,
	})
	if err != nil {
		return fmt.Errorf("%w: print .SRCINFO: %w", ErrBuildFailed, err)
	}

	if out.Len() == 0 {
		return fmt.Errorf("%w: empty .SRCINFO", ErrBuildFailed)
	}

	path := filepath.Join(directory, SrcInfoFilename)
	temporary := path + ".tmp"

	if err = os.WriteFile(temporary, out.Bytes(), srcInfoPermissions); err != nil {
		return fmt.Errorf("write %s: %w", temporary, err)
	}

	if err = os.Rename(temporary, path); err != nil {
		_ = os.Remove(temporary)

		return fmt.Errorf("replace %s: %w", path, err)
	}

	logger.DebugKV(ctx, "Updated .SRCINFO", "path", path, "bytes", out.Len())

	return nil
}
