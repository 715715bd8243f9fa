//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/oshokin/aur-autoupdater/internal/logger"
)

// stderrTailBytes is how much of a failing command's stderr ends up in its error.
const stderrTailBytes = 2 << 10

type (
	// Command describes one invocation of an external program.
	Command struct {
		// Name is the executable, looked up in PATH.
		Name string
		// Args are passed to Name.
		Args []string
		// Dir is the working directory; empty means the current one.
		Dir string
		// Env is appended to the process environment.
		Env []string
		// Stdout receives the standard output; nil forwards it to stderr so
		// stdout stays reserved for command results.
		Stdout io.Writer
	}

	// Runner executes external programs. Services depend on it so tests can
	// record invocations instead of running git or makepkg.
	Runner interface {
		Run(ctx context.Context, cmd Command) error
	}

	// ExecRunner runs commands with os/exec.
	ExecRunner struct{}
)

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Run starts cmd and waits for it. A non-zero exit is an error carrying the
// end of the command's stderr.
func (ExecRunner) Run(ctx context.Context, cmd Command) error {
	logger.DebugKV(ctx, "Running command", "command", cmd.String(), "dir", cmd.Dir)

	//nolint:gosec // Commands come from configuration and fixed call sites.
	process := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	process.Dir = cmd.Dir
	process.Env = append(os.Environ(), cmd.Env...)

	process.Stdout = cmd.Stdout
	if process.Stdout == nil {
		process.Stdout = os.Stderr
	}

	var stderr bytes.Buffer

	process.Stderr = io.MultiWriter(os.Stderr, &stderr)

	if err := process.Run(); err != nil {
		tail := stderr.Bytes()
		if len(tail) > stderrTailBytes {
			tail = tail[len(tail)-stderrTailBytes:]
		}

		if message := strings.TrimSpace(string(tail)); message != "" {
			return fmt.Errorf("%s: %w: %s", cmd.String(), err, message)
		}

		return fmt.Errorf("%s: %w", cmd.String(), err)
	}

	return nil
}
