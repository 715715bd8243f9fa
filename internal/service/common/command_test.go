//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"bytes"
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestExecRunner_Run captures stdout and honours the working directory and environment.
func TestExecRunner_Run(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not installed")
	}

	dir := t.TempDir()

	var out bytes.Buffer

	err := ExecRunner{}.Run(context.Background(), Command{
		Name:   "sh",
		Args:   []string{"-c", `printf '%s %s' "$(pwd)" "$GREETING"`},
		Dir:    dir,
		Env:    []string{"GREETING=hello"},
		Stdout: &out,
	})
	require.NoError(t, err)
	require.Contains(t, out.String(), " hello")
}

// TestExecRunner_RunFailure includes the command line, the status and stderr.
func TestExecRunner_RunFailure(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not installed")
	}

	err := ExecRunner{}.Run(context.Background(), Command{
		Name:   "sh",
		Args:   []string{"-c", "echo broken >&2; exit 4"},
		Stdout: new(bytes.Buffer),
	})

	var exitErr *exec.ExitError

	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 4, exitErr.ExitCode())
	require.ErrorContains(t, err, "broken")
	require.ErrorContains(t, err, "sh -c")
}

// TestCommand_String joins the executable and its arguments.
func TestCommand_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "git push", Command{Name: "git", Args: []string{"push"}}.String())
	require.Equal(t, "makepkg", Command{Name: "makepkg"}.String())
}
