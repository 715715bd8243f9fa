package pkgbuild

import (
	"bytes"
	"context"
	_ "embed" // Default helper script.
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/oshokin/aur-autoupdater/internal/logger"
)

// commandNotFound mirrors the status bash reports for unknown commands.
const commandNotFound = 127

// ErrEvaluation is returned when a PKGBUILD or the helper script fails to run.
var ErrEvaluation = errors.New("pkgbuild evaluation failed")

//go:embed helper.sh
var defaultHelperScript string

type (
	// Evaluator sources a PKGBUILD through a helper script and collects its output.
	Evaluator struct {
		helper        *syntax.File
		env           []string
		allowExternal bool
	}

	// Option configures an Evaluator.
	Option func(*evaluatorOptions)

	evaluatorOptions struct {
		script        string
		scriptName    string
		env           []string
		allowExternal bool
	}
)

// WithHelperScript replaces the built-in helper. The script receives the
// PKGBUILD path as $1 and must print key=value lines.
func WithHelperScript(name, script string) Option {
	return func(o *evaluatorOptions) {
		o.scriptName = name
		o.script = script
	}
}

// WithEnv adds KEY=VALUE entries on top of the process environment.
func WithEnv(env ...string) Option {
	return func(o *evaluatorOptions) {
		o.env = append(o.env, env...)
	}
}

// WithExternalCommands lets the PKGBUILD run programs outside the interpreter.
// By default they fail with status 127 as if they were not installed.
func WithExternalCommands() Option {
	return func(o *evaluatorOptions) {
		o.allowExternal = true
	}
}

// LoadHelperScript reads a helper script from disk for WithHelperScript.
func LoadHelperScript(path string) (Option, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read helper script: %w", err)
	}

	return WithHelperScript(filepath.Base(path), string(contents)), nil
}

// New parses the helper script once.
func New(opts ...Option) (*Evaluator, error) {
	options := &evaluatorOptions{
		script:     defaultHelperScript,
		scriptName: "helper.sh",
	}

	for _, opt := range opts {
		opt(options)
	}

	helper, err := syntax.NewParser().Parse(strings.NewReader(options.script), options.scriptName)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrEvaluation, options.scriptName, err)
	}

	return &Evaluator{
		helper:        helper,
		env:           append(os.Environ(), options.env...),
		allowExternal: options.allowExternal,
	}, nil
}

// Evaluate runs the helper against pkgbuildPath and returns its non-empty output lines.
func (e *Evaluator) Evaluate(ctx context.Context, pkgbuildPath string) ([]string, error) {
	path, err := filepath.Abs(pkgbuildPath)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %w", ErrEvaluation, pkgbuildPath, err)
	}

	if _, err = os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEvaluation, err)
	}

	var stdout, stderr bytes.Buffer

	runner, err := interp.New(
		interp.StdIO(nil, &stdout, &stderr),
		interp.Env(expand.ListEnviron(e.env...)),
		interp.Dir(filepath.Dir(path)),
		// "--" keeps paths starting with "-" from being read as shell options.
		interp.Params("--", path),
		interp.ExecHandlers(e.execHandler),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: create interpreter: %w", ErrEvaluation, err)
	}

	logger.DebugKV(ctx, "Evaluating PKGBUILD", "path", path)

	if err = runner.Run(ctx, e.helper); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return nil, fmt.Errorf("%w: exit status %d: %s", ErrEvaluation, uint8(status),
				strings.TrimSpace(stderr.String()))
		}

		return nil, fmt.Errorf("%w: %w", ErrEvaluation, err)
	}

	if stderr.Len() > 0 {
		logger.DebugKV(ctx, "PKGBUILD evaluation wrote to stderr", "stderr", strings.TrimSpace(stderr.String()))
	}

	var lines []string

	for line := range strings.Lines(stdout.String()) {
		if line = strings.TrimRight(line, "\r\n"); line != "" {
			lines = append(lines, line)
		}
	}

	return lines, nil
}

func (e *Evaluator) execHandler(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if e.allowExternal || len(args) == 0 {
			return next(ctx, args)
		}

		hc := interp.HandlerCtx(ctx)
		_, _ = fmt.Fprintf(hc.Stderr, "%s: external commands are disabled\n", args[0])

		return interp.ExitStatus(commandNotFound)
	}
}
