// Package command runs external VCS tools for the vcs engine.
package command

import (
	"bytes"
	"context"
	"io/fs"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/xvierd/runstamp/internal/domain"
	"github.com/xvierd/runstamp/internal/ports"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single tool invocation.
const DefaultTimeout = 30 * time.Second

const waitDelay = 2 * time.Second

// Runner implements ports.CommandRunner with os/exec.
type Runner struct {
	timeout time.Duration
	env     []string
	logger  *zap.Logger
}

// Ensure Runner implements ports.CommandRunner.
var _ ports.CommandRunner = (*Runner)(nil)

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout sets the per-invocation timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithEnv replaces the inherited environment. Nil inherits the caller's.
func WithEnv(env []string) Option {
	return func(r *Runner) {
		r.env = env
	}
}

// WithLogger sets the runner's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a runner with DefaultTimeout and the caller's environment.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes argv in dir with stderr merged into stdout.
//
// A missing executable is reported as domain.ToolMissing and a nonzero exit
// as a result carrying the exit code; neither is an error. Timeouts,
// cancellation and any other launch failure are returned as errors.
func (r *Runner) Run(ctx context.Context, argv []string, dir string) (domain.ProbeResult, error) {
	if len(argv) == 0 {
		return domain.ProbeResult{}, errors.New("command is required")
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = r.env
	// Stop waiting on output pipes held open by orphaned grandchildren.
	cmd.WaitDelay = waitDelay

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	line := strings.Join(argv, " ")
	log := r.logger.With(zap.String("command", line), zap.String("dir", dir))
	log.Debug("running vcs command")

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			log.Warn("vcs command did not finish", zap.Duration("elapsed", elapsed), zap.Error(ctxErr))
			return domain.ProbeResult{}, errors.Wrapf(ctxErr, "run %q", line)
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res := domain.ProbeResult{
				Command:  argv,
				ExitCode: exitErr.ExitCode(),
				Output:   decode(out.Bytes()),
			}
			log.Debug("vcs command exited nonzero", zap.Int("exit_code", res.ExitCode), zap.Duration("elapsed", elapsed))
			return res, nil
		}

		if isToolMissing(err) {
			log.Debug("vcs tool not available", zap.Error(err))
			return domain.ToolMissing(argv), nil
		}

		return domain.ProbeResult{}, errors.Wrapf(err, "start %q", line)
	}

	res := domain.ProbeResult{
		Command: argv,
		Output:  decode(out.Bytes()),
	}
	log.Debug("vcs command succeeded", zap.Duration("elapsed", elapsed), zap.Int("output_bytes", out.Len()))
	return res, nil
}

// isToolMissing reports whether a launch failure means the executable does
// not exist. A missing working directory also surfaces as fs.ErrNotExist but
// under the "chdir" op, and is not a missing tool.
func isToolMissing(err error) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var pathErr *fs.PathError
	if !errors.As(err, &pathErr) || pathErr.Op == "chdir" {
		return false
	}
	return errors.Is(pathErr.Err, fs.ErrNotExist)
}

// decode converts raw tool output to text, replacing invalid sequences.
func decode(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
