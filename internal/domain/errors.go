// Package domain contains the core entities for runstamp: resolved VCS
// provenance, the raw result of probing a VCS tool, and recorded runs.
// These types are independent of any external tool or storage backend.
package domain

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Common domain errors.
var (
	// ErrRepositoryNotFound is returned when no registered scheme's root marker
	// exists between the start directory and the filesystem root.
	ErrRepositoryNotFound = errors.New("repository not found")

	// ErrNoCommitAvailable is returned when a repository was found but the
	// commit probe produced no commit, e.g. a repository with empty history.
	ErrNoCommitAvailable = errors.New("no commit available")

	ErrEmptyRunName = errors.New("run name cannot be empty")
	ErrRunNotFound  = errors.New("run not found")
)

// CommandExecutionError reports a VCS tool that ran and exited with a code
// its scheme does not treat as benign. Output is the captured combined
// stdout/stderr, unmodified.
type CommandExecutionError struct {
	Command  []string
	ExitCode int
	Output   string
}

func (e *CommandExecutionError) Error() string {
	msg := fmt.Sprintf("command %q exited with code %d", strings.Join(e.Command, " "), e.ExitCode)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + firstLine(out)
	}
	return msg
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// IsCommandExecutionError reports whether err wraps a *CommandExecutionError.
func IsCommandExecutionError(err error) bool {
	var cmdErr *CommandExecutionError
	return errors.As(err, &cmdErr)
}
