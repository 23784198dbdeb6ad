package ports

import (
	"context"

	"github.com/xvierd/runstamp/internal/domain"
)

// CommandRunner invokes an external VCS tool.
// This is a driven port (implemented by adapters).
type CommandRunner interface {
	// Run executes argv with dir as the working directory and returns the
	// captured exit code and combined output. A missing executable or a
	// nonzero exit is reported in the result, not as an error; only other
	// launch failures (and timeouts) are returned as errors.
	Run(ctx context.Context, argv []string, dir string) (domain.ProbeResult, error)
}

// ProvenanceResolver resolves the VCS provenance of a directory.
// This is a driven port (implemented by the vcs engine and the go-git adapter).
type ProvenanceResolver interface {
	// Resolve returns the commit and dirty state of the repository enclosing dir.
	// It fails with domain.ErrRepositoryNotFound, domain.ErrNoCommitAvailable,
	// or a *domain.CommandExecutionError.
	Resolve(ctx context.Context, dir string) (*domain.Resolution, error)
}
