package vcs

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/xvierd/runstamp/internal/domain"
	"github.com/xvierd/runstamp/internal/ports"
	"go.uber.org/zap"
)

// Engine resolves directory provenance by locating a repository and running
// its scheme's commit and status probes through a CommandRunner.
type Engine struct {
	registry *Registry
	runner   ports.CommandRunner
	logger   *zap.Logger
}

// Ensure Engine implements ports.ProvenanceResolver.
var _ ports.ProvenanceResolver = (*Engine)(nil)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine over registry that runs tools with runner.
func NewEngine(registry *Registry, runner ports.CommandRunner, opts ...EngineOption) *Engine {
	e := &Engine{
		registry: registry,
		runner:   runner,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the engine's scheme registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Resolve returns the canonical commit and dirty flag for the repository
// enclosing dir.
//
// It fails with domain.ErrRepositoryNotFound when no repository encloses dir,
// domain.ErrNoCommitAvailable when the repository has no commit, and a
// *domain.CommandExecutionError when either probe's tool fails.
func (e *Engine) Resolve(ctx context.Context, dir string) (*domain.Resolution, error) {
	scheme, root, err := e.registry.Locate(dir)
	if err != nil {
		return nil, err
	}
	log := e.logger.With(zap.String("scheme", scheme.Name()), zap.String("repo", root))
	log.Debug("repository located", zap.String("dir", dir))

	commit, err := e.probe(ctx, scheme.CommitProbe(), root)
	if err != nil {
		return nil, err
	}
	if !commit.Found() {
		return nil, errors.Wrapf(domain.ErrNoCommitAvailable, "repository %s", root)
	}

	status, err := e.probe(ctx, scheme.StatusProbe(), root)
	if err != nil {
		return nil, err
	}

	res := &domain.Resolution{
		Commit:   domain.FormatCommit(scheme.Name(), commit.Text),
		Dirty:    status.Found(),
		Scheme:   scheme.Name(),
		RepoRoot: root,
	}
	log.Debug("provenance resolved", zap.String("commit", res.Commit), zap.Bool("dirty", res.Dirty))
	return res, nil
}

func (e *Engine) probe(ctx context.Context, p Probe, root string) (Match, error) {
	res, err := e.runner.Run(ctx, p.Command(root), root)
	if err != nil {
		return Match{}, err
	}
	return p.Resolve(res)
}
