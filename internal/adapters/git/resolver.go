// Package git provides an in-process provenance backend using go-git, for
// hosts where the git binary is unavailable.
package git

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/xvierd/runstamp/internal/domain"
	"github.com/xvierd/runstamp/internal/ports"
	"github.com/xvierd/runstamp/internal/vcs"
	"go.uber.org/zap"
)

// Resolver implements the ports.ProvenanceResolver interface using go-git.
// It only understands git repositories.
type Resolver struct {
	registry *vcs.Registry
	logger   *zap.Logger
}

// Ensure Resolver implements ports.ProvenanceResolver.
var _ ports.ProvenanceResolver = (*Resolver)(nil)

// NewResolver creates a new go-git resolver.
func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		registry: vcs.DefaultRegistry(),
		logger:   logger,
	}
}

// Resolve locates the nearest git repository above dir and reads its HEAD
// commit and worktree status.
func (r *Resolver) Resolve(ctx context.Context, dir string) (*domain.Resolution, error) {
	scheme, root, err := r.registry.Locate(dir)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{EnableDotGitCommonDir: true})
	if err != nil {
		return nil, errors.Wrapf(err, "open git repository %s", root)
	}

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, errors.Wrapf(domain.ErrNoCommitAvailable, "repository %s", root)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read HEAD of %s", root)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, errors.Wrapf(err, "open worktree of %s", root)
	}
	worktree.Excludes = append(worktree.Excludes, r.userExcludes()...)
	status, err := worktree.Status()
	if err != nil {
		return nil, errors.Wrapf(err, "read worktree status of %s", root)
	}

	res := &domain.Resolution{
		Commit:   domain.FormatCommit(scheme.Name(), head.Hash().String()),
		Dirty:    !status.IsClean(),
		Scheme:   scheme.Name(),
		RepoRoot: root,
	}
	r.logger.Debug("provenance resolved with go-git",
		zap.String("repo", root),
		zap.String("commit", res.Commit),
		zap.Bool("dirty", res.Dirty))
	return res, nil
}

// userExcludes loads the ignore rules git applies outside the repository:
// core.excludesFile from the system and global config. Status only reads the
// repository's own .gitignore files and info/exclude. Unreadable config is
// treated as having no extra rules.
func (r *Resolver) userExcludes() []gitignore.Pattern {
	root := osfs.New("/")

	var patterns []gitignore.Pattern
	if system, err := gitignore.LoadSystemPatterns(root); err == nil {
		patterns = append(patterns, system...)
	} else {
		r.logger.Debug("system excludes not loaded", zap.Error(err))
	}
	if global, err := gitignore.LoadGlobalPatterns(root); err == nil {
		patterns = append(patterns, global...)
	} else {
		r.logger.Debug("global excludes not loaded", zap.Error(err))
	}
	return patterns
}
