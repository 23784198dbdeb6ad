package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/xvierd/runstamp/internal/domain"
	"github.com/xvierd/runstamp/internal/ports"
	"go.uber.org/zap"
)

// RunService handles run recording use cases.
type RunService struct {
	storage  ports.Storage
	resolver ports.ProvenanceResolver
	logger   *zap.Logger
}

// Ensure RunService implements ports.RunProvider.
var _ ports.RunProvider = (*RunService)(nil)

// NewRunService creates a new run service.
func NewRunService(storage ports.Storage, resolver ports.ProvenanceResolver, logger *zap.Logger) *RunService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunService{
		storage:  storage,
		resolver: resolver,
		logger:   logger,
	}
}

// RecordRunRequest contains data to record a run.
type RecordRunRequest struct {
	Name string
	// Dir is the directory the run executes in; empty means the current one.
	Dir  string
	Tags []string
	// RequireCommit fails the request instead of recording a run without
	// provenance.
	RequireCommit bool
}

// Record creates a run stamped with the provenance of its directory and
// persists it. When provenance cannot be resolved the run is still recorded,
// with the reason kept in ProvenanceNote, unless RequireCommit is set.
func (s *RunService) Record(ctx context.Context, req RecordRunRequest) (*domain.Run, error) {
	dir, err := absDir(req.Dir)
	if err != nil {
		return nil, err
	}

	run, err := domain.NewRun(req.Name, dir)
	if err != nil {
		return nil, err
	}
	run.Tags = cleanTags(req.Tags)

	res, err := s.resolver.Resolve(ctx, dir)
	switch {
	case err == nil:
		run.SetProvenance(res)
	case req.RequireCommit:
		return nil, errors.Wrap(err, "failed to resolve provenance")
	default:
		note := provenanceNote(err)
		s.logger.Info("recording run without provenance",
			zap.String("run", run.Name),
			zap.String("dir", dir),
			zap.String("reason", note),
			zap.Error(err))
		run.MarkUnresolved(note)
	}

	if err := s.storage.Runs().Save(ctx, run); err != nil {
		return nil, errors.Wrap(err, "failed to save run")
	}

	s.logger.Debug("run recorded",
		zap.String("id", run.ID),
		zap.String("run", run.Name),
		zap.String("commit", run.Commit),
		zap.Bool("dirty", run.Dirty))
	return run, nil
}

// Resolve returns the provenance of dir without recording anything.
func (s *RunService) Resolve(ctx context.Context, dir string) (*domain.Resolution, error) {
	dir, err := absDir(dir)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(ctx, dir)
}

// GetRun retrieves a run by ID.
func (s *RunService) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	return s.storage.Runs().FindByID(ctx, id)
}

// ListRuns returns all runs, newest first, or the runs whose names fuzzily
// match filter, best match first.
func (s *RunService) ListRuns(ctx context.Context, filter string) ([]*domain.Run, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return s.storage.Runs().FindAll(ctx)
	}
	return s.storage.Runs().FindByName(ctx, filter)
}

// DeleteRun removes a run.
func (s *RunService) DeleteRun(ctx context.Context, id string) error {
	return s.storage.Runs().Delete(ctx, id)
}

// ResolveProvenance implements ports.RunProvider.
func (s *RunService) ResolveProvenance(ctx context.Context, dir string) (*domain.Resolution, error) {
	return s.Resolve(ctx, dir)
}

// RecordRun implements ports.RunProvider.
func (s *RunService) RecordRun(ctx context.Context, name, dir string, tags []string) (*domain.Run, error) {
	return s.Record(ctx, RecordRunRequest{Name: name, Dir: dir, Tags: tags})
}

// provenanceNote summarizes why a directory has no provenance.
func provenanceNote(err error) string {
	var cmdErr *domain.CommandExecutionError
	switch {
	case errors.Is(err, domain.ErrRepositoryNotFound):
		return "no repository found"
	case errors.Is(err, domain.ErrNoCommitAvailable):
		return "repository has no commits"
	case errors.As(err, &cmdErr):
		return "vcs command failed: " + cmdErr.Error()
	default:
		return err.Error()
	}
}

func absDir(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, "failed to get working directory")
		}
		return wd, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve %s", dir)
	}
	return abs, nil
}

func cleanTags(tags []string) []string {
	out := []string{}
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
