package services

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xvierd/runstamp/internal/adapters/storage"
	"github.com/xvierd/runstamp/internal/domain"
	"github.com/xvierd/runstamp/internal/ports"
)

// stubResolver returns a fixed resolution or error and records the dirs asked.
type stubResolver struct {
	res  *domain.Resolution
	err  error
	dirs []string
}

func (s *stubResolver) Resolve(ctx context.Context, dir string) (*domain.Resolution, error) {
	s.dirs = append(s.dirs, dir)
	return s.res, s.err
}

func setupTestStorage(t *testing.T) ports.Storage {
	t.Helper()
	store, err := storage.NewMemory()
	require.NoError(t, err, "failed to create test storage")
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunService_RecordWithProvenance(t *testing.T) {
	store := setupTestStorage(t)
	resolver := &stubResolver{res: &domain.Resolution{Commit: "git:deadbeef", Dirty: true, Scheme: "git"}}
	service := NewRunService(store, resolver, nil)
	dir := t.TempDir()

	run, err := service.Record(context.Background(), RecordRunRequest{
		Name: "baseline",
		Dir:  dir,
		Tags: []string{" vision ", "", "a,b"},
	})
	require.NoError(t, err)

	assert.Equal(t, "git:deadbeef", run.Commit)
	assert.True(t, run.Dirty)
	assert.Empty(t, run.ProvenanceNote)
	assert.Equal(t, []string{"vision", "a,b"}, run.Tags)
	assert.Equal(t, []string{dir}, resolver.dirs)

	stored, err := service.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, "git:deadbeef", stored.Commit)
	assert.Equal(t, []string{"vision", "a,b"}, stored.Tags, "tags containing commas survive storage")
}

func TestRunService_RecordWithoutProvenance(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantNote string
	}{
		{
			name:     "no repository",
			err:      errors.Wrap(domain.ErrRepositoryNotFound, "searching from /x"),
			wantNote: "no repository found",
		},
		{
			name:     "no commits",
			err:      errors.Wrap(domain.ErrNoCommitAvailable, "repository /x"),
			wantNote: "repository has no commits",
		},
		{
			name: "status command failed",
			err: &domain.CommandExecutionError{
				Command:  []string{"git", "status"},
				ExitCode: 128,
				Output:   "fatal: index corrupt\n",
			},
			wantNote: `vcs command failed: command "git status" exited with code 128: fatal: index corrupt`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStorage(t)
			service := NewRunService(store, &stubResolver{err: tt.err}, nil)

			run, err := service.Record(context.Background(), RecordRunRequest{Name: "scratch", Dir: t.TempDir()})
			require.NoError(t, err)
			assert.False(t, run.HasProvenance())
			assert.Equal(t, tt.wantNote, run.ProvenanceNote)
		})
	}
}

func TestRunService_RecordRequireCommit(t *testing.T) {
	store := setupTestStorage(t)
	service := NewRunService(store, &stubResolver{err: domain.ErrNoCommitAvailable}, nil)

	_, err := service.Record(context.Background(), RecordRunRequest{
		Name:          "strict",
		Dir:           t.TempDir(),
		RequireCommit: true,
	})
	assert.True(t, errors.Is(err, domain.ErrNoCommitAvailable), "got %v", err)

	runs, err := service.ListRuns(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, runs, "nothing is recorded on failure")
}

func TestRunService_RecordEmptyName(t *testing.T) {
	store := setupTestStorage(t)
	resolver := &stubResolver{}
	service := NewRunService(store, resolver, nil)

	_, err := service.Record(context.Background(), RecordRunRequest{Name: "  ", Dir: t.TempDir()})
	assert.True(t, errors.Is(err, domain.ErrEmptyRunName))
	assert.Empty(t, resolver.dirs, "provenance is not resolved for an invalid run")
}

func TestRunService_RecordDefaultsToWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	store := setupTestStorage(t)
	resolver := &stubResolver{res: &domain.Resolution{Commit: "git:abc"}}
	service := NewRunService(store, resolver, nil)

	run, err := service.RecordRun(context.Background(), "cwd", "", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, run.Dir)
	assert.Equal(t, []string{run.Dir}, resolver.dirs)
}

func TestRunService_ListAndDelete(t *testing.T) {
	store := setupTestStorage(t)
	service := NewRunService(store, &stubResolver{res: &domain.Resolution{Commit: "git:abc"}}, nil)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"mnist-cnn", "cifar-resnet", "mnist-mlp"} {
		run, err := service.Record(ctx, RecordRunRequest{Name: name, Dir: t.TempDir()})
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	all, err := service.ListRuns(ctx, "  ")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mnist, err := service.ListRuns(ctx, "mnist")
	require.NoError(t, err)
	assert.Len(t, mnist, 2)

	require.NoError(t, service.DeleteRun(ctx, ids[0]))
	_, err = service.GetRun(ctx, ids[0])
	assert.True(t, errors.Is(err, domain.ErrRunNotFound))
}

func TestRunService_ResolvePassesThroughErrors(t *testing.T) {
	store := setupTestStorage(t)
	service := NewRunService(store, &stubResolver{err: domain.ErrRepositoryNotFound}, nil)

	_, err := service.ResolveProvenance(context.Background(), t.TempDir())
	assert.True(t, errors.Is(err, domain.ErrRepositoryNotFound))
}
