package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/xvierd/runstamp/internal/domain"
)

func newRun(t *testing.T, name string) *domain.Run {
	t.Helper()
	run, err := domain.NewRun(name, "/work/exp")
	if err != nil {
		t.Fatalf("NewRun() error = %v", err)
	}
	return run
}

func TestNewMemory(t *testing.T) {
	storage, err := NewMemory()
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}
	defer func() { _ = storage.Close() }()

	if storage == nil {
		t.Error("NewMemory() returned nil storage")
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runstamp.db")

	storage, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	run := newRun(t, "persisted")
	if err := storage.Runs().Save(context.Background(), run); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	_ = storage.Close()

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("New() reopen error = %v", err)
	}
	defer func() { _ = reopened.Close() }()

	if _, err := reopened.Runs().FindByID(context.Background(), run.ID); err != nil {
		t.Errorf("FindByID() after reopen error = %v", err)
	}
}

func TestRunRepository_SaveAndFind(t *testing.T) {
	storage, err := NewMemory()
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}
	defer func() { _ = storage.Close() }()

	ctx := context.Background()
	repo := storage.Runs()

	t.Run("round trip with provenance", func(t *testing.T) {
		run := newRun(t, "resnet-baseline")
		run.SetProvenance(&domain.Resolution{Commit: "git:deadbeef", Dirty: true})
		run.Tags = []string{"vision", "baseline"}

		if err := repo.Save(ctx, run); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		found, err := repo.FindByID(ctx, run.ID)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if found.Name != run.Name || found.Commit != "git:deadbeef" || !found.Dirty {
			t.Errorf("FindByID() = %+v, want %+v", found, run)
		}
		if len(found.Tags) != 2 || found.Tags[1] != "baseline" {
			t.Errorf("Tags = %v, want [vision baseline]", found.Tags)
		}
		if found.CreatedAt.Sub(run.CreatedAt).Abs() > time.Millisecond {
			t.Errorf("CreatedAt = %v, want %v", found.CreatedAt, run.CreatedAt)
		}
	})

	t.Run("unresolved run", func(t *testing.T) {
		run := newRun(t, "scratch")
		run.MarkUnresolved("repository not found")

		if err := repo.Save(ctx, run); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		found, err := repo.FindByID(ctx, run.ID)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if found.HasProvenance() {
			t.Error("unresolved run should have no commit")
		}
		if found.ProvenanceNote != "repository not found" {
			t.Errorf("ProvenanceNote = %q", found.ProvenanceNote)
		}
		if found.Tags == nil || len(found.Tags) != 0 {
			t.Errorf("Tags = %#v, want empty slice", found.Tags)
		}
	})

	t.Run("tags containing commas", func(t *testing.T) {
		run := newRun(t, "sweep")
		run.Tags = []string{"lr=0.1,0.01", "batch"}

		if err := repo.Save(ctx, run); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		found, err := repo.FindByID(ctx, run.ID)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if len(found.Tags) != 2 || found.Tags[0] != "lr=0.1,0.01" || found.Tags[1] != "batch" {
			t.Errorf("Tags = %q, want [lr=0.1,0.01 batch]", found.Tags)
		}
	})

	t.Run("duplicate id", func(t *testing.T) {
		run := newRun(t, "dup")
		if err := repo.Save(ctx, run); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := repo.Save(ctx, run); !errors.Is(err, ErrDuplicateRun) {
			t.Errorf("second Save() error = %v, want ErrDuplicateRun", err)
		}
	})

	t.Run("find non-existent", func(t *testing.T) {
		_, err := repo.FindByID(ctx, "non-existent-id")
		if !errors.Is(err, domain.ErrRunNotFound) {
			t.Errorf("FindByID() error = %v, want ErrRunNotFound", err)
		}
	})
}

func TestRunRepository_FindAllNewestFirst(t *testing.T) {
	storage, _ := NewMemory()
	defer func() { _ = storage.Close() }()

	ctx := context.Background()
	repo := storage.Runs()

	base := time.Now().Add(-time.Hour)
	for i, name := range []string{"first", "second", "third"} {
		run := newRun(t, name)
		run.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Save(ctx, run); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	runs, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll() error = %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("FindAll() returned %d runs, want 3", len(runs))
	}
	if runs[0].Name != "third" || runs[2].Name != "first" {
		t.Errorf("FindAll() order = %s, %s, %s", runs[0].Name, runs[1].Name, runs[2].Name)
	}
}

func TestRunRepository_FindByName(t *testing.T) {
	storage, _ := NewMemory()
	defer func() { _ = storage.Close() }()

	ctx := context.Background()
	repo := storage.Runs()

	for _, name := range []string{"mnist-cnn", "cifar-resnet", "mnist-mlp"} {
		if err := repo.Save(ctx, newRun(t, name)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	runs, err := repo.FindByName(ctx, "mnist")
	if err != nil {
		t.Fatalf("FindByName() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("FindByName() returned %d runs, want 2", len(runs))
	}
	for _, run := range runs {
		if run.Name == "cifar-resnet" {
			t.Errorf("FindByName(mnist) matched %q", run.Name)
		}
	}

	runs, err = repo.FindByName(ctx, "zzz")
	if err != nil {
		t.Fatalf("FindByName() error = %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("FindByName(zzz) returned %d runs, want 0", len(runs))
	}
}

func TestRunRepository_Delete(t *testing.T) {
	storage, _ := NewMemory()
	defer func() { _ = storage.Close() }()

	ctx := context.Background()
	repo := storage.Runs()

	run := newRun(t, "to-delete")
	_ = repo.Save(ctx, run)

	if err := repo.Delete(ctx, run.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.FindByID(ctx, run.ID); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("FindByID() after delete error = %v, want ErrRunNotFound", err)
	}
	if err := repo.Delete(ctx, run.ID); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("second Delete() error = %v, want ErrRunNotFound", err)
	}
}

func TestDecodeTags(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", []string{}},
		{"[]", []string{}},
		{`["a,b","c"]`, []string{"a,b", "c"}},
		{"vision,baseline", []string{"vision", "baseline"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := decodeTags(tt.raw)
			if err != nil {
				t.Fatalf("decodeTags(%q) error = %v", tt.raw, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("decodeTags(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("decodeTags(%q)[%d] = %q, want %q", tt.raw, i, got[i], tt.want[i])
				}
			}
		})
	}

	if _, err := decodeTags("[broken"); err == nil {
		t.Error("decodeTags() should reject malformed JSON")
	}
}
