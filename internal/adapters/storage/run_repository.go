package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sahilm/fuzzy"
	"github.com/xvierd/runstamp/internal/domain"
	"github.com/xvierd/runstamp/internal/ports"
)

// ErrDuplicateRun is returned when saving a run whose ID already exists.
var ErrDuplicateRun = errors.New("run already exists")

const runColumns = `id, name, dir, vcs_commit, vcs_dirty, provenance_note, tags, created_at`

// runRepository implements ports.RunRepository using SQLite.
type runRepository struct {
	db *sql.DB
}

// newRunRepository creates a new run repository.
func newRunRepository(db *sql.DB) ports.RunRepository {
	return &runRepository{db: db}
}

// Save persists a run to storage.
func (r *runRepository) Save(ctx context.Context, run *domain.Run) error {
	query := `INSERT INTO runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	tags, err := encodeTags(run.Tags)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		run.ID,
		run.Name,
		run.Dir,
		run.Commit,
		run.Dirty,
		run.ProvenanceNote,
		tags,
		run.CreatedAt,
	)
	if isUniqueConstraintError(err) {
		return errors.Wrapf(ErrDuplicateRun, "run %s", run.ID)
	}
	if err != nil {
		return errors.Wrap(err, "failed to save run")
	}

	return nil
}

// FindByID retrieves a run by its unique identifier.
func (r *runRepository) FindByID(ctx context.Context, id string) (*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// FindAll retrieves all runs, newest first.
func (r *runRepository) FindAll(ctx context.Context) ([]*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query runs")
	}
	defer func() { _ = rows.Close() }()

	runs := []*domain.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FindByName does a fuzzy search for runs by name.
func (r *runRepository) FindByName(ctx context.Context, query string) ([]*domain.Run, error) {
	runs, err := r.FindAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get runs for fuzzy search")
	}

	names := make([]string, len(runs))
	for i, run := range runs {
		names[i] = run.Name
	}

	// Matches come back sorted by score, best first.
	result := []*domain.Run{}
	for _, match := range fuzzy.Find(query, names) {
		result = append(result, runs[match.Index])
	}

	return result, nil
}

// Delete removes a run from storage.
func (r *runRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete run")
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrRunNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.Run, error) {
	var run domain.Run
	var tags string

	err := row.Scan(
		&run.ID,
		&run.Name,
		&run.Dir,
		&run.Commit,
		&run.Dirty,
		&run.ProvenanceNote,
		&tags,
		&run.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan run")
	}

	run.Tags, err = decodeTags(tags)
	if err != nil {
		return nil, errors.Wrapf(err, "run %s", run.ID)
	}

	return &run, nil
}

// encodeTags stores tags as a JSON array so tags may contain any character.
func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode tags")
	}
	return string(data), nil
}

// decodeTags reads a JSON array of tags. Rows written before tags were
// JSON-encoded hold a comma-joined list.
func decodeTags(raw string) ([]string, error) {
	// Initialize tags as empty slice to avoid null in JSON
	tags := []string{}
	switch {
	case raw == "":
	case strings.HasPrefix(raw, "["):
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			return nil, errors.Wrap(err, "failed to decode tags")
		}
	default:
		tags = strings.Split(raw, ",")
	}
	return tags, nil
}
