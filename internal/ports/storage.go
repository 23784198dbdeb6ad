// Package ports defines the interfaces (driven and driving ports)
// for runstamp following hexagonal architecture principles.
// These interfaces define the contracts between the domain layer and
// external infrastructure.
package ports

import (
	"context"

	"github.com/xvierd/runstamp/internal/domain"
)

// RunRepository defines the interface for run persistence.
// This is a driven port (implemented by adapters).
type RunRepository interface {
	// Save persists a run to storage.
	Save(ctx context.Context, run *domain.Run) error

	// FindByID retrieves a run by its unique identifier.
	FindByID(ctx context.Context, id string) (*domain.Run, error)

	// FindAll retrieves all runs, newest first.
	FindAll(ctx context.Context) ([]*domain.Run, error)

	// FindByName does a fuzzy search over run names, best match first.
	FindByName(ctx context.Context, query string) ([]*domain.Run, error)

	// Delete removes a run from storage.
	Delete(ctx context.Context, id string) error
}

// Storage is the combined repository interface.
// This is a driven port (implemented by adapters).
type Storage interface {
	// Runs provides access to run operations.
	Runs() RunRepository

	// Close closes the storage connection.
	Close() error

	// Migrate runs database migrations.
	Migrate() error
}
