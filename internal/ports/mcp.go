package ports

import (
	"context"

	"github.com/xvierd/runstamp/internal/domain"
)

// MCPHandler defines the interface for MCP server operations.
// This is a driving port (called by the application layer).
type MCPHandler interface {
	// Start begins serving MCP requests.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the server.
	Stop() error

	// IsRunning returns true if the server is active.
	IsRunning() bool
}

// RunProvider exposes run tracking to the MCP server.
// This is a driven port (implemented by the services layer).
type RunProvider interface {
	// ResolveProvenance resolves the commit and dirty state for dir.
	ResolveProvenance(ctx context.Context, dir string) (*domain.Resolution, error)

	// RecordRun records a new run stamped with the provenance of dir.
	RecordRun(ctx context.Context, name, dir string, tags []string) (*domain.Run, error)

	// ListRuns returns recorded runs, fuzzy-filtered by name when filter is set.
	ListRuns(ctx context.Context, filter string) ([]*domain.Run, error)

	// GetRun returns a single run.
	GetRun(ctx context.Context, id string) (*domain.Run, error)
}
