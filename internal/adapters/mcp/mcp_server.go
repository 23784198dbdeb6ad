// Package mcp provides the MCP (Model Context Protocol) server implementation.
package mcp

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/xvierd/runstamp/internal/domain"
	"github.com/xvierd/runstamp/internal/ports"
)

// Server implements the MCP server using mark3labs/mcp-go.
type Server struct {
	server   *server.MCPServer
	provider ports.RunProvider

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

// NewServer creates a new MCP server instance.
func NewServer(provider ports.RunProvider, version string) *Server {
	s := &Server{
		provider: provider,
	}

	s.server = server.NewMCPServer(
		"runstamp",
		version,
		server.WithLogging(),
	)

	s.registerTools()

	return s
}

// registerTools registers all available MCP tools.
func (s *Server) registerTools() {
	s.server.AddTool(
		mcp.NewTool(
			"resolve_commit",
			mcp.WithDescription("Resolve the VCS commit and dirty state of the repository enclosing a directory"),
			mcp.WithString(
				"dir",
				mcp.Required(),
				mcp.Description("Directory inside the repository"),
			),
		),
		s.handleResolveCommit,
	)

	s.server.AddTool(
		mcp.NewTool(
			"record_run",
			mcp.WithDescription("Record a named run stamped with the commit of its directory"),
			mcp.WithString(
				"name",
				mcp.Required(),
				mcp.Description("Name of the run"),
			),
			mcp.WithString(
				"dir",
				mcp.Description("Directory the run executed in (default: server working directory)"),
			),
			mcp.WithArray(
				"tags",
				mcp.Description("Optional array of tags"),
				mcp.WithStringItems(),
			),
		),
		s.handleRecordRun,
	)

	s.server.AddTool(
		mcp.NewTool(
			"list_runs",
			mcp.WithDescription("List recorded runs, newest first"),
			mcp.WithString(
				"filter",
				mcp.Description("Fuzzy filter on run names"),
			),
		),
		s.handleListRuns,
	)

	s.server.AddTool(
		mcp.NewTool(
			"get_run",
			mcp.WithDescription("Get a recorded run by ID"),
			mcp.WithString(
				"id",
				mcp.Required(),
				mcp.Description("The run ID"),
			),
		),
		s.handleGetRun,
	)
}

// Start begins serving MCP requests via stdio.
func (s *Server) Start(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads requests from in and writes responses to out until in is
// exhausted, ctx is cancelled, or Stop is called.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		cancel()
	}()

	err := server.NewStdioServer(s.server).Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop ends a running Serve.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// IsRunning returns true while Serve is active.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Ensure Server implements ports.MCPHandler.
var _ ports.MCPHandler = (*Server)(nil)

func (s *Server) handleResolveCommit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dir, err := request.RequireString("dir")
	if err != nil {
		return mcp.NewToolResultError("dir is required: " + err.Error()), nil
	}

	res, err := s.provider.ResolveProvenance(ctx, dir)
	if err != nil {
		if isToolError(err) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, errors.Wrap(err, "failed to resolve commit")
	}

	return jsonResult(map[string]interface{}{
		"commit":    res.Commit,
		"dirty":     res.Dirty,
		"scheme":    res.Scheme,
		"repo_root": res.RepoRoot,
	})
}

func (s *Server) handleRecordRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name is required: " + err.Error()), nil
	}
	dir := request.GetString("dir", "")

	tags := request.GetStringSlice("tags", nil)
	if len(tags) == 0 {
		// Clients that cannot send arrays pass a comma-separated string.
		if raw := request.GetString("tags", ""); raw != "" {
			tags = strings.Split(raw, ",")
		}
	}

	run, err := s.provider.RecordRun(ctx, name, dir, tags)
	if err != nil {
		if isToolError(err) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, errors.Wrap(err, "failed to record run")
	}

	return jsonResult(runToMap(run))
}

func (s *Server) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := request.GetString("filter", "")

	runs, err := s.provider.ListRuns(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}

	runList := make([]map[string]interface{}, 0, len(runs))
	for _, run := range runs {
		runList = append(runList, runToMap(run))
	}

	result := map[string]interface{}{
		"runs":        runList,
		"total_count": len(runList),
	}
	if filter != "" {
		result["filter"] = filter
	}
	return jsonResult(result)
}

func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required: " + err.Error()), nil
	}

	run, err := s.provider.GetRun(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			return mcp.NewToolResultError("run not found: " + id), nil
		}
		return nil, errors.Wrap(err, "failed to get run")
	}

	return jsonResult(runToMap(run))
}

// isToolError reports errors the caller can act on, as opposed to server
// failures.
func isToolError(err error) bool {
	return errors.Is(err, domain.ErrRepositoryNotFound) ||
		errors.Is(err, domain.ErrNoCommitAvailable) ||
		errors.Is(err, domain.ErrEmptyRunName) ||
		domain.IsCommandExecutionError(err)
}

func runToMap(run *domain.Run) map[string]interface{} {
	data := map[string]interface{}{
		"id":         run.ID,
		"name":       run.Name,
		"dir":        run.Dir,
		"tags":       run.Tags,
		"created_at": run.CreatedAt.Format(time.RFC3339),
	}
	if run.HasProvenance() {
		data["commit"] = run.Commit
		data["dirty"] = run.Dirty
	} else {
		data["commit"] = nil
		data["provenance_note"] = run.ProvenanceNote
	}
	return data
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal result")
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
