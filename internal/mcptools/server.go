package mcptools

import (
	"context"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/chris-regnier/dailyctl/internal/daily"
	"github.com/chris-regnier/dailyctl/internal/schedule"
	"github.com/chris-regnier/dailyctl/internal/storage"
)

// Deps are shared by every tool. Tool calls run one at a time.
type Deps struct {
	Store     storage.Storage
	Scheduler *schedule.Scheduler
	Planner   *daily.Planner
	// DataDir is used for prompt cache invalidation after writes; "" skips it.
	DataDir string

	mu sync.Mutex
}

// NewDailyMCPServer creates an in-memory MCP server exposing the scheduling
// tools. Returns the server and a client transport for connecting to it.
func NewDailyMCPServer(d *Deps) (*mcp.Server, mcp.Transport) {
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	server := CreateMCPServer(d)

	go func() {
		_, _ = server.Connect(context.Background(), serverTransport, nil)
	}()

	return server, clientTransport
}

// CreateMCPServer creates an MCP server with the scheduling tools registered.
func CreateMCPServer(d *Deps) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "dailyctl",
		Version: "1.0.0",
	}, nil)

	// Read tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "compute_daily_requests",
		Description: "Render every request due for an account on a date (YYYY-MM-DD, default today)",
	}, ComputeDailyRequestsHandler(d))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "account_progress",
		Description: "Show an account's days passed, current and next level, and completed levels",
	}, AccountProgressHandler(d))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_accounts",
		Description: "List accounts, optionally for one game",
	}, ListAccountsHandler(d))

	// Write tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "complete_level",
		Description: "Mark a level completed (or not) for an account",
	}, CompleteLevelHandler(d))

	return server
}
