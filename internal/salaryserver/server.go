package salaryserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Name is the MCP implementation name.
const Name = "go_salary"

// NewServer returns an MCP server with all salary tools registered.
func NewServer(version string, d Deps) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    Name,
		Version: version,
	}, nil)
	RegisterTools(server, d)
	return server
}

// ServeStdio serves server over stdin/stdout until ctx is done or the client disconnects.
func ServeStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
