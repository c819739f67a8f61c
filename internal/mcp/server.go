// Package mcp exposes perch's resolution queries as Model Context Protocol
// tools so agents can ask where to present UI.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/perch/internal/ipc"
)

const (
	ServerName    = "perch"
	ServerVersion = "0.1.0"
)

// Server is the MCP server for perch queries.
type Server struct {
	mcpServer *mcpsdk.Server
	resolver  ipc.Resolver
}

// NewServer creates a new MCP server answering through resolver.
func NewServer(resolver ipc.Resolver) *Server {
	s := &Server{resolver: resolver}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resolve_main_window",
		Description: "Find the window that should host new UI: the focused window, else the first visible window on the active desktop, else the first visible window anywhere. Pass exclude_id to skip your own window.",
	}, s.handleResolveMainWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resolve_main_scene",
		Description: "Find the desktop (scene) that contains the main window, with its activation state.",
	}, s.handleResolveMainScene)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resolve_top_controller",
		Description: "Find the topmost visible controller of the main window by following its chain of presented dialogs, or the visible tab of a tabbed container. Pass self_id so your own window is never chosen.",
	}, s.handleResolveTopController)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "status_bar_anchor",
		Description: "Compute a status-bar strip along the top edge of the topmost controller, using the configured status_bar_height.",
	}, s.handleStatusBarAnchor)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_scenes",
		Description: "List every desktop with its name, activation state and window count.",
	}, s.handleListScenes)
}
