// Package mcp exposes tag extraction and repository analysis as MCP tools.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/dogsub/Open-Source-TermP/internal/service"
)

const (
	serverName    = "termp"
	serverVersion = "1.0.0"
)

// Server wraps the MCP server with the analysis service.
type Server struct {
	analysis  service.AnalysisService
	mcpServer *server.MCPServer
}

// NewServer registers the tools. With a nil analysis service only the offline
// tag tools are available.
func NewServer(analysis service.AnalysisService) *Server {
	s := &Server{analysis: analysis}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.registerTools()
	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves MCP over stdin and stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
