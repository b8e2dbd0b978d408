// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server implements an MCP server that exposes HRMLESS actions as tools.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hrmless/adapter/internal/log"
	"github.com/hrmless/adapter/internal/operation"
)

// ToolPrefix is prepended to every action key to form its tool name.
const ToolPrefix = "hrmless_"

// ConnectionTestTool is the name of the session check tool.
const ConnectionTestTool = ToolPrefix + "connection_test"

// Performer executes one action.
type Performer interface {
	Perform(ctx context.Context, action *operation.Action, bundle operation.Bundle) (any, error)
}

// ConnectionTester verifies a session against the API.
type ConnectionTester interface {
	Test(ctx context.Context, auth operation.AuthData) (map[string]any, error)
}

// SessionLoader returns the auth data attached to each call. It runs once
// per tool call so a new login is picked up without a restart.
type SessionLoader func(ctx context.Context) (operation.AuthData, error)

// Server wraps the MCP server and provides HRMLESS tools
type Server struct {
	mcpServer *server.MCPServer
	name      string
	version   string
	registry  *operation.Registry
	performer Performer
	tester    ConnectionTester
	session   SessionLoader
	tools     []mcp.Tool
	logger    *slog.Logger
	calls     *log.InvocationMiddleware
}

// ServerConfig configures the MCP server
type ServerConfig struct {
	// Name is the server name (default: "hrmless")
	Name string

	// Version is the adapter version
	Version string

	// Registry holds the actions exposed as tools. Required.
	Registry *operation.Registry

	// Performer executes tool calls. Required.
	Performer Performer

	// Session supplies auth data. Required.
	Session SessionLoader

	// Tester backs the connection test tool. Optional.
	Tester ConnectionTester

	// Logger must not write to stdout, which carries the protocol.
	Logger *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(config ServerConfig) (*Server, error) {
	if config.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if config.Performer == nil {
		return nil, fmt.Errorf("performer is required")
	}
	if config.Session == nil {
		return nil, fmt.Errorf("session loader is required")
	}
	if config.Name == "" {
		config.Name = "hrmless"
	}
	if config.Version == "" {
		config.Version = "dev"
	}
	if config.Logger == nil {
		config.Logger = log.Discard()
	}

	s := &Server{
		mcpServer: server.NewMCPServer(config.Name, config.Version),
		name:      config.Name,
		version:   config.Version,
		registry:  config.Registry,
		performer: config.Performer,
		tester:    config.Tester,
		session:   config.Session,
		logger:    log.WithComponent(config.Logger, "mcp"),
	}
	s.calls = log.NewInvocationMiddleware(s.logger)

	s.registerActionTools()
	if s.tester != nil {
		s.addTool(mcp.Tool{
			Name:        ConnectionTestTool,
			Description: "Check that the stored HRMLESS session is valid. Returns the organization the session belongs to.",
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: map[string]any{},
			},
		}, s.handleConnectionTest)
	}

	return s, nil
}

func (s *Server) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.tools = append(s.tools, tool)
	s.mcpServer.AddTool(tool, handler)
}

// registerActionTools registers one tool per registry action.
func (s *Server) registerActionTools() {
	for _, action := range s.registry.List() {
		s.addTool(actionTool(action), s.actionHandler(action))
	}
}

// Tools returns the registered tool definitions sorted by name.
func (s *Server) Tools() []mcp.Tool {
	tools := append([]mcp.Tool(nil), s.tools...)
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// Run serves the MCP protocol over stdio until stdin closes or ctx is
// done.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting HRMLESS MCP server",
		slog.String("version", s.version),
		slog.Int("tools", len(s.tools)))

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HRMLESS MCP server")
	// Run returns once its context is cancelled; mcp-go has no explicit stop.
	return nil
}

// Helper function to create error response
func errorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}

// Helper function to create success response
func textResponse(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}
