// Copyright (c) 2021-2026 Rustam Gilyazov and Contributors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package mcp exposes Discord messaging as MCP tools.
package mcp

// In this file: MCP server construction and transport management.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/rusq/discordmcp/internal/discord"
)

const (
	serverName    = "discord-mcp"
	serverVersion = "1.0.0"
)

//go:generate mockgen -source=server.go -destination=mock_mcp/mock_mcp.go -package=mock_mcp Messenger

// Messenger is the Discord session surface the tools operate on.
// *session.Session satisfies it.
type Messenger interface {
	Guilds(ctx context.Context) ([]discord.Guild, error)
	Channels(ctx context.Context, guildID string) ([]discord.Channel, error)
	Messages(ctx context.Context, channelID string, limit int) ([]discord.Message, error)
	SendMessage(ctx context.Context, channelID, content string) (string, error)
	SendFile(ctx context.Context, channelID, content, filePath, filename string) (string, int64, error)
	Conversations(ctx context.Context) ([]discord.Conversation, error)
}

// Transport selects how the MCP server communicates with its client.
type Transport string

const (
	// TransportStdio uses stdin/stdout for communication (default, suitable
	// for local agent integrations such as Claude Desktop).
	TransportStdio Transport = "stdio"
	// TransportHTTP uses Streamable HTTP transport (suitable for remote
	// agents or when multiple concurrent clients are needed).
	TransportHTTP Transport = "http"
)

// Server wraps an MCP server and the Discord session behind it.
type Server struct {
	mcp       *mcpsrv.MCPServer
	sess      Messenger
	logger    *slog.Logger
	sendDelay time.Duration
	validate  *validator.Validate
}

// Option is the functional option for New.
type Option func(*Server)

func WithLogger(lg *slog.Logger) Option {
	return func(s *Server) {
		if lg != nil {
			s.logger = lg
		}
	}
}

// WithSendDelay overrides the pause between consecutive chunks of a split
// message.
func WithSendDelay(d time.Duration) Option {
	return func(s *Server) { s.sendDelay = d }
}

// New creates a new MCP server backed by the given Discord session.  The
// server is populated with all available tools but does not start listening
// until one of the Serve* methods is called.
func New(sess Messenger, opts ...Option) *Server {
	s := &Server{
		sess:      sess,
		logger:    slog.Default(),
		sendDelay: defSendDelay,
		validate:  validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mcpServer := mcpsrv.NewMCPServer(
		serverName,
		serverVersion,
		mcpsrv.WithInstructions(instructions()),
	)

	// Register all tools.
	for _, t := range s.tools() {
		mcpServer.AddTool(t.Tool, t.Handler)
	}

	s.mcp = mcpServer
	return s
}

// instructions returns the server instructions that describe the toolset to
// the connecting agent.
func instructions() string {
	return `You are connected to a Discord MCP server acting on behalf of a single user account.

Available tools allow you to:
- List the servers the user is a member of (list_servers)
- List the text channels of a server (list_channels)
- Read recent messages from a channel (read_messages)
- Send a message to a channel, long content is split automatically (send_message)
- Send a file with an optional text body (send_message_with_attachment)
- List direct and group conversations (list_dm_conversations)
- Read a DM conversation addressed by the other party's name (read_dm_messages)

IDs are Discord snowflakes passed as decimal strings.  Timestamps are RFC 3339 in UTC.
Messages are sent as the user, so treat the send tools with the same care as typing into their client.`
}

// ServeStdio runs the MCP server over stdin/stdout until ctx is cancelled.
// This is the standard transport used by local agent integrations.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := mcpsrv.NewStdioServer(s.mcp)
	s.logger.InfoContext(ctx, "mcp server listening on stdio")
	if err := srv.Listen(ctx, os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("mcp stdio server error: %w", err)
	}
	return nil
}

// ServeHTTP runs the MCP server as a Streamable HTTP server on addr until
// ctx is cancelled.  addr should be a host:port string such as "127.0.0.1:8483".
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	httpSrv := &http.Server{Addr: addr}
	streamSrv := mcpsrv.NewStreamableHTTPServer(s.mcp,
		mcpsrv.WithStreamableHTTPServer(httpSrv),
	)

	s.logger.InfoContext(ctx, "mcp server listening on http", "addr", addr)

	var eg errgroup.Group
	eg.Go(func() error {
		if err := streamSrv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("mcp http server error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		s.logger.InfoContext(ctx, "mcp server shutting down")
		if err := streamSrv.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("mcp http server shutdown error: %w", err)
		}
		return nil
	})
	return eg.Wait()
}

// tools returns all MCP tools that this server exposes.
func (s *Server) tools() []mcpsrv.ServerTool {
	return []mcpsrv.ServerTool{
		s.toolListServers(),
		s.toolListChannels(),
		s.toolReadMessages(),
		s.toolSendMessage(),
		s.toolSendMessageWithAttachment(),
		s.toolListDMConversations(),
		s.toolReadDMMessages(),
	}
}

// resultText is a helper that wraps text in a successful CallToolResult.
func resultText(text string) *mcplib.CallToolResult {
	return mcplib.NewToolResultText(text)
}

// resultErr is a helper that wraps an error in a CallToolResult with IsError=true.
func resultErr(err error) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(err.Error())},
		IsError: true,
	}
}

// resultJSON is a helper that serialises v to JSON and returns a CallToolResult.
func resultJSON(v any) (*mcplib.CallToolResult, error) {
	return mcplib.NewToolResultJSON(v)
}

// stringArg extracts a named string argument from a tool call request.
// Returns ("", false) if the argument is absent or not a string.
func stringArg(req mcplib.CallToolRequest, name string) (string, bool) {
	args := req.GetArguments()
	if args == nil {
		return "", false
	}
	v, ok := args[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// intArg extracts a named int argument from a tool call request.  The MCP
// protocol serialises numbers as float64, so we convert accordingly.
func intArg(req mcplib.CallToolRequest, name string, defaultVal int) int {
	args := req.GetArguments()
	if args == nil {
		return defaultVal
	}
	v, ok := args[name]
	if !ok {
		return defaultVal
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return defaultVal
}
