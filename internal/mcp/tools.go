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

package mcp

// In this file: MCP tool definitions and handler implementations.

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpsrv "github.com/mark3labs/mcp-go/server"

	"github.com/rusq/discordmcp/internal/discord"
	"github.com/rusq/discordmcp/internal/resolve"
	"github.com/rusq/discordmcp/internal/splitter"
)

const (
	defMaxMessages = 100

	// defSendDelay is the pause between consecutive chunks of a split
	// message, so that chunks arrive in order and under the posting rate
	// limit.
	defSendDelay = 500 * time.Millisecond

	// maxAttachmentNote is the longest text body that may accompany a file.
	// Bodies over the platform limit can not be split, the file would be
	// attached to only one of the chunks.
	maxAttachmentNote = 2000
)

// timeNow is the clock for the hours_back window.
var timeNow = time.Now

// ─── list_servers ─────────────────────────────────────────────────────────────

func (s *Server) toolListServers() mcpsrv.ServerTool {
	tool := mcplib.NewTool("list_servers",
		mcplib.WithDescription("List all Discord servers (guilds) the user is a member of. Returns server IDs and names."),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleListServers}
}

func (s *Server) handleListServers(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	guilds, err := s.sess.Guilds(ctx)
	if err != nil {
		return resultErr(fmt.Errorf("list_servers: %w", err)), nil
	}
	result, err := resultJSON(guilds)
	if err != nil {
		return resultErr(fmt.Errorf("list_servers: serialise: %w", err)), nil
	}
	return result, nil
}

// ─── list_channels ────────────────────────────────────────────────────────────

func (s *Server) toolListChannels() mcpsrv.ServerTool {
	tool := mcplib.NewTool("list_channels",
		mcplib.WithDescription("List the text channels of a Discord server. Voice-only channels are excluded. Returns channel IDs, names and types."),
		mcplib.WithString("server_id",
			mcplib.Description("The Discord server (guild) ID, as returned by list_servers."),
			mcplib.Required(),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleListChannels}
}

func (s *Server) handleListChannels(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	serverID, ok := stringArg(req, "server_id")
	if !ok || serverID == "" {
		return resultErr(errors.New("list_channels: server_id is required")), nil
	}

	channels, err := s.sess.Channels(ctx, serverID)
	if err != nil {
		if discord.IsNotFound(err) {
			return resultText(fmt.Sprintf("Server %q not found, or the user is not a member.", serverID)), nil
		}
		return resultErr(fmt.Errorf("list_channels: %w", err)), nil
	}

	result, err := resultJSON(channels)
	if err != nil {
		return resultErr(fmt.Errorf("list_channels: serialise: %w", err)), nil
	}
	return result, nil
}

// ─── read_messages ────────────────────────────────────────────────────────────

// readParams are the shared arguments of the message reading tools.
type readParams struct {
	MaxMessages int `validate:"min=1,max=1000"`
	HoursBack   int `validate:"min=0,max=8760"`
}

func (s *Server) readParams(req mcplib.CallToolRequest) (readParams, error) {
	p := readParams{
		MaxMessages: intArg(req, "max_messages", defMaxMessages),
		HoursBack:   intArg(req, "hours_back", 0),
	}
	if err := s.validate.Struct(&p); err != nil {
		return readParams{}, fmt.Errorf("invalid arguments: %w", err)
	}
	return p, nil
}

// window trims messages to the hours_back window.  Zero hours means no
// window.
func (p readParams) window(messages []discord.Message) []discord.Message {
	if p.HoursBack <= 0 {
		return messages
	}
	cutoff := timeNow().Add(-time.Duration(p.HoursBack) * time.Hour)
	return discord.FilterSince(messages, cutoff)
}

func (s *Server) toolReadMessages() mcpsrv.ServerTool {
	tool := mcplib.NewTool("read_messages",
		mcplib.WithDescription(`Read the most recent messages of a Discord channel.

Messages are returned newest first.  Use hours_back to only return messages
newer than the given number of hours; note that the result may then be empty
even for an active channel.`),
		mcplib.WithString("server_id",
			mcplib.Description("The Discord server (guild) ID the channel belongs to."),
			mcplib.Required(),
		),
		mcplib.WithString("channel_id",
			mcplib.Description("The Discord channel ID to read, as returned by list_channels."),
			mcplib.Required(),
		),
		mcplib.WithNumber("max_messages",
			mcplib.Description("Maximum number of messages to return (1-1000, default 100)."),
		),
		mcplib.WithNumber("hours_back",
			mcplib.Description("Only return messages newer than this many hours (1-8760). Omit for no time limit."),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleReadMessages}
}

// messagesResult is the payload of the message reading tools.
type messagesResult struct {
	ServerID     string            `json:"server_id,omitempty"`
	ChannelID    string            `json:"channel_id"`
	Conversation string            `json:"conversation,omitempty"`
	Count        int               `json:"count"`
	Messages     []discord.Message `json:"messages"`
}

func (s *Server) handleReadMessages(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	serverID, ok := stringArg(req, "server_id")
	if !ok || serverID == "" {
		return resultErr(errors.New("read_messages: server_id is required")), nil
	}
	channelID, ok := stringArg(req, "channel_id")
	if !ok || channelID == "" {
		return resultErr(errors.New("read_messages: channel_id is required")), nil
	}
	p, err := s.readParams(req)
	if err != nil {
		return resultErr(fmt.Errorf("read_messages: %w", err)), nil
	}

	messages, err := s.sess.Messages(ctx, channelID, p.MaxMessages)
	if err != nil {
		if discord.IsNotFound(err) {
			return resultText(fmt.Sprintf("Channel %q not found, or the user has no access to it.", channelID)), nil
		}
		return resultErr(fmt.Errorf("read_messages: %w", err)), nil
	}
	messages = p.window(messages)

	result, err := resultJSON(messagesResult{
		ServerID:  serverID,
		ChannelID: channelID,
		Count:     len(messages),
		Messages:  messages,
	})
	if err != nil {
		return resultErr(fmt.Errorf("read_messages: serialise: %w", err)), nil
	}
	return result, nil
}

// ─── send_message ─────────────────────────────────────────────────────────────

func (s *Server) toolSendMessage() mcpsrv.ServerTool {
	tool := mcplib.NewTool("send_message",
		mcplib.WithDescription(`Send a text message to a Discord channel as the user.

Content over the 2000 character platform limit is split into multiple
messages on newline or word boundaries and sent in order.  The result lists
the ID of every message created.`),
		mcplib.WithString("server_id",
			mcplib.Description("The Discord server (guild) ID the channel belongs to."),
			mcplib.Required(),
		),
		mcplib.WithString("channel_id",
			mcplib.Description("The Discord channel ID to post to."),
			mcplib.Required(),
		),
		mcplib.WithString("content",
			mcplib.Description("The message text."),
			mcplib.Required(),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleSendMessage}
}

// sentResult is the payload of the send tools.
type sentResult struct {
	Status      string   `json:"status"`
	MessageIDs  []string `json:"message_ids,omitempty"`
	MessageID   string   `json:"message_id,omitempty"`
	Chunks      int      `json:"chunks,omitempty"`
	TotalLength int      `json:"total_length,omitempty"`
	Filename    string   `json:"filename,omitempty"`
	SizeBytes   int64    `json:"size_bytes,omitempty"`
}

func (s *Server) handleSendMessage(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	if serverID, ok := stringArg(req, "server_id"); !ok || serverID == "" {
		return resultErr(errors.New("send_message: server_id is required")), nil
	}
	channelID, ok := stringArg(req, "channel_id")
	if !ok || channelID == "" {
		return resultErr(errors.New("send_message: channel_id is required")), nil
	}
	content, _ := stringArg(req, "content")
	if strings.TrimSpace(content) == "" {
		return resultErr(errors.New("send_message: content is empty")), nil
	}
	chunks := splitter.Split(content, splitter.DefaultLimit)

	s.logger.InfoContext(ctx, "mcp: send_message", "channel", channelID, "chunks", len(chunks))

	ids := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if i > 0 {
			if err := sleepCtx(ctx, s.sendDelay); err != nil {
				return resultErr(fmt.Errorf("send_message: sent %d of %d chunks: %w", i, len(chunks), err)), nil
			}
		}
		id, err := s.sess.SendMessage(ctx, channelID, chunk)
		if err != nil {
			return resultErr(fmt.Errorf("send_message: sent %d of %d chunks: %w", i, len(chunks), err)), nil
		}
		ids = append(ids, id)
	}

	result, err := resultJSON(sentResult{
		Status:      "sent",
		MessageIDs:  ids,
		Chunks:      len(chunks),
		TotalLength: utf8.RuneCountInString(content),
	})
	if err != nil {
		return resultErr(fmt.Errorf("send_message: serialise: %w", err)), nil
	}
	return result, nil
}

// sleepCtx sleeps for d, returning early with the context error when ctx is
// cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ─── send_message_with_attachment ─────────────────────────────────────────────

func (s *Server) toolSendMessageWithAttachment() mcpsrv.ServerTool {
	tool := mcplib.NewTool("send_message_with_attachment",
		mcplib.WithDescription(`Send a file to a Discord channel as the user, with an optional text body.

The text body is limited to 2000 characters and is not split; send longer
commentary with send_message separately.`),
		mcplib.WithString("server_id",
			mcplib.Description("The Discord server (guild) ID the channel belongs to."),
			mcplib.Required(),
		),
		mcplib.WithString("channel_id",
			mcplib.Description("The Discord channel ID to post to."),
			mcplib.Required(),
		),
		mcplib.WithString("file_path",
			mcplib.Description("Path to the local file to attach."),
			mcplib.Required(),
		),
		mcplib.WithString("content",
			mcplib.Description("Optional text to send with the file (2000 characters max)."),
		),
		mcplib.WithString("filename",
			mcplib.Description("Optional name for the attachment; the file's own name is used when omitted."),
		),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleSendMessageWithAttachment}
}

func (s *Server) handleSendMessageWithAttachment(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	if serverID, ok := stringArg(req, "server_id"); !ok || serverID == "" {
		return resultErr(errors.New("send_message_with_attachment: server_id is required")), nil
	}
	channelID, ok := stringArg(req, "channel_id")
	if !ok || channelID == "" {
		return resultErr(errors.New("send_message_with_attachment: channel_id is required")), nil
	}
	filePath, ok := stringArg(req, "file_path")
	if !ok || filePath == "" {
		return resultErr(errors.New("send_message_with_attachment: file_path is required")), nil
	}
	content, _ := stringArg(req, "content")
	if utf8.RuneCountInString(content) > maxAttachmentNote {
		return resultErr(fmt.Errorf("send_message_with_attachment: content exceeds %d characters, send it as a separate message", maxAttachmentNote)), nil
	}
	filename, _ := stringArg(req, "filename")

	s.logger.InfoContext(ctx, "mcp: send_message_with_attachment", "channel", channelID, "file", filePath)

	id, size, err := s.sess.SendFile(ctx, channelID, content, filePath, filename)
	if err != nil {
		return resultErr(fmt.Errorf("send_message_with_attachment: %w", err)), nil
	}
	if filename == "" {
		filename = filepath.Base(filePath)
	}

	result, err := resultJSON(sentResult{
		Status:    "sent",
		MessageID: id,
		Filename:  filename,
		SizeBytes: size,
	})
	if err != nil {
		return resultErr(fmt.Errorf("send_message_with_attachment: serialise: %w", err)), nil
	}
	return result, nil
}

// ─── list_dm_conversations ────────────────────────────────────────────────────

func (s *Server) toolListDMConversations() mcpsrv.ServerTool {
	tool := mcplib.NewTool("list_dm_conversations",
		mcplib.WithDescription("List the user's direct and group message conversations, most recently active first as returned by Discord. Returns names, usernames and last activity timestamps."),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleListDMConversations}
}

func (s *Server) handleListDMConversations(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	conversations, err := s.sess.Conversations(ctx)
	if err != nil {
		return resultErr(fmt.Errorf("list_dm_conversations: %w", err)), nil
	}
	result, err := resultJSON(conversations)
	if err != nil {
		return resultErr(fmt.Errorf("list_dm_conversations: serialise: %w", err)), nil
	}
	return result, nil
}

// ─── read_dm_messages ─────────────────────────────────────────────────────────

func (s *Server) toolReadDMMessages() mcpsrv.ServerTool {
	tool := mcplib.NewTool("read_dm_messages",
		mcplib.WithDescription(`Read the most recent messages of a direct or group conversation addressed by the other party's name.

The name is matched against usernames and display names, exact matches first.
When several conversations match equally well, the result lists all of them
with a suggested exact search string for each; retry with one of those.`),
		mcplib.WithString("name",
			mcplib.Description("Username or display name of the DM counterpart, or a group conversation name."),
			mcplib.Required(),
		),
		mcplib.WithNumber("max_messages",
			mcplib.Description("Maximum number of messages to return (1-1000, default 100)."),
		),
		mcplib.WithNumber("hours_back",
			mcplib.Description("Only return messages newer than this many hours (1-8760). Omit for no time limit."),
		),
		mcplib.WithReadOnlyHintAnnotation(true),
	)
	return mcpsrv.ServerTool{Tool: tool, Handler: s.handleReadDMMessages}
}

// ambiguousResult is returned when the name matches several conversations.
type ambiguousResult struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Matches []resolve.Candidate `json:"matches"`
}

func (s *Server) handleReadDMMessages(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	name, ok := stringArg(req, "name")
	if !ok || strings.TrimSpace(name) == "" {
		return resultErr(errors.New("read_dm_messages: name is required")), nil
	}
	p, err := s.readParams(req)
	if err != nil {
		return resultErr(fmt.Errorf("read_dm_messages: %w", err)), nil
	}

	conversations, err := s.sess.Conversations(ctx)
	if err != nil {
		return resultErr(fmt.Errorf("read_dm_messages: %w", err)), nil
	}

	conv, err := resolve.Conversation(name, conversations)
	if err != nil {
		var ae *resolve.AmbiguousError
		if errors.As(err, &ae) {
			result, jerr := resultJSON(ambiguousResult{
				Error:   "multiple_matches_found",
				Message: fmt.Sprintf("Found %d conversations matching %q. Retry with the suggestion of the intended one.", len(ae.Candidates), name),
				Matches: ae.Candidates,
			})
			if jerr != nil {
				return resultErr(fmt.Errorf("read_dm_messages: serialise: %w", jerr)), nil
			}
			return result, nil
		}
		return resultErr(fmt.Errorf("read_dm_messages: %w", err)), nil
	}

	s.logger.InfoContext(ctx, "mcp: read_dm_messages", "name", name, "conversation", conv.ID)

	messages, err := s.sess.Messages(ctx, conv.ID, p.MaxMessages)
	if err != nil {
		return resultErr(fmt.Errorf("read_dm_messages: %w", err)), nil
	}
	messages = p.window(messages)

	result, err := resultJSON(messagesResult{
		ChannelID:    conv.ID,
		Conversation: conv.Name,
		Count:        len(messages),
		Messages:     messages,
	})
	if err != nil {
		return resultErr(fmt.Errorf("read_dm_messages: serialise: %w", err)), nil
	}
	return result, nil
}
