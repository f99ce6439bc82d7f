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

package discord

// In this file: reading and sending channel messages.  DM conversations use
// the same message endpoints, a DM conversation ID is a channel ID.

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type wireAuthor struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
}

type wireAttachment struct {
	URL string `json:"url"`
}

type wireMessage struct {
	ID          string           `json:"id"`
	Content     string           `json:"content"`
	Author      wireAuthor       `json:"author"`
	Timestamp   time.Time        `json:"timestamp"`
	Attachments []wireAttachment `json:"attachments"`
}

func (m wireMessage) message(channelID string) Message {
	attachments := make([]string, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		attachments = append(attachments, a.URL)
	}
	name := m.Author.Username
	if name == "" {
		name = "Unknown"
	}
	return Message{
		ID:          m.ID,
		Content:     m.Content,
		AuthorName:  name,
		AuthorID:    m.Author.ID,
		ChannelID:   channelID,
		Timestamp:   m.Timestamp.UTC(),
		Attachments: attachments,
	}
}

// Messages returns up to limit most recent messages of the channel, newest
// first.  The API serves at most 100 messages per page, so larger limits are
// fetched in pages using the before cursor.  Messages that carry neither text
// nor attachments are dropped.
func (cl *Client) Messages(ctx context.Context, channelID string, limit int) ([]Message, error) {
	if limit < 1 {
		limit = 1
	}
	var (
		messages []Message
		before   string
	)
	for len(messages) < limit {
		perPage := min(limit-len(messages), perPageMax)
		q := url.Values{"limit": []string{strconv.Itoa(perPage)}}
		if before != "" {
			q.Set("before", before)
		}
		var wire []wireMessage
		if err := cl.get(ctx, "/channels/"+channelID+"/messages", q, &wire); err != nil {
			return nil, err
		}
		if len(wire) == 0 {
			break
		}
		for _, wm := range wire {
			msg := wm.message(channelID)
			if msg.IsEmpty() {
				continue
			}
			messages = append(messages, msg)
		}
		before = wire[len(wire)-1].ID
		if len(wire) < perPage {
			break
		}
	}
	if len(messages) > limit {
		messages = messages[:limit]
	}
	cl.lg.DebugContext(ctx, "got messages", "channel_id", channelID, "count", len(messages))
	return messages, nil
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

type sendMessageResponse struct {
	ID string `json:"id"`
}

// SendMessage posts content as a message to the channel and returns the new
// message ID.
func (cl *Client) SendMessage(ctx context.Context, channelID string, content string) (string, error) {
	var resp sendMessageResponse
	if err := cl.postJSON(ctx, "/channels/"+channelID+"/messages", sendMessageRequest{Content: content}, &resp); err != nil {
		return "", err
	}
	cl.lg.DebugContext(ctx, "sent message", "channel_id", channelID, "message_id", resp.ID)
	return resp.ID, nil
}

// SendFile posts a message with a file attachment to the channel.  filename
// overrides the name displayed in Discord; when empty the base name of
// filePath is used.  Returns the new message ID and the attached file size.
func (cl *Client) SendFile(ctx context.Context, channelID string, content string, filePath string, filename string) (string, int64, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", 0, fmt.Errorf("attachment: %w", err)
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("attachment: %w", err)
	}
	if fi.IsDir() {
		return "", 0, fmt.Errorf("attachment: %s is a directory", filePath)
	}
	if filename == "" {
		filename = filepath.Base(filePath)
	}

	var resp sendMessageResponse
	if err := cl.postMultipart(ctx, "/channels/"+channelID+"/messages", sendMessageRequest{Content: content}, filename, f, &resp); err != nil {
		return "", 0, err
	}
	cl.lg.DebugContext(ctx, "sent message with attachment", "channel_id", channelID, "message_id", resp.ID, "filename", filename, "size", fi.Size())
	return resp.ID, fi.Size(), nil
}
