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

// In this file: domain types returned by the client.  All types are value
// types, treated as read-only after construction.

import "time"

// Guild is a Discord server the authenticated user is a member of.
type Guild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// Channel is a text-capable channel within a guild.
type Channel struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    int    `json:"type"`
	GuildID string `json:"guild_id,omitempty"`
}

// Message is a single chat message in a channel or DM conversation.
type Message struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	AuthorName  string    `json:"author_name"`
	AuthorID    string    `json:"author_id,omitempty"`
	ChannelID   string    `json:"channel_id"`
	Timestamp   time.Time `json:"timestamp"`
	Attachments []string  `json:"attachments"`
}

// IsEmpty reports whether the message carries neither text nor attachments.
// Such messages are noise (e.g. system placeholders) and are excluded from
// results.
func (m Message) IsEmpty() bool {
	return m.Content == "" && len(m.Attachments) == 0
}

// Kind distinguishes 1-on-1 DMs from group conversations.
type Kind string

const (
	KindDirect Kind = "dm"
	KindGroup  Kind = "group_dm"
)

// Conversation is a direct or group message thread.  Username is the stable
// handle of the counterpart and is set only for 1-on-1 DMs; groups have no
// single username.
type Conversation struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Username       string     `json:"username,omitempty"`
	Kind           Kind       `json:"type"`
	RecipientCount int        `json:"recipient_count"`
	LastMessageAt  *time.Time `json:"last_message_timestamp,omitempty"`
	AvatarURL      string     `json:"avatar_url,omitempty"`
}

// IsDirect reports whether the conversation is a 1-on-1 DM.
func (c Conversation) IsDirect() bool {
	return c.Kind == KindDirect
}
