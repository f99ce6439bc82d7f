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

// In this file: DM conversation listing.

import (
	"context"
	"fmt"
	"strings"
)

// DM channel types in the users/@me/channels response.
const (
	chanTypeDM      = 1
	chanTypeGroupDM = 3
)

type wireRecipient struct {
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
}

func (r wireRecipient) displayName() string {
	if r.GlobalName != "" {
		return r.GlobalName
	}
	if r.Username != "" {
		return r.Username
	}
	return "Unknown"
}

type wireDMChannel struct {
	ID            string          `json:"id"`
	Type          int             `json:"type"`
	Name          string          `json:"name"`
	Icon          string          `json:"icon"`
	LastMessageID string          `json:"last_message_id"`
	Recipients    []wireRecipient `json:"recipients"`
}

// Conversations returns all DM and group-DM conversations of the
// authenticated user.
func (cl *Client) Conversations(ctx context.Context) ([]Conversation, error) {
	var wire []wireDMChannel
	if err := cl.get(ctx, "/users/@me/channels", nil, &wire); err != nil {
		return nil, err
	}
	conversations := make([]Conversation, 0, len(wire))
	for _, dm := range wire {
		var conv Conversation
		switch dm.Type {
		case chanTypeDM:
			conv = directConversation(dm)
		case chanTypeGroupDM:
			conv = groupConversation(dm)
		default:
			continue
		}
		if dm.LastMessageID != "" {
			if ts, err := SnowflakeTime(dm.LastMessageID); err == nil {
				conv.LastMessageAt = &ts
			}
		}
		conversations = append(conversations, conv)
	}
	cl.lg.DebugContext(ctx, "listed dm conversations", "count", len(conversations))
	return conversations, nil
}

// directConversation builds a Conversation for a 1-on-1 DM.  The display
// name prefers the counterpart's global display name, the username is kept as
// the stable identifier.
func directConversation(dm wireDMChannel) Conversation {
	name := "Unknown User"
	username := ""
	if len(dm.Recipients) > 0 {
		r := dm.Recipients[0]
		name = r.displayName()
		username = r.Username
	}
	return Conversation{
		ID:             dm.ID,
		Name:           name,
		Username:       username,
		Kind:           KindDirect,
		RecipientCount: 1,
		AvatarURL:      dm.Icon,
	}
}

// groupConversation builds a Conversation for a group DM.  Groups without a
// custom name are labelled with the first few recipient names.
func groupConversation(dm wireDMChannel) Conversation {
	name := dm.Name
	if name == "" && len(dm.Recipients) > 0 {
		names := make([]string, 0, 3)
		for _, r := range dm.Recipients[:min(3, len(dm.Recipients))] {
			names = append(names, r.displayName())
		}
		name = strings.Join(names, ", ")
		if len(dm.Recipients) > 3 {
			name += fmt.Sprintf(" +%d more", len(dm.Recipients)-3)
		}
	}
	if name == "" {
		name = "Unnamed Group"
	}
	return Conversation{
		ID:   dm.ID,
		Name: name,
		Kind: KindGroup,
		// the recipients array excludes the user, and on a deserted group it
		// is empty; a conversation always has at least one participant.
		RecipientCount: max(len(dm.Recipients), 1),
		AvatarURL:      dm.Icon,
	}
}
