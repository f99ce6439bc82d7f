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

// In this file: guild channel listing.

import "context"

// textChannelTypes are the channel types that can carry messages: text,
// voice (has a text chat), announcement, threads, stage, forum and media.
var textChannelTypes = map[int]bool{
	0:  true, // guild text
	2:  true, // guild voice
	5:  true, // announcement
	11: true, // public thread
	12: true, // private thread
	13: true, // stage voice
	15: true, // forum
	16: true, // media
}

type wireChannel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type int    `json:"type"`
}

// Channels returns the text-capable channels of the guild.  Categories and
// other non-message channel types are omitted.
func (cl *Client) Channels(ctx context.Context, guildID string) ([]Channel, error) {
	var wire []wireChannel
	if err := cl.get(ctx, "/guilds/"+guildID+"/channels", nil, &wire); err != nil {
		return nil, err
	}
	channels := make([]Channel, 0, len(wire))
	for _, c := range wire {
		if !textChannelTypes[c.Type] {
			continue
		}
		channels = append(channels, Channel{ID: c.ID, Name: c.Name, Type: c.Type, GuildID: guildID})
	}
	cl.lg.DebugContext(ctx, "listed channels", "guild_id", guildID, "count", len(channels))
	return channels, nil
}
