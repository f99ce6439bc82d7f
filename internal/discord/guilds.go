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

// In this file: guild (server) listing.

import "context"

type wireGuild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// Guilds returns all guilds (servers) the authenticated user is a member of.
func (cl *Client) Guilds(ctx context.Context) ([]Guild, error) {
	var wire []wireGuild
	if err := cl.get(ctx, "/users/@me/guilds", nil, &wire); err != nil {
		return nil, err
	}
	guilds := make([]Guild, 0, len(wire))
	for _, g := range wire {
		guilds = append(guilds, Guild{ID: g.ID, Name: g.Name, Icon: g.Icon})
	}
	cl.lg.DebugContext(ctx, "listed guilds", "count", len(guilds))
	return guilds, nil
}
