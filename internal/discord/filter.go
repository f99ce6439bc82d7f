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

// In this file: the time-window message filter.

import "time"

// FilterSince returns the messages with a timestamp strictly after cutoff,
// preserving the input order.  A message timestamped exactly at the cutoff is
// excluded.  Timestamps are compared as instants, so differing zone
// representations of the same moment compare equal.
func FilterSince(messages []Message, cutoff time.Time) []Message {
	recent := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Timestamp.After(cutoff) {
			recent = append(recent, m)
		}
	}
	return recent
}
