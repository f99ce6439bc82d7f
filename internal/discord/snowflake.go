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

// In this file: snowflake ID timestamp decoding.

import (
	"fmt"
	"strconv"
	"time"
)

// discordEpoch is the Discord epoch (2015-01-01T00:00:00Z) in Unix
// milliseconds.  The upper 42 bits of a snowflake ID are milliseconds since
// this epoch.
const discordEpoch = 1420070400000

// SnowflakeTime decodes the creation time embedded in a snowflake ID.
func SnowflakeTime(id string) (time.Time, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid snowflake %q: %w", id, err)
	}
	ms := int64(n>>22) + discordEpoch
	return time.UnixMilli(ms).UTC(), nil
}
