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

// Package splitter breaks long message text into segments that fit within
// Discord's message length limit.  Cut points prefer line breaks over word
// breaks over mid-word truncation, so that the resulting messages remain
// readable.
package splitter

import "unicode"

// DefaultLimit is Discord's maximum message length in characters.
const DefaultLimit = 2000

// Split splits content into chunks of at most limit characters each.  The
// limit is counted in runes, matching how Discord counts message length.
// At each step the cut is placed at the last newline within the limit, then
// at the last space, and only as a last resort mid-word at exactly the limit.
// The separator character at a cut point is consumed, and leading whitespace
// is stripped from the remainder, so joining the chunks with a single
// separator reconstructs the content up to boundary whitespace.
//
// Empty content produces no chunks: sending an empty message is not a
// meaningful action.
func Split(content string, limit int) []string {
	if limit < 1 {
		limit = DefaultLimit
	}
	rest := []rune(content)
	if len(rest) == 0 {
		return nil
	}
	var chunks []string
	for len(rest) > limit {
		cut := lastIndex(rest[:limit+1], '\n')
		if cut <= 0 {
			cut = lastIndex(rest[:limit+1], ' ')
		}
		if cut <= 0 {
			// no usable separator, or the separator is the first character:
			// hard cut to guarantee progress and a non-empty chunk.
			cut = limit
		}
		chunks = append(chunks, string(rest[:cut]))
		rest = trimLeft(rest[cut:])
	}
	if len(rest) > 0 {
		chunks = append(chunks, string(rest))
	}
	return chunks
}

// lastIndex returns the index of the last occurrence of sep in rr, or -1.
func lastIndex(rr []rune, sep rune) int {
	for i := len(rr) - 1; i >= 0; i-- {
		if rr[i] == sep {
			return i
		}
	}
	return -1
}

// trimLeft strips leading whitespace runes.
func trimLeft(rr []rune) []rune {
	for len(rr) > 0 && unicode.IsSpace(rr[0]) {
		rr = rr[1:]
	}
	return rr
}
