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

package splitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		content string
		limit   int
		want    []string
	}{
		{
			name:    "empty content yields no chunks",
			content: "",
			limit:   2000,
			want:    nil,
		},
		{
			name:    "short content is a single chunk",
			content: "hello there",
			limit:   2000,
			want:    []string{"hello there"},
		},
		{
			name:    "content of exactly the limit is not split",
			content: strings.Repeat("x", 2000),
			limit:   2000,
			want:    []string{strings.Repeat("x", 2000)},
		},
		{
			name:    "unbroken text is hard cut at the limit",
			content: strings.Repeat("x", 4500),
			limit:   2000,
			want: []string{
				strings.Repeat("x", 2000),
				strings.Repeat("x", 2000),
				strings.Repeat("x", 500),
			},
		},
		{
			name:    "newline within the limit wins over the limit position",
			content: strings.Repeat("A", 1000) + "\n" + strings.Repeat("B", 1500),
			limit:   2000,
			want: []string{
				strings.Repeat("A", 1000),
				strings.Repeat("B", 1500),
			},
		},
		{
			name:    "space is used when there is no newline",
			content: strings.Repeat("A", 1500) + " " + strings.Repeat("B", 1000),
			limit:   2000,
			want: []string{
				strings.Repeat("A", 1500),
				strings.Repeat("B", 1000),
			},
		},
		{
			name:    "newline preferred over a later space",
			content: strings.Repeat("A", 500) + "\n" + strings.Repeat("B", 1000) + " " + strings.Repeat("C", 900),
			limit:   2000,
			want: []string{
				strings.Repeat("A", 500),
				strings.Repeat("B", 1000) + " " + strings.Repeat("C", 900),
			},
		},
		{
			name:    "separator at position zero falls back to a hard cut",
			content: "\n" + strings.Repeat("A", 2500),
			limit:   2000,
			want: []string{
				"\n" + strings.Repeat("A", 1999),
				strings.Repeat("A", 501),
			},
		},
		{
			name:    "separator at the limit position is consumed",
			content: strings.Repeat("A", 5) + "\n" + strings.Repeat("B", 7),
			limit:   5,
			want: []string{
				strings.Repeat("A", 5),
				strings.Repeat("B", 5),
				strings.Repeat("B", 2),
			},
		},
		{
			name:    "whitespace only input collapses to a single chunk per cut",
			content: "word",
			limit:   1,
			want:    []string{"w", "o", "r", "d"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.content, tt.limit)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplit_lengthBound(t *testing.T) {
	// every chunk must be within the limit, for any limit >= 1.
	inputs := []string{
		strings.Repeat("lorem ipsum dolor sit amet\n", 300),
		strings.Repeat("x", 9999),
		"a b c d e f g",
		strings.Repeat("словословослово ", 500),
	}
	for _, limit := range []int{1, 2, 7, 100, 2000} {
		for _, in := range inputs {
			for i, chunk := range Split(in, limit) {
				require.NotEmpty(t, chunk, "limit %d chunk %d is empty", limit, i)
				require.LessOrEqual(t, len([]rune(chunk)), limit, "limit %d chunk %d too long", limit, i)
			}
		}
	}
}

func TestSplit_reconstruction(t *testing.T) {
	// joining chunks cut at separators with a single separator restores the
	// original content.
	content := strings.Repeat("A", 1000) + "\n" + strings.Repeat("B", 1500) + "\n" + strings.Repeat("C", 800)
	got := Split(content, 2000)
	require.Len(t, got, 3)
	assert.Equal(t, content, strings.Join(got, "\n"))
}

func TestSplit_invalidLimit(t *testing.T) {
	// a non-positive limit falls back to the Discord default.
	got := Split(strings.Repeat("x", DefaultLimit+1), 0)
	require.Len(t, got, 2)
	assert.Len(t, got[0], DefaultLimit)
}
