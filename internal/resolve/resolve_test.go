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

package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rusq/discordmcp/internal/discord"
)

func dm(id, name, username string) discord.Conversation {
	return discord.Conversation{ID: id, Name: name, Username: username, Kind: discord.KindDirect, RecipientCount: 1}
}

func group(id, name string) discord.Conversation {
	return discord.Conversation{ID: id, Name: name, Kind: discord.KindGroup, RecipientCount: 3}
}

func TestConversation(t *testing.T) {
	tests := []struct {
		name    string
		search  string
		convs   []discord.Conversation
		wantID  string
		wantErr error
	}{
		{
			name:   "exact username wins over broader display name matches",
			search: "jo",
			convs: []discord.Conversation{
				dm("1", "Jordan", "jordan55"),  // display name prefix
				dm("2", "Someone", "jo"),       // exact username
				group("3", "jo and the gang"),  // display name prefix
			},
			wantID: "2",
		},
		{
			name:   "exact display name wins over prefix matches",
			search: "ann",
			convs: []discord.Conversation{
				dm("1", "Annette", "annette1"),
				dm("2", "Ann", "ann_b"),
			},
			wantID: "2",
		},
		{
			name:   "username prefix consulted before display name prefix",
			search: "mar",
			convs: []discord.Conversation{
				dm("1", "Maria", "ria"),   // display name prefix only
				dm("2", "Other", "marta"), // username prefix
			},
			wantID: "2",
		},
		{
			name:   "display name contains is the last resort",
			search: "doe",
			convs: []discord.Conversation{
				dm("1", "John Doe", "johnny"),
				dm("2", "Zed", "zed"),
			},
			wantID: "1",
		},
		{
			name:   "matching is case insensitive",
			search: "JOHNDOE",
			convs: []discord.Conversation{
				dm("1", "John Doe", "johndoe"),
			},
			wantID: "1",
		},
		{
			name:   "search term is trimmed",
			search: "  johndoe  ",
			convs: []discord.Conversation{
				dm("1", "John Doe", "johndoe"),
			},
			wantID: "1",
		},
		{
			name:   "groups are matched by display name only",
			search: "weekend plans",
			convs: []discord.Conversation{
				dm("1", "Wendy", "weekend"),
				group("2", "Weekend Plans"),
			},
			wantID: "2",
		},
		{
			name:    "no match in any tier is not found",
			search:  "nosuchname",
			convs:   []discord.Conversation{dm("1", "John Doe", "johndoe"), group("2", "plans")},
			wantErr: &NotFoundError{},
		},
		{
			name:    "empty conversation list is not found",
			search:  "anyone",
			convs:   nil,
			wantErr: &NotFoundError{},
		},
		{
			name:    "empty search term is not found",
			search:  "",
			convs:   []discord.Conversation{dm("1", "John Doe", "johndoe")},
			wantErr: &NotFoundError{},
		},
		{
			name:    "whitespace-only search term does not resolve the only conversation",
			search:  "   ",
			convs:   []discord.Conversation{dm("1", "John Doe", "johndoe")},
			wantErr: &NotFoundError{},
		},
		{
			name:    "whitespace-only search term is not ambiguous across several",
			search:  "  ",
			convs:   []discord.Conversation{dm("1", "John Doe", "johndoe"), dm("2", "Johnny", "johnny")},
			wantErr: &NotFoundError{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Conversation(tt.search, tt.convs)
			if tt.wantErr != nil {
				require.Error(t, err)
				var nfe *NotFoundError
				require.ErrorAs(t, err, &nfe)
				assert.Contains(t, nfe.Error(), tt.search)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestConversation_ambiguous(t *testing.T) {
	t.Run("two username prefix matches are ambiguous with suggestions", func(t *testing.T) {
		convs := []discord.Conversation{
			dm("1", "John Doe", "john_a"),
			dm("2", "Johnny", "john_b"),
			dm("3", "Unrelated", "zed"),
		}
		_, err := Conversation("john", convs)
		var ae *AmbiguousError
		require.ErrorAs(t, err, &ae)
		require.Len(t, ae.Candidates, 2)
		assert.Equal(t, "john", ae.Name)
		assert.Equal(t, "john_a", ae.Candidates[0].Suggestion)
		assert.Equal(t, "john_b", ae.Candidates[1].Suggestion)
	})

	t.Run("group candidates suggest their display name", func(t *testing.T) {
		convs := []discord.Conversation{
			group("1", "trip planning"),
			group("2", "trip photos"),
		}
		_, err := Conversation("trip", convs)
		var ae *AmbiguousError
		require.ErrorAs(t, err, &ae)
		require.Len(t, ae.Candidates, 2)
		assert.Equal(t, "trip planning", ae.Candidates[0].Suggestion)
		assert.Equal(t, "trip photos", ae.Candidates[1].Suggestion)
	})

	t.Run("an exact match is not ambiguous even with partial matches present", func(t *testing.T) {
		// the exact tier produced one match, so the prefix tier with its two
		// candidates is never consulted.
		convs := []discord.Conversation{
			dm("1", "Sam", "sam"),
			dm("2", "Samuel", "samuel"),
			dm("3", "Samantha", "samantha"),
		}
		got, err := Conversation("sam", convs)
		require.NoError(t, err)
		assert.Equal(t, "1", got.ID)
	})
}
