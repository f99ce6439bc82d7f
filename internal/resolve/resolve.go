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

// Package resolve maps a human-typed name to a DM conversation.
//
// The search runs through five match tiers of decreasing strictness: exact
// username, exact display name, username prefix, display-name prefix, and
// display-name substring.  Usernames are stable identifiers and win over
// display names, and exact matches win over partial ones, so a user who
// typed a complete, correct name is never surprised by a substring match on
// another conversation.  A tier is consulted only when every previous tier
// matched nothing; if a tier matches more than one conversation the result
// is ambiguous and all candidates are reported with suggested retry strings.
package resolve

import (
	"fmt"
	"strings"

	"github.com/rusq/discordmcp/internal/discord"
)

// NotFoundError is returned when no conversation matches the search string in
// any tier.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no DM conversation found matching %q, use list_dm_conversations to see available conversations", e.Name)
}

// Candidate is one of several conversations matching the search string.
// Suggestion is the string to retry the search with: the username when the
// conversation has one, otherwise the display name.
type Candidate struct {
	discord.Conversation
	Suggestion string `json:"suggestion"`
}

// AmbiguousError is returned when more than one conversation matches within
// the same tier.  It is not a failure: the caller is expected to present
// Candidates to the user and retry with one of the suggestions.
type AmbiguousError struct {
	Name       string
	Candidates []Candidate
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("found %d conversations matching %q", len(e.Candidates), e.Name)
}

// matchFn reports whether the conversation matches the lowercased search
// term.  Username tiers skip group conversations, which have no username.
type matchFn func(c discord.Conversation, term string) bool

// tiers in priority order.  A tier is only consulted if all previous tiers
// produced zero matches.
var tiers = []matchFn{
	func(c discord.Conversation, term string) bool {
		return c.Username != "" && strings.ToLower(c.Username) == term
	},
	func(c discord.Conversation, term string) bool {
		return strings.ToLower(c.Name) == term
	},
	func(c discord.Conversation, term string) bool {
		return c.Username != "" && strings.HasPrefix(strings.ToLower(c.Username), term)
	},
	func(c discord.Conversation, term string) bool {
		return strings.HasPrefix(strings.ToLower(c.Name), term)
	},
	func(c discord.Conversation, term string) bool {
		return strings.Contains(strings.ToLower(c.Name), term)
	},
}

// Conversation resolves name to exactly one of conversations.  On multiple
// matches it returns *AmbiguousError listing every candidate of the winning
// tier; when nothing matches it returns *NotFoundError.
func Conversation(name string, conversations []discord.Conversation) (discord.Conversation, error) {
	term := strings.ToLower(strings.TrimSpace(name))
	if term == "" {
		// a blank term would prefix-match every conversation.
		return discord.Conversation{}, &NotFoundError{Name: name}
	}

	for _, match := range tiers {
		var found []discord.Conversation
		for _, c := range conversations {
			if c.Name == "" {
				continue
			}
			if match(c, term) {
				found = append(found, c)
			}
		}
		switch len(found) {
		case 0:
			continue
		case 1:
			return found[0], nil
		default:
			return discord.Conversation{}, &AmbiguousError{Name: name, Candidates: candidates(found)}
		}
	}
	return discord.Conversation{}, &NotFoundError{Name: name}
}

func candidates(convs []discord.Conversation) []Candidate {
	cc := make([]Candidate, 0, len(convs))
	for _, c := range convs {
		suggestion := c.Username
		if suggestion == "" {
			suggestion = c.Name
		}
		cc = append(cc, Candidate{Conversation: c, Suggestion: suggestion})
	}
	return cc
}
