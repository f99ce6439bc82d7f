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

// Package auth provides Discord authentication providers.  A provider holds
// a user token and knows where it came from: supplied explicitly, loaded from
// the on-disk cache, or extracted from a live browser login.
package auth

import (
	"errors"
	"strings"
)

// Type is the auth type.
type Type uint8

// All supported auth types.
const (
	TypeInvalid Type = iota
	TypeValue
	TypeCached
	TypeBrowser
)

func (t Type) String() string {
	switch t {
	case TypeValue:
		return "value"
	case TypeCached:
		return "cached"
	case TypeBrowser:
		return "browser"
	default:
		return "invalid"
	}
}

// Provider is the Discord authentication provider.
type Provider interface {
	// DiscordToken should return the Discord user token value.
	DiscordToken() string
	// Type returns the auth type.
	Type() Type
	// Validate should return an error in case the token cannot be
	// retrieved.
	Validate() error
}

var ErrNoToken = errors.New("no token")

type simpleProvider struct {
	Token string
}

func (c simpleProvider) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return ErrNoToken
	}
	return nil
}

func (c simpleProvider) DiscordToken() string {
	return c.Token
}
