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

package auth

import "strings"

// ValueAuth is the provider for a token that was supplied directly, i.e.
// through an environment variable or a flag.
type ValueAuth struct {
	simpleProvider
	typ Type
}

// NewValueAuth creates a provider from the given token value.
func NewValueAuth(token string) (ValueAuth, error) {
	va := ValueAuth{
		simpleProvider: simpleProvider{Token: strings.TrimSpace(token)},
		typ:            TypeValue,
	}
	if err := va.Validate(); err != nil {
		return ValueAuth{}, err
	}
	return va, nil
}

// NewCachedAuth creates a provider from a token that was read back from the
// token cache.
func NewCachedAuth(token string) (ValueAuth, error) {
	va, err := NewValueAuth(token)
	if err != nil {
		return ValueAuth{}, err
	}
	va.typ = TypeCached
	return va, nil
}

func (va ValueAuth) Type() Type { return va.typ }
