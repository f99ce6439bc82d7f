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

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValueAuth(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		va, err := NewValueAuth("  xtoken  ")
		require.NoError(t, err)
		assert.Equal(t, "xtoken", va.DiscordToken())
		assert.Equal(t, TypeValue, va.Type())
		assert.NoError(t, va.Validate())
	})
	t.Run("empty token", func(t *testing.T) {
		_, err := NewValueAuth("   ")
		assert.ErrorIs(t, err, ErrNoToken)
	})
	t.Run("cached token carries its own type", func(t *testing.T) {
		va, err := NewCachedAuth("xtoken")
		require.NoError(t, err)
		assert.Equal(t, TypeCached, va.Type())
	})
}

func TestError(t *testing.T) {
	inner := errors.New("boom")
	ae := &Error{Err: inner, Msg: "it went badly"}
	assert.ErrorIs(t, ae, inner)
	assert.Contains(t, ae.Error(), "it went badly")

	bare := &Error{Err: inner}
	assert.Contains(t, bare.Error(), "boom")
}

func TestIsManualLoginRequired(t *testing.T) {
	assert.True(t, IsManualLoginRequired(&Error{Err: ErrMFARequired}))
	assert.True(t, IsManualLoginRequired(&Error{Err: ErrCaptcha}))
	assert.False(t, IsManualLoginRequired(&Error{Err: errors.New("other")}))
	assert.False(t, IsManualLoginRequired(nil))
}

func Test_isToken(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"plausible token", "MTA5NzY2NTQ0NzA0NTQ2ODE4OQ.GhIJKl.abcdefghij-klmnop_qrstuvwx", true},
		{"mfa token", "mfa." + strings.Repeat("a", 40), true},
		{"too short", "abc.def", false},
		{"undefined from the page", "undefined", false},
		{"null from the page", "null", false},
		{"whitespace inside", "aaaa bbbb " + strings.Repeat("c", 30), false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isToken(tt.value))
		})
	}
}

func Test_isMFAURL(t *testing.T) {
	assert.True(t, isMFAURL("https://discord.com/login/verify"))
	assert.True(t, isMFAURL("https://discord.com/mfa/totp"))
	assert.False(t, isMFAURL("https://discord.com/login"))
	assert.False(t, isMFAURL("https://discord.com/channels/@me"))
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "value", TypeValue.String())
	assert.Equal(t, "cached", TypeCached.String())
	assert.Equal(t, "browser", TypeBrowser.String())
	assert.Equal(t, "invalid", TypeInvalid.String())
}
