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

package cache

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	return m
}

func TestManager_Token(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		m := testManager(t)
		require.NoError(t, m.SaveToken("xtoken"))
		token, err := m.Token()
		require.NoError(t, err)
		assert.Equal(t, "xtoken", token)
	})
	t.Run("missing file", func(t *testing.T) {
		m := testManager(t)
		_, err := m.Token()
		assert.ErrorIs(t, err, ErrNoCachedToken)
	})
	t.Run("empty file", func(t *testing.T) {
		m := testManager(t)
		require.NoError(t, m.SaveToken("  \n"))
		_, err := m.Token()
		assert.ErrorIs(t, err, ErrNoCachedToken)
	})
	t.Run("save truncates the previous value", func(t *testing.T) {
		m := testManager(t)
		require.NoError(t, m.SaveToken("a long old token value"))
		require.NoError(t, m.SaveToken("short"))
		token, err := m.Token()
		require.NoError(t, err)
		assert.Equal(t, "short", token)
	})
	t.Run("surrounding whitespace is trimmed", func(t *testing.T) {
		m := testManager(t)
		require.NoError(t, m.SaveToken("\n xtoken \n"))
		token, err := m.Token()
		require.NoError(t, err)
		assert.Equal(t, "xtoken", token)
	})
}

func TestManager_Reset(t *testing.T) {
	t.Run("removes the token", func(t *testing.T) {
		m := testManager(t)
		require.NoError(t, m.SaveToken("xtoken"))
		require.NoError(t, m.Reset())
		_, err := m.Token()
		assert.ErrorIs(t, err, ErrNoCachedToken)
	})
	t.Run("missing file is not an error", func(t *testing.T) {
		m := testManager(t)
		assert.NoError(t, m.Reset())
	})
}

func TestManager_permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	m := testManager(t)
	require.NoError(t, m.SaveToken("xtoken"))

	fi, err := os.Stat(m.tokenPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePerm), fi.Mode().Perm())

	di, err := os.Stat(m.dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(dirPerm), di.Mode().Perm())
}
