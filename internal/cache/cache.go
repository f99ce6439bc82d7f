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

// Package cache is the on-disk token cache.  The token is stored in a plain
// file with owner-only permissions in the application cache directory, so
// that a browser extraction survives restarts.
package cache

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	defTokenFile = "token"
	dirPerm      = 0o700
	filePerm     = 0o600
)

var ErrNoCachedToken = errors.New("no cached token")

// container is the interface to operate with the credentials container.
type container interface {
	Create(filename string) (io.WriteCloser, error)
	Open(filename string) (io.ReadCloser, error)
}

// plainFile is the 0600 plain file container.
type plainFile struct{}

func (plainFile) Open(filename string) (io.ReadCloser, error) {
	return os.Open(filename)
}

func (plainFile) Create(filename string) (io.WriteCloser, error) {
	return os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
}

// Manager is the token cache manager.  All tokens live under the directory
// given to NewManager.
type Manager struct {
	dir       string
	tokenFile string
	ct        container
}

type Option func(*Manager)

// WithTokenFile overrides the default token file name.
func WithTokenFile(name string) Option {
	return func(m *Manager) { m.tokenFile = name }
}

// NewManager creates a new cache manager rooted at dir, creating the
// directory if necessary.
func NewManager(dir string, opts ...Option) (*Manager, error) {
	m := &Manager{dir: dir, tokenFile: defTokenFile, ct: plainFile{}}
	for _, opt := range opts {
		opt(m)
	}
	if dir != "" {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manager) tokenPath() string {
	return filepath.Join(m.dir, m.tokenFile)
}

// Token returns the cached token.  It returns ErrNoCachedToken if the cache
// file does not exist or is empty.
func (m *Manager) Token() (string, error) {
	f, err := m.ct.Open(m.tokenPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNoCachedToken
		}
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoCachedToken
	}
	return token, nil
}

// SaveToken writes the token to the cache file, truncating any previous
// value.
func (m *Manager) SaveToken(token string) error {
	f, err := m.ct.Create(m.tokenPath())
	if err != nil {
		return err
	}
	if _, err := io.WriteString(f, token); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Reset removes the cached token.  A missing cache file is not an error.
func (m *Manager) Reset() error {
	if err := os.Remove(m.tokenPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
