package cfg

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ucd(t *testing.T) {
	t.Run("returns the cache subdirectory", func(t *testing.T) {
		got := ucd(func() (string, error) { return "/home/x/.cache", nil })
		assert.Equal(t, filepath.Join("/home/x/.cache", cacheDirName), got)
	})
	t.Run("falls back to the current directory on error", func(t *testing.T) {
		got := ucd(func() (string, error) { return "", errors.New("no cache dir") })
		assert.Equal(t, ".", got)
	})
}

func TestCacheDir(t *testing.T) {
	t.Run("local override wins", func(t *testing.T) {
		old := LocalCacheDir
		LocalCacheDir = "/tmp/cache"
		t.Cleanup(func() { LocalCacheDir = old })
		assert.Equal(t, "/tmp/cache", CacheDir())
	})
	t.Run("default is derived from the user cache dir", func(t *testing.T) {
		old := LocalCacheDir
		LocalCacheDir = ""
		t.Cleanup(func() { LocalCacheDir = old })
		assert.Contains(t, CacheDir(), cacheDirName)
	})
}
