// Package appdir locates the per-user directory holding pearson-go state
// (log database, dedup index, config).
package appdir

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const dirName = ".pearson-go"

var (
	once     sync.Once
	cacheDir string
	cacheErr error
)

// AppDir returns $HOME/.pearson-go, creating it on first use.
// PEARSON_HOME overrides the location.
func AppDir() (string, error) {
	once.Do(func() {
		dir := os.Getenv("PEARSON_HOME")
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				cacheErr = fmt.Errorf("appdir: cannot resolve home directory: %w", err)
				return
			}
			dir = filepath.Join(home, dirName)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			cacheErr = fmt.Errorf("appdir: cannot create %s: %w", dir, err)
			return
		}
		cacheDir = dir
	})
	return cacheDir, cacheErr
}

// Path joins name onto the application directory. Absolute names are
// returned unchanged.
func Path(name string) (string, error) {
	if filepath.IsAbs(name) {
		return name, nil
	}
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
