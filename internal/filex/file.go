// Package filex holds small filesystem helpers for the CLI's local state.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const stateDirPerm os.FileMode = 0o700

// EnsureStateDir returns base/name, creating it when missing. An empty base
// means the user's config directory. The directory holds the saved bearer
// token, so an existing one readable by others is narrowed to the owner.
func EnsureStateDir(base, name string) (string, error) {
	if base == "" {
		cfg, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("user config dir: %w", err)
		}
		base = cfg
	}

	dir := filepath.Join(base, name)
	if err := os.MkdirAll(dir, stateDirPerm); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	if runtime.GOOS == "windows" {
		return dir, nil
	}

	fi, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", dir, err)
	}
	if fi.Mode().Perm()&^stateDirPerm != 0 {
		if err := os.Chmod(dir, stateDirPerm); err != nil {
			return "", fmt.Errorf("chmod %s: %w", dir, err)
		}
	}

	return dir, nil
}
