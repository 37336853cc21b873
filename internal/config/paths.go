package config

import (
	"os"
	"path/filepath"
)

// Home returns the slidemote home directory (~/.slidemote).
func Home() string {
	userHome, _ := os.UserHomeDir()
	return filepath.Join(userHome, ".slidemote")
}

// HistoryDBPath returns the history database path under the given data dir.
func HistoryDBPath(dataDir string) string {
	return filepath.Join(dataDir, "history.db")
}

// ExpandPath expands a leading ~ to the user home directory.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return userHome
	}
	if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
		return filepath.Join(userHome, path[2:])
	}
	return path
}
