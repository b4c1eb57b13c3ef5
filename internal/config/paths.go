package config

import (
	"os"
	"path/filepath"
)

// UserConfigPath returns the path to the user-level config file.
// This follows the XDG Base Directory Specification:
// - Linux: ~/.config/chlog/config.yml
// - macOS: ~/Library/Application Support/chlog/config.yml
// - Windows: %APPDATA%\chlog\config.yml
//
// If XDG_CONFIG_HOME is set, it will be respected on Linux.
func UserConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "chlog", "config.yml"), nil
}

// ProjectConfigDir returns the directory holding the project config. The
// config always lives in .changelog, even when changelog_dir is changed,
// because it is read before changelog_dir is known.
func ProjectConfigDir(root string) string {
	return filepath.Join(root, ".changelog")
}

// ProjectConfigPath returns the path to the project-level config file.
func ProjectConfigPath(root string) string {
	return filepath.Join(ProjectConfigDir(root), "config.yml")
}

// LegacyProjectConfigPath returns the path to the legacy project-level JSON config file.
func LegacyProjectConfigPath(root string) string {
	return filepath.Join(ProjectConfigDir(root), "config.json")
}
