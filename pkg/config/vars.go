package config

import (
	"path/filepath"
)

var (
	// AppName is used in generating file system paths.
	AppName = "oadb"
)

// ConfigDir returns the directory path for configuration files.
// Returns ~/.config/oadb by default.
func ConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config", AppName)
}

// ConfigFilePath returns the full path to the oadb.yaml file.
// Returns ~/.config/oadb/oadb.yaml by default.
func ConfigFilePath(homeDir string) string {
	return filepath.Join(ConfigDir(homeDir), AppName+".yaml")
}
