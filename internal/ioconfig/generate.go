package ioconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/oatrack/oadb/pkg/config"
	"gopkg.in/yaml.v3"
)

// GetConfigDir returns the configuration directory for oadb.
// Uses ~/.config/oadb/ on all platforms for consistency.
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return config.ConfigDir(homeDir), nil
}

// GetDefaultConfigPath returns the full path to the default config
// file.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return config.ConfigFilePath(homeDir), nil
}

// ConfigFileExists reports whether a config file is present either in
// the working directory or at the default location.
func ConfigFileExists() (bool, error) {
	if _, err := os.Stat("./oadb.yaml"); err == nil {
		return true, nil
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(defaultPath); err == nil {
		return true, nil
	}
	return false, nil
}

// GenerateDefaultConfig writes a default oadb.yaml at the default
// location. Does NOT overwrite an existing file.
func GenerateDefaultConfig() (string, error) {
	configPath, err := GetDefaultConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config.New())
	if err != nil {
		return "", fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, nil
}
