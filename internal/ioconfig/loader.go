// Package ioconfig provides I/O operations for loading configuration
// from files and environment. This is an impure package that handles
// file system operations.
package ioconfig

import (
	"fmt"
	"os"
	"strings"

	"github.com/oatrack/oadb/pkg/config"
	"github.com/spf13/viper"
)

// LoadResult contains the loaded configuration and metadata about the
// source.
type LoadResult struct {
	Config     *config.Config
	SourcePath string // Path to config file used, or empty if using defaults
	Source     string // "file", "defaults", or "defaults+env"
}

// Load reads configuration from a YAML file and returns a Config with
// source info. If configPath is empty, it searches default locations:
//   - ./oadb.yaml
//   - ~/.config/oadb/oadb.yaml
//
// Precedence: env vars > config file > defaults. CLI flag overrides are
// applied by the commands themselves after loading.
func Load(configPath string) (*LoadResult, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix("OADB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults BEFORE reading config - this allows env vars to work
	// with AutomaticEnv() even when the key is absent from the file.
	defaults := config.New()
	v.SetDefault("database.host", defaults.Database.Host)
	v.SetDefault("database.port", defaults.Database.Port)
	v.SetDefault("database.user", defaults.Database.User)
	v.SetDefault("database.password", defaults.Database.Password)
	v.SetDefault("database.database", defaults.Database.Database)
	v.SetDefault("database.ssl_mode", defaults.Database.SSLMode)
	v.SetDefault("database.batch_size", defaults.Database.BatchSize)
	v.SetDefault("index.endpoint", defaults.Index.Endpoint)
	v.SetDefault("index.name", defaults.Index.Name)
	v.SetDefault("index.user", defaults.Index.User)
	v.SetDefault("index.password", defaults.Index.Password)
	v.SetDefault("index.batch_size", defaults.Index.BatchSize)
	v.SetDefault("index.batches_per_commit", defaults.Index.BatchesPerCommit)
	v.SetDefault("fetch.crossref_url", defaults.Fetch.CrossrefURL)
	v.SetDefault("fetch.policy_url", defaults.Fetch.PolicyURL)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("log.destination", defaults.Log.Destination)
	v.SetDefault("jobs_number", defaults.JobsNumber)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		if _, err := os.Stat("./oadb.yaml"); err == nil {
			v.SetConfigFile("./oadb.yaml")
		} else if defaultPath, err := GetDefaultConfigPath(); err == nil {
			if _, statErr := os.Stat(defaultPath); statErr == nil {
				v.SetConfigFile(defaultPath)
			}
		}
	}

	configFileRead := false
	usedConfigPath := ""

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if configPath != "" {
				return nil, fmt.Errorf("config file not found: %s", configPath)
			}
		} else if configPath != "" || v.ConfigFileUsed() != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileRead = true
		usedConfigPath = v.ConfigFileUsed()
	}

	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	source := "defaults"
	if configFileRead {
		source = "file"
	} else if hasEnvVars() {
		source = "defaults+env"
	}

	return &LoadResult{
		Config:     &cfg,
		SourcePath: usedConfigPath,
		Source:     source,
	}, nil
}

// hasEnvVars checks if any OADB_* environment variables are set.
func hasEnvVars() bool {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "OADB_") {
			return true
		}
	}
	return false
}
