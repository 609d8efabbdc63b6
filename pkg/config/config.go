// Package config provides configuration management for oadb.
//
// This package has no I/O dependencies (no file operations, no network
// calls). Validation functions may write user-facing warnings via
// gn.Warn().
//
// # Configuration Sources
//
// Precedence (highest to lowest): CLI flags > env vars > oadb.yaml > defaults
//
// # Design Principles
//
// - Default config (from New()) is always valid - no validation needed
// - All mutations go through Option functions - the only way to modify Config
// - Invalid options are rejected with gn.Warn() - config remains in valid state
// - ToOptions() converts persistent fields (those in oadb.yaml)
// - Environment variables match ToOptions() fields exactly
//
// # Environment Variables
//
// Use OADB_ prefix with underscores for nesting:
//
//	OADB_DATABASE_HOST=localhost
//	OADB_DATABASE_PORT=5432
//	OADB_INDEX_ENDPOINT=http://localhost:9200
//	OADB_LOG_LEVEL=info
//	OADB_JOBS_NUMBER=8
package config

import (
	"runtime"
)

// Config represents the complete oadb configuration.
type Config struct {
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`

	// Index contains full-text search index settings.
	Index IndexConfig `mapstructure:"index" yaml:"index"`

	// Fetch contains endpoints for external metadata services.
	Fetch FetchConfig `mapstructure:"fetch" yaml:"fetch"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// JobsNumber is the number of concurrent workers for parallel
	// operations such as collision scanning.
	// Default value is set according to the number of available threads.
	JobsNumber int `mapstructure:"jobs_number" yaml:"jobs_number"`
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname or IP address.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the PostgreSQL server port number.
	Port int `mapstructure:"port" yaml:"port"`

	// User is the PostgreSQL database username.
	User string `mapstructure:"user" yaml:"user"`

	// Password is the PostgreSQL database password.
	Password string `mapstructure:"password" yaml:"password"`

	// Database is the PostgreSQL database name to connect to.
	Database string `mapstructure:"database" yaml:"database"`

	// SSLMode specifies the SSL connection mode.
	// Valid values: "disable", "require", "verify-ca", "verify-full"
	SSLMode string `mapstructure:"ssl_mode" yaml:"ssl_mode"`

	// BatchSize defines the number of records fetched per page during
	// large-table sweeps (dedup, repair, sanitize). Larger pages mean
	// fewer queries but more memory per page.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
}

// IndexConfig contains settings for the external full-text index.
type IndexConfig struct {
	// Endpoint is the base URL of the search engine,
	// e.g. "http://localhost:9200".
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Name is the index that receives paper documents.
	Name string `mapstructure:"name" yaml:"name"`

	// User is an optional basic-auth username.
	User string `mapstructure:"user" yaml:"user"`

	// Password is an optional basic-auth password.
	Password string `mapstructure:"password" yaml:"password"`

	// BatchSize is the number of documents submitted per bulk request.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`

	// BatchesPerCommit is the number of bulk requests between index
	// refresh operations. Batching commits amortizes refresh cost.
	BatchesPerCommit int `mapstructure:"batches_per_commit" yaml:"batches_per_commit"`
}

// FetchConfig contains endpoints for external metadata services used by
// the refetch routines.
type FetchConfig struct {
	// CrossrefURL is the base URL of the Crossref works API.
	CrossrefURL string `mapstructure:"crossref_url" yaml:"crossref_url"`

	// PolicyURL is the base URL of the publisher-policy lookup service.
	PolicyURL string `mapstructure:"policy_url" yaml:"policy_url"`
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format can be 'json' or 'text'.
	Format string `mapstructure:"format" yaml:"format"`
	// Level of logging -- 'error', 'warn', 'info', 'debug'
	Level string `mapstructure:"level" yaml:"level"`
	// Destination can be STDERR or STDOUT.
	Destination string `mapstructure:"destination" yaml:"destination"`
}

// New creates a Config with sensible default values.
// The returned config is always valid and ready to use.
// Default values can be overridden using Option functions via Update().
func New() *Config {
	res := &Config{
		Database: DatabaseConfig{
			Host:      "localhost",
			Port:      5432,
			User:      "postgres",
			Password:  "postgres",
			Database:  "oatrack",
			SSLMode:   "disable",
			BatchSize: 1000,
		},
		Index: IndexConfig{
			Endpoint:         "http://localhost:9200",
			Name:             "papers",
			BatchSize:        256,
			BatchesPerCommit: 10,
		},
		Fetch: FetchConfig{
			CrossrefURL: "https://api.crossref.org",
			PolicyURL:   "https://v2.sherpa.ac.uk/cgi/retrieve",
		},
		Log: LogConfig{
			Format:      "text",
			Level:       "info",
			Destination: "stderr",
		},
		JobsNumber: runtime.NumCPU(),
	}
	return res
}
