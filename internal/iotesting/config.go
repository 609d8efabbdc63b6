// Package iotesting provides shared utilities for integration tests.
package iotesting

import (
	"github.com/oatrack/oadb/internal/ioconfig"
	"github.com/oatrack/oadb/pkg/config"
)

// TestDatabaseName is the database name used for all integration
// tests, so tests never run against a production database.
const TestDatabaseName = "oadb_test"

// GetTestConfig returns a configuration suitable for integration
// tests. It loads the standard config (from file or defaults) and
// overrides the database name to TestDatabaseName.
//
// Usage:
//
//	func TestSomething(t *testing.T) {
//	    if testing.Short() {
//	        t.Skip("Skipping integration test")
//	    }
//	    cfg := iotesting.GetTestConfig()
//	    // ... use cfg for database operations
//	}
func GetTestConfig() *config.Config {
	var cfg *config.Config
	result, err := ioconfig.Load("")
	if err != nil {
		cfg = config.New()
	} else {
		cfg = result.Config
	}

	cfg.Database.Database = TestDatabaseName
	return cfg
}

// GetTestDatabaseConfig returns only the database configuration.
func GetTestDatabaseConfig() *config.DatabaseConfig {
	cfg := GetTestConfig()
	return &cfg.Database
}
