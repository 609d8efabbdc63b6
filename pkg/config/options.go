package config

import (
	"strings"
)

// Option is a function that modifies a Config.
// Options validate inputs and reject invalid values with warnings.
type Option func(*Config)

// OptDatabaseHost sets the PostgreSQL server hostname or IP address.
func OptDatabaseHost(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Host", s) {
			c.Database.Host = s
		}
	}
}

// OptDatabasePort sets the PostgreSQL server port number.
func OptDatabasePort(i int) Option {
	return func(c *Config) {
		if isValidInt("Database Port", i) {
			c.Database.Port = i
		}
	}
}

// OptDatabaseUser sets the PostgreSQL database username.
func OptDatabaseUser(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database User", s) {
			c.Database.User = s
		}
	}
}

// OptDatabasePassword sets the PostgreSQL database password.
func OptDatabasePassword(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Password", s) {
			c.Database.Password = s
		}
	}
}

// OptDatabaseDatabase sets the PostgreSQL database name to connect to.
func OptDatabaseDatabase(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Name", s) {
			c.Database.Database = s
		}
	}
}

// OptDatabaseSSLMode sets the SSL connection mode.
// Valid values: "disable", "require", "verify-ca", "verify-full".
func OptDatabaseSSLMode(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Database.SSLMode", s) {
			c.Database.SSLMode = s
		}
	}
}

// OptDatabaseBatchSize sets the number of records fetched per page
// during large-table sweeps.
func OptDatabaseBatchSize(i int) Option {
	return func(c *Config) {
		if isValidInt("Batch Size", i) {
			c.Database.BatchSize = i
		}
	}
}

// OptIndexEndpoint sets the base URL of the search engine.
func OptIndexEndpoint(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Index Endpoint", s) {
			c.Index.Endpoint = strings.TrimRight(s, "/")
		}
	}
}

// OptIndexName sets the index that receives paper documents.
func OptIndexName(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Index Name", s) {
			c.Index.Name = s
		}
	}
}

// OptIndexUser sets the optional basic-auth username for the index.
func OptIndexUser(s string) Option {
	return func(c *Config) {
		c.Index.User = strings.TrimSpace(s)
	}
}

// OptIndexPassword sets the optional basic-auth password for the index.
func OptIndexPassword(s string) Option {
	return func(c *Config) {
		c.Index.Password = strings.TrimSpace(s)
	}
}

// OptIndexBatchSize sets the number of documents per bulk request.
func OptIndexBatchSize(i int) Option {
	return func(c *Config) {
		if isValidInt("Index Batch Size", i) {
			c.Index.BatchSize = i
		}
	}
}

// OptIndexBatchesPerCommit sets the number of bulk requests between
// index refresh operations.
func OptIndexBatchesPerCommit(i int) Option {
	return func(c *Config) {
		if isValidInt("Index Batches Per Commit", i) {
			c.Index.BatchesPerCommit = i
		}
	}
}

// OptFetchCrossrefURL sets the base URL of the Crossref works API.
func OptFetchCrossrefURL(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Crossref URL", s) {
			c.Fetch.CrossrefURL = strings.TrimRight(s, "/")
		}
	}
}

// OptFetchPolicyURL sets the base URL of the publisher-policy lookup
// service.
func OptFetchPolicyURL(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Policy URL", s) {
			c.Fetch.PolicyURL = strings.TrimRight(s, "/")
		}
	}
}

// OptLogFormat sets the log output format ('json' or 'text').
func OptLogFormat(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Format", s) {
			c.Log.Format = s
		}
	}
}

// OptLogLevel sets the logging level.
func OptLogLevel(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Level", s) {
			c.Log.Level = s
		}
	}
}

// OptLogDestination sets where logs are written.
func OptLogDestination(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Destination", s) {
			c.Log.Destination = s
		}
	}
}

// OptJobsNumber sets the number of concurrent workers for parallel
// operations.
func OptJobsNumber(i int) Option {
	return func(c *Config) {
		if isValidInt("Jobs Number", i) {
			c.JobsNumber = i
		}
	}
}
