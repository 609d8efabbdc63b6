package config_test

import (
	"testing"

	"github.com/oatrack/oadb/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	cfg := config.New()

	t.Run("creates valid default config", func(t *testing.T) {
		require.NotNil(t, cfg)

		// Database defaults
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "postgres", cfg.Database.Password)
		assert.Equal(t, "oatrack", cfg.Database.Database)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 1000, cfg.Database.BatchSize)

		// Index defaults
		assert.Equal(t, "http://localhost:9200", cfg.Index.Endpoint)
		assert.Equal(t, "papers", cfg.Index.Name)
		assert.Equal(t, 256, cfg.Index.BatchSize)
		assert.Equal(t, 10, cfg.Index.BatchesPerCommit)

		// Log defaults
		assert.Equal(t, "text", cfg.Log.Format)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "stderr", cfg.Log.Destination)

		assert.Greater(t, cfg.JobsNumber, 0)
	})
}

func TestUpdate(t *testing.T) {
	cfg := config.New()

	cfg.Update([]config.Option{
		config.OptDatabaseHost("db.example.org"),
		config.OptDatabasePort(5433),
		config.OptDatabaseBatchSize(500),
		config.OptIndexEndpoint("http://search:9200"),
		config.OptIndexBatchSize(128),
		config.OptJobsNumber(4),
	})

	assert.Equal(t, "db.example.org", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, 500, cfg.Database.BatchSize)
	assert.Equal(t, "http://search:9200", cfg.Index.Endpoint)
	assert.Equal(t, 128, cfg.Index.BatchSize)
	assert.Equal(t, 4, cfg.JobsNumber)
}

func TestUpdateRejectsInvalid(t *testing.T) {
	tests := []struct {
		msg  string
		opt  config.Option
		keep func(*config.Config) any
		want any
	}{
		{
			msg:  "empty host",
			opt:  config.OptDatabaseHost(""),
			keep: func(c *config.Config) any { return c.Database.Host },
			want: "localhost",
		},
		{
			msg:  "invalid port",
			opt:  config.OptDatabasePort(-1),
			keep: func(c *config.Config) any { return c.Database.Port },
			want: 5432,
		},
		{
			msg:  "invalid ssl mode",
			opt:  config.OptDatabaseSSLMode("sometimes"),
			keep: func(c *config.Config) any { return c.Database.SSLMode },
			want: "disable",
		},
		{
			msg:  "invalid log level",
			opt:  config.OptLogLevel("loud"),
			keep: func(c *config.Config) any { return c.Log.Level },
			want: "info",
		},
		{
			msg:  "invalid log format",
			opt:  config.OptLogFormat("xml"),
			keep: func(c *config.Config) any { return c.Log.Format },
			want: "text",
		},
		{
			msg:  "zero batch size",
			opt:  config.OptIndexBatchSize(0),
			keep: func(c *config.Config) any { return c.Index.BatchSize },
			want: 256,
		},
	}

	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			cfg := config.New()
			cfg.Update([]config.Option{v.opt})
			assert.Equal(t, v.want, v.keep(cfg))
		})
	}
}

func TestToOptionsRoundTrip(t *testing.T) {
	orig := config.New()
	orig.Update([]config.Option{
		config.OptDatabaseHost("db.example.org"),
		config.OptIndexName("papers_v2"),
		config.OptFetchCrossrefURL("https://crossref.local"),
		config.OptLogLevel("debug"),
	})

	clone := config.New()
	clone.Update(orig.ToOptions())

	assert.Equal(t, orig, clone)
}
