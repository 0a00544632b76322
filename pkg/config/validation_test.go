package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host: "localhost",
			Name: "cardledger",
			User: "app",
		},
		Sources: []SourceConfig{
			{Name: "ebay", Enabled: true},
			{Name: "cardmarket", Enabled: false},
		},
		Refresh: RefreshConfig{
			GroupSize:      3,
			GroupDelay:     Duration(500 * time.Millisecond),
			SkipWindow:     Duration(time.Hour),
			CacheTTL:       Duration(4 * time.Hour),
			AdapterTimeout: Duration(10 * time.Second),
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	require.NoError(t, Validate(validConfig()))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "missing database host",
			mutate:  func(c *Config) { c.Database.Host = "" },
			wantErr: ErrDatabaseHostRequired,
		},
		{
			name:    "missing database name",
			mutate:  func(c *Config) { c.Database.Name = "" },
			wantErr: ErrDatabaseNameRequired,
		},
		{
			name:    "missing database user",
			mutate:  func(c *Config) { c.Database.User = "" },
			wantErr: ErrDatabaseUserRequired,
		},
		{
			name:    "no sources",
			mutate:  func(c *Config) { c.Sources = nil },
			wantErr: ErrNoSourcesConfigured,
		},
		{
			name: "all sources disabled",
			mutate: func(c *Config) {
				for i := range c.Sources {
					c.Sources[i].Enabled = false
				}
			},
			wantErr: ErrNoSourcesEnabled,
		},
		{
			name:    "unnamed source",
			mutate:  func(c *Config) { c.Sources[0].Name = "" },
			wantErr: ErrSourceNameRequired,
		},
		{
			name:    "unknown source",
			mutate:  func(c *Config) { c.Sources[0].Name = "stockx" },
			wantErr: ErrUnknownSource,
		},
		{
			name:    "zero group size",
			mutate:  func(c *Config) { c.Refresh.GroupSize = 0 },
			wantErr: ErrInvalidGroupSize,
		},
		{
			name:    "negative group delay",
			mutate:  func(c *Config) { c.Refresh.GroupDelay = Duration(-time.Second) },
			wantErr: ErrNegativeGroupDelay,
		},
		{
			name:    "negative skip window",
			mutate:  func(c *Config) { c.Refresh.SkipWindow = Duration(-time.Minute) },
			wantErr: ErrNegativeSkipWindow,
		},
		{
			name:    "zero cache ttl",
			mutate:  func(c *Config) { c.Refresh.CacheTTL = 0 },
			wantErr: ErrInvalidCacheTTL,
		},
		{
			name:    "zero adapter timeout",
			mutate:  func(c *Config) { c.Refresh.AdapterTimeout = 0 },
			wantErr: ErrInvalidAdapterTimeout,
		},
		{
			name: "auto refresh without interval",
			mutate: func(c *Config) {
				c.Refresh.Auto = AutoRefreshConfig{Enabled: true}
			},
			wantErr: ErrInvalidAutoInterval,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: ErrInvalidLogFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, Validate(cfg), tt.wantErr)
		})
	}
}
