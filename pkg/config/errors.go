package config

import "errors"

var (
	// ErrNoSourcesConfigured indicates that no price sources are configured.
	ErrNoSourcesConfigured = errors.New("at least one price source must be configured")
	// ErrNoSourcesEnabled indicates that no sources are enabled.
	ErrNoSourcesEnabled = errors.New("no sources enabled")
	// ErrSourceNameRequired indicates that source name is required.
	ErrSourceNameRequired = errors.New("source name is required")
	// ErrUnknownSource indicates that the source name is unknown.
	ErrUnknownSource = errors.New("unknown source")
	// ErrDatabaseHostRequired indicates that database host must be specified.
	ErrDatabaseHostRequired = errors.New("database host must be specified")
	// ErrDatabaseNameRequired indicates that database name must be specified.
	ErrDatabaseNameRequired = errors.New("database name must be specified")
	// ErrDatabaseUserRequired indicates that database user must be specified.
	ErrDatabaseUserRequired = errors.New("database user must be specified")
	// ErrInvalidGroupSize indicates that refresh group_size must be positive.
	ErrInvalidGroupSize = errors.New("refresh group_size must be positive")
	// ErrNegativeGroupDelay indicates that refresh group_delay cannot be negative.
	ErrNegativeGroupDelay = errors.New("refresh group_delay cannot be negative")
	// ErrNegativeSkipWindow indicates that refresh skip_window cannot be negative.
	ErrNegativeSkipWindow = errors.New("refresh skip_window cannot be negative")
	// ErrInvalidCacheTTL indicates that refresh cache_ttl must be positive.
	ErrInvalidCacheTTL = errors.New("refresh cache_ttl must be positive")
	// ErrInvalidAdapterTimeout indicates that refresh adapter_timeout must be positive.
	ErrInvalidAdapterTimeout = errors.New("refresh adapter_timeout must be positive")
	// ErrInvalidAutoInterval indicates that auto refresh interval must be positive.
	ErrInvalidAutoInterval = errors.New("auto refresh interval must be positive")
	// ErrInvalidLogLevel indicates that the log level is invalid.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat indicates that the log format is invalid.
	ErrInvalidLogFormat = errors.New("invalid log format")
)
