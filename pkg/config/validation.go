package config

import (
	"fmt"
	"strings"
)

// knownSources are the source adapters this build ships with.
var knownSources = map[string]bool{
	"ebay":       true,
	"tcgplayer":  true,
	"cardmarket": true,
	"aiestimate": true,
}

// Validate checks configuration for errors
func Validate(cfg *Config) error {
	if err := validateDatabaseConfig(&cfg.Database); err != nil {
		return fmt.Errorf("database config: %w", err)
	}

	if err := validateSourcesConfig(cfg.Sources); err != nil {
		return fmt.Errorf("sources config: %w", err)
	}

	if err := validateRefreshConfig(&cfg.Refresh); err != nil {
		return fmt.Errorf("refresh config: %w", err)
	}

	if err := validateLoggingConfig(&cfg.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

func validateDatabaseConfig(cfg *DatabaseConfig) error {
	if cfg.Host == "" {
		return ErrDatabaseHostRequired
	}
	if cfg.Name == "" {
		return ErrDatabaseNameRequired
	}
	if cfg.User == "" {
		return ErrDatabaseUserRequired
	}
	return nil
}

func validateSourcesConfig(sources []SourceConfig) error {
	if len(sources) == 0 {
		return ErrNoSourcesConfigured
	}

	enabled := 0
	for i, source := range sources {
		if source.Name == "" {
			return fmt.Errorf("source %d: %w", i, ErrSourceNameRequired)
		}
		if !knownSources[source.Name] {
			return fmt.Errorf("source %d: %w: %s", i, ErrUnknownSource, source.Name)
		}
		if source.Enabled {
			enabled++
		}
	}

	if enabled == 0 {
		return ErrNoSourcesEnabled
	}
	return nil
}

func validateRefreshConfig(cfg *RefreshConfig) error {
	if cfg.GroupSize <= 0 {
		return ErrInvalidGroupSize
	}
	if cfg.GroupDelay.ToDuration() < 0 {
		return ErrNegativeGroupDelay
	}
	if cfg.SkipWindow.ToDuration() < 0 {
		return ErrNegativeSkipWindow
	}
	if cfg.CacheTTL.ToDuration() <= 0 {
		return ErrInvalidCacheTTL
	}
	if cfg.AdapterTimeout.ToDuration() <= 0 {
		return ErrInvalidAdapterTimeout
	}
	if cfg.Auto.Enabled && cfg.Auto.Interval.ToDuration() <= 0 {
		return ErrInvalidAutoInterval
	}
	return nil
}

func validateLoggingConfig(cfg *LoggingConfig) error {
	switch strings.ToLower(cfg.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return fmt.Errorf("%w: %s", ErrInvalidLogLevel, cfg.Level)
	}

	switch strings.ToLower(cfg.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("%w: %s", ErrInvalidLogFormat, cfg.Format)
	}

	return nil
}
