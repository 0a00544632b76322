package sources

import (
	"net/url"
	"strings"
	"time"

	"github.com/cardledger/pricefeed-go/pkg/logging"
)

// GetLoggerFromConfig extracts logger from config map or returns a noop
// logger. Adapters use this to pick up the logger passed from main.go
// without taking it as a constructor argument.
func GetLoggerFromConfig(config map[string]interface{}) *logging.Logger {
	if loggerInterface, ok := config["logger"]; ok {
		if logger, ok := loggerInterface.(*logging.Logger); ok {
			return logger
		}
	}

	return logging.NewNoopLogger()
}

// GetStringFromConfig extracts a string value from config.
func GetStringFromConfig(config map[string]interface{}, key, defaultValue string) string {
	if val, ok := config[key]; ok {
		if str, ok := val.(string); ok && str != "" {
			return str
		}
	}
	return defaultValue
}

// GetDurationFromConfig extracts a duration string (e.g. "10s") from config.
func GetDurationFromConfig(config map[string]interface{}, key string, defaultValue time.Duration) time.Duration {
	if val, ok := config[key]; ok {
		if str, ok := val.(string); ok {
			if d, err := time.ParseDuration(str); err == nil && d > 0 {
				return d
			}
		}
	}
	return defaultValue
}

// SearchQuery builds the free-text query adapters send to their APIs:
// card name, set/variant and grade joined with spaces, empty parts dropped.
func SearchQuery(card CardIdentity) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{card.Name, card.Set, card.Variant, card.Grade} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// EncodeQuery URL-encodes a search query for use in a query string.
func EncodeQuery(q string) string {
	return url.QueryEscape(q)
}
