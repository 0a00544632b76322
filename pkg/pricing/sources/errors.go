package sources

import "errors"

var (
	// ErrUnknownSource indicates that no adapter is registered for the name.
	ErrUnknownSource = errors.New("unknown source")
	// ErrUnexpectedStatus indicates an unexpected HTTP status code.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status code")
	// ErrRateLimitExceeded indicates that a rate limit has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidResponse indicates an invalid response from the source.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrInvalidConfig indicates that the source configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrAPIKeyRequired indicates that an API key is required.
	ErrAPIKeyRequired = errors.New("API key is required")
	// ErrCardNameRequired indicates the card identity is missing a name.
	ErrCardNameRequired = errors.New("card name is required")
)
