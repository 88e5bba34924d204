// Package provider holds errors and helpers shared by the hosted model adapters.
package provider

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
)

var (
	ErrMissingAPIKey = errors.New("API key not configured")
	ErrUnauthorized  = errors.New("credentials rejected by provider")
	ErrEmptyResponse = errors.New("provider returned an empty response")
)

// APIKey returns explicit if set, otherwise the first non-empty environment variable.
func APIKey(explicit string, envVars ...string) string {
	if key := strings.TrimSpace(explicit); key != "" {
		return key
	}
	for _, name := range envVars {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key
		}
	}
	return ""
}

// FromStatus tags err with ErrUnauthorized when the HTTP status denotes a
// credentials problem. Other errors are returned unchanged.
func FromStatus(status int, err error) error {
	if err == nil {
		return nil
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return err
}

// MissingKey builds the error returned by an adapter that has no key.
func MissingKey(envVar string) error {
	return fmt.Errorf("%w: set %s", ErrMissingAPIKey, envVar)
}
