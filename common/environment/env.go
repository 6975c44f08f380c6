// Package environment provides helpers for loading configuration from environment variables.
//
// All helpers follow a consistent pattern: they read an environment variable and
// return either the value or a default, so unset variables never abort startup
// on their own.
package environment

import (
	"os"
	"strconv"
	"strings"
)

// StringOr returns the value of the named environment variable, or defaultValue
// if the variable is unset or empty.
func StringOr(name, defaultValue string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return defaultValue
}

// BoolOr parses the named environment variable as a boolean. Recognized values
// are the same as strconv.ParseBool ("1", "t", "true", "0", "f", "false", etc.).
// Returns defaultValue if the variable is unset, empty, or cannot be parsed.
func BoolOr(name string, defaultValue bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

// IntOr parses the named environment variable as a decimal integer. Returns
// defaultValue if the variable is unset, empty, or cannot be parsed.
func IntOr(name string, defaultValue int) int {
	v := os.Getenv(name)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

// StringSliceOr parses the named environment variable as a comma-separated list
// of strings, trimming whitespace from each element. Returns defaultValue if the
// variable is unset or empty.
func StringSliceOr(name string, defaultValue []string) []string {
	v := os.Getenv(name)
	if v == "" {
		return defaultValue
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			result = append(result, t)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
