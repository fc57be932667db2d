// Package config holds the value conversions shared by the ConfigStore
// adapters. TOML decodes integers as int64 and floats as float64, while
// values set in code keep their Go type, so every getter accepts both.
package config

import (
	"strconv"
	"time"
)

// Int converts a stored value to int. Returns 0 for non-numeric values.
func Int(val any) int {
	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Float converts a stored value to float64. Returns 0 for non-numeric values.
func Float(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// Duration converts a Go duration string ("30s", "2m") or a whole number of
// seconds to a time.Duration. Returns 0 when the value cannot be read.
func Duration(val any) time.Duration {
	switch v := val.(type) {
	case time.Duration:
		return v
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
		return 0
	case int, int64, float64:
		return time.Duration(Int(v)) * time.Second
	default:
		return 0
	}
}

// StringSlice converts a stored array to []string, dropping non-strings.
func StringSlice(val any) []string {
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	default:
		return nil
	}
}
