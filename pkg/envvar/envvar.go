// Package envvar applies environment variable overrides to config fields.
// An unset or empty variable leaves the field unchanged.
package envvar

import (
	"fmt"
	"os"
	"strconv"
)

// String sets *dst to the value of key when it is set.
func String(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Int sets *dst to the integer value of key when it is set.
func Int(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

// Int32 is Int for int32 fields.
func Int32(key string, dst *int32) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = int32(n)
	return nil
}
