// Package sysutil holds small process-level helpers shared by the
// entrypoints.
package sysutil

import (
	"strings"

	"github.com/rs/zerolog"
)

// SetLogLevel sets the global zerolog level from a string such as
// "debug", "info", "warn" or "error". Unknown or empty values fall
// back to info rather than failing startup.
func SetLogLevel(lvl string) {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(lvl)))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

// FirstNonEmpty returns the first string with non-whitespace content,
// or "" when there is none. Used when several env vars can supply the
// same credential.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
