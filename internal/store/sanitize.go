// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"regexp"
	"strings"
)

// maxNameLen is the filename length ceiling common to the target filesystems.
const maxNameLen = 255

// unsafeRun matches any run of characters outside [A-Za-z0-9_.]: path
// separators, whitespace, and punctuation. Dots survive so arXiv IDs like
// "2301.07041" and extension suffixes stay readable.
var unsafeRun = regexp.MustCompile(`[^A-Za-z0-9_.]+`)

var underscoreRun = regexp.MustCompile(`_+`)

// reservedNames are device names that cannot be used as filenames on
// Windows regardless of extension.
var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// SanitizeID maps an arbitrary identifier to a filesystem-safe name.
// Old-style arXiv IDs contain a slash ("math/9201254" becomes
// "math_9201254"). The mapping is deterministic and idempotent: runs of
// unsafe characters collapse to a single underscore, leading and trailing
// dots and underscores are trimmed, reserved device names get a leading
// underscore, and the result is truncated to 255 bytes preserving a short
// extension suffix. The result is never empty.
//
// Two distinct raw identifiers can in principle sanitize to the same
// name; callers treat an existing artifact pair under the sanitized key
// as already downloaded rather than failing.
func SanitizeID(id string) string {
	s := unsafeRun.ReplaceAllString(id, "_")
	s = underscoreRun.ReplaceAllString(s, "_")
	s = strings.Trim(s, "._")

	if s == "" {
		return "_"
	}

	base := s
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		base = s[:idx]
	}
	if reservedNames[strings.ToUpper(base)] {
		s = "_" + s
	}

	if len(s) > maxNameLen {
		s = truncateName(s)
	}
	return s
}

// truncateName cuts s to maxNameLen bytes, keeping a short trailing
// extension (at most 8 bytes including the dot) when one is present.
func truncateName(s string) string {
	ext := ""
	if idx := strings.LastIndexByte(s, '.'); idx > 0 && len(s)-idx <= 8 {
		ext = s[idx:]
	}
	s = s[:maxNameLen-len(ext)]
	s = strings.TrimRight(s, "._")
	return s + ext
}
