// Package sanitize turns remote display names into path segments that are
// safe to create on Windows, macOS and Linux filesystems alike.
//
// Non-ASCII text (Arabic, accented Latin, ...) is kept as is; only characters
// that are reserved in a path component are replaced.
package sanitize

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxLength is the maximum length of a sanitized segment, in runes.
	MaxLength = 200

	// Fallback replaces names that sanitize to nothing.
	Fallback = "unnamed"

	placeholder = '_'
	trimSet     = ". "
)

// Name maps an arbitrary remote name to a filesystem-safe path segment.
func Name(s string) string {
	s = strings.Map(replaceReserved, s)
	s = strings.Trim(s, trimSet)
	if utf8.RuneCountInString(s) > MaxLength {
		s = strings.Trim(truncate(s, MaxLength), trimSet)
	}
	if s == "" {
		return Fallback
	}
	return s
}

// FileName returns a sanitized file name that always ends in ext.
// ext is appended when name does not already carry it (compared
// case-insensitively); truncation never cuts the extension off.
func FileName(name, ext string) string {
	if ext == "" {
		return Name(name)
	}
	if !HasExt(name, ext) {
		name += ext
	}

	out := Name(name)
	if HasExt(out, ext) {
		return out
	}

	// Truncation or trimming removed the extension: rebuild from the stem.
	stem := strings.Trim(strings.Map(replaceReserved, name[:len(name)-len(ext)]), trimSet)
	if limit := MaxLength - utf8.RuneCountInString(ext); utf8.RuneCountInString(stem) > limit {
		stem = strings.TrimRight(truncate(stem, limit), trimSet)
	}
	if stem == "" {
		stem = Fallback
	}
	return stem + ext
}

// HasExt reports whether name ends in ext, ignoring case.
func HasExt(name, ext string) bool {
	return len(name) >= len(ext) && strings.EqualFold(name[len(name)-len(ext):], ext)
}

func replaceReserved(r rune) rune {
	switch r {
	case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
		return placeholder
	}
	if r < 0x20 || r == 0x7f {
		return placeholder
	}
	return r
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
