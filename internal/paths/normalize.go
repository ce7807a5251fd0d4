// Package paths escapes relative file paths for manifest lines.
package paths

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

const upperhex = "0123456789ABCDEF"

// Normalize turns a traversal path into the form written to the manifest:
// host separators become "/", a single leading "./" is dropped, and the rest
// is percent-escaped by Escape.
func Normalize(raw string) string {
	p := filepath.ToSlash(raw)
	p = strings.TrimPrefix(p, "./")
	return Escape(p)
}

// Escape percent-escapes every byte outside the URL-safe set
// [A-Za-z0-9_.-/] as %XX with uppercase hex. Multi-byte UTF-8 sequences are
// escaped byte by byte.
func Escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) {
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func shouldEscape(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return false
	}
	switch c {
	case '_', '.', '-', '/':
		return false
	}
	return true
}

// Unescape reverses Escape.
func Unescape(escaped string) (string, error) {
	p, err := url.PathUnescape(escaped)
	if err != nil {
		return "", fmt.Errorf("unescape %q: %w", escaped, err)
	}
	return p, nil
}

// Resolve maps an escaped manifest path onto the filesystem under root.
// Paths that would leave root are rejected.
func Resolve(root, escaped string) (string, error) {
	rel, err := Unescape(escaped)
	if err != nil {
		return "", err
	}
	if rel == "" || strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("path %q is not relative", escaped)
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes root", escaped)
	}
	return filepath.Join(root, clean), nil
}
