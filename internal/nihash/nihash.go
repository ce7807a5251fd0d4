// Package nihash computes "named information" (RFC 6920) identifiers for
// file contents: the SHA-256 digest rendered as unpadded URL-safe base64.
package nihash

import (
	"encoding/base64"
	"strings"

	sha256 "github.com/minio/sha256-simd"
	"golang.org/x/xerrors"
)

// Algorithm is the RFC 6920 hash name used in ni URIs and well-known paths.
const Algorithm = "sha-256"

// DigestSize is the length in bytes of a raw SHA-256 digest.
const DigestSize = sha256.Size

// EncodedLen is the length of an identifier: 32 bytes in unpadded base64.
const EncodedLen = 43

var (
	ErrMalformed            = xerrors.New("nihash: malformed identifier")
	ErrMalformedURI         = xerrors.New("nihash: malformed ni URI")
	ErrUnsupportedAlgorithm = xerrors.New("nihash: unsupported hash algorithm")
)

// Encode returns the ni identifier of content. It never fails; the empty
// input has an identifier like any other.
func Encode(content []byte) string {
	sum := sha256.Sum256(content)
	return fromDigest(sum[:])
}

// fromDigest renders raw digest bytes the way the ni RewriteMap expects:
// standard base64 with padding dropped and "/" and "+" swapped for "_" and "-".
func fromDigest(digest []byte) string {
	s := base64.StdEncoding.EncodeToString(digest)
	s = strings.ReplaceAll(s, "=", "")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "+", "-")
	return s
}

// Valid reports whether id has the shape of a SHA-256 identifier.
func Valid(id string) bool {
	if len(id) != EncodedLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if !isIDChar(id[i]) {
			return false
		}
	}
	// The final character carries 2 padding bits which must be zero.
	_, err := base64.RawURLEncoding.Strict().DecodeString(id)
	return err == nil
}

func isIDChar(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	}
	return c == '-' || c == '_'
}

// Digest decodes an identifier back into its raw 32-byte digest.
func Digest(id string) ([]byte, error) {
	if !Valid(id) {
		return nil, xerrors.Errorf("%q: %w", id, ErrMalformed)
	}
	return base64.RawURLEncoding.DecodeString(id)
}

// ContentDigest formats id as an RFC 3230 "Digest" header value.
func ContentDigest(id string) (string, error) {
	d, err := Digest(id)
	if err != nil {
		return "", err
	}
	return "SHA-256=" + base64.StdEncoding.EncodeToString(d), nil
}
