package nihash

import (
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
	mh "github.com/multiformats/go-multihash"
	"golang.org/x/xerrors"
)

// Multihash wraps the digest named by id as a sha2-256 multihash.
func Multihash(id string) (mh.Multihash, error) {
	d, err := Digest(id)
	if err != nil {
		return nil, err
	}
	buf, err := mh.Encode(d, mh.SHA2_256)
	if err != nil {
		return nil, xerrors.Errorf("encode multihash: %w", err)
	}
	return mh.Multihash(buf), nil
}

// CID returns the CIDv1 (raw codec) that addresses the same bytes as id.
func CID(id string) (cid.Cid, error) {
	m, err := Multihash(id)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, m), nil
}

// FromMultihash converts a sha2-256 multihash into an identifier.
func FromMultihash(m mh.Multihash) (string, error) {
	dec, err := mh.Decode(m)
	if err != nil {
		return "", xerrors.Errorf("decode multihash: %w", err)
	}
	if dec.Code != mh.SHA2_256 {
		return "", xerrors.Errorf("multihash %s: %w", mh.Codes[dec.Code], ErrUnsupportedAlgorithm)
	}
	if len(dec.Digest) != DigestSize {
		return "", xerrors.Errorf("truncated digest of %d bytes: %w", len(dec.Digest), ErrMalformed)
	}
	return fromDigest(dec.Digest), nil
}

// FromCID parses a CID string and returns the identifier of its multihash.
func FromCID(s string) (string, error) {
	c, err := cid.Decode(strings.TrimSpace(s))
	if err != nil {
		return "", xerrors.Errorf("decode cid %q: %w", s, err)
	}
	return FromMultihash(c.Hash())
}

// FromMultibase decodes a multibase-encoded sha2-256 multihash.
func FromMultibase(s string) (string, error) {
	_, data, err := multibase.Decode(strings.TrimSpace(s))
	if err != nil {
		return "", xerrors.Errorf("decode multibase %q: %w", s, err)
	}
	m, err := mh.Cast(data)
	if err != nil {
		return "", xerrors.Errorf("cast multihash: %w", err)
	}
	return FromMultihash(m)
}

// Resolve accepts any of the forms a file can be named by and returns its
// identifier: a bare identifier, an ni URI, a /.well-known/ni path, a CID, or
// a multibase multihash.
func Resolve(key string) (string, error) {
	key = strings.TrimSpace(key)
	switch {
	case Valid(key):
		return key, nil
	case len(key) > 3 && strings.EqualFold(key[:3], "ni:"):
		u, err := ParseURI(key)
		if err != nil {
			return "", err
		}
		return u.Value, nil
	case strings.HasPrefix(key, wellKnownPrefix):
		return ParseWellKnownPath(key)
	}

	if id, err := FromCID(key); err == nil {
		return id, nil
	} else if xerrors.Is(err, ErrUnsupportedAlgorithm) {
		return "", err
	}
	if id, err := FromMultibase(key); err == nil {
		return id, nil
	}
	return "", xerrors.Errorf("%q: %w", key, ErrMalformed)
}
