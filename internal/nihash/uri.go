package nihash

import (
	"strings"

	"golang.org/x/xerrors"
)

const wellKnownPrefix = "/.well-known/ni/"

// URI is a parsed ni URI of the form ni://authority/alg;value?query#fragment.
type URI struct {
	Authority string
	Algorithm string
	Value     string
	Query     string
	Fragment  string
}

// String renders u back into ni URI form.
func (u URI) String() string {
	var b strings.Builder
	b.WriteString("ni://")
	b.WriteString(u.Authority)
	b.WriteByte('/')
	b.WriteString(u.Algorithm)
	b.WriteByte(';')
	b.WriteString(u.Value)
	if u.Query != "" {
		b.WriteByte('?')
		b.WriteString(u.Query)
	}
	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.Fragment)
	}
	return b.String()
}

// FormatURI returns the ni URI naming id. An empty authority gives the
// three-slash form ni:///sha-256;id.
func FormatURI(authority, id string) string {
	return URI{Authority: authority, Algorithm: Algorithm, Value: id}.String()
}

// ParseURI parses an ni URI and returns its parts. Only sha-256 URIs with a
// well-formed value are accepted.
func ParseURI(s string) (URI, error) {
	s = strings.TrimSpace(s)

	var u URI
	rest, fragment, _ := strings.Cut(s, "#")
	u.Fragment = strings.TrimSpace(fragment)
	rest, query, _ := strings.Cut(rest, "?")
	u.Query = strings.TrimSpace(query)

	scheme, hier, ok := strings.Cut(strings.TrimSpace(rest), ":")
	if !ok || !strings.EqualFold(strings.TrimSpace(scheme), "ni") {
		return URI{}, xerrors.Errorf("%q: missing ni scheme: %w", s, ErrMalformedURI)
	}
	hier = strings.TrimSpace(hier)

	var algValue string
	switch {
	case len(hier) >= 6 && strings.HasPrefix(hier, "///"):
		algValue = hier[3:]
	case len(hier) >= 7 && strings.HasPrefix(hier, "//"):
		slash := strings.IndexByte(hier[2:], '/')
		if slash < 0 {
			return URI{}, xerrors.Errorf("%q: missing path after authority: %w", s, ErrMalformedURI)
		}
		u.Authority = strings.TrimSpace(hier[2 : 2+slash])
		algValue = hier[2+slash+1:]
	default:
		return URI{}, xerrors.Errorf("%q: %w", s, ErrMalformedURI)
	}

	parts := strings.Split(algValue, ";")
	if len(parts) != 2 {
		return URI{}, xerrors.Errorf("%q: expected alg;value: %w", s, ErrMalformedURI)
	}
	u.Algorithm = strings.TrimSpace(parts[0])
	u.Value = strings.TrimSpace(parts[1])

	if !strings.EqualFold(u.Algorithm, Algorithm) {
		return URI{}, xerrors.Errorf("%q: %w", u.Algorithm, ErrUnsupportedAlgorithm)
	}
	if !Valid(u.Value) {
		return URI{}, xerrors.Errorf("%q: %w", u.Value, ErrMalformed)
	}
	return u, nil
}

// WellKnownPath returns the HTTP path under which an ni server publishes id.
func WellKnownPath(id string) string {
	return wellKnownPrefix + Algorithm + "/" + id
}

// ParseWellKnownPath extracts the identifier from a /.well-known/ni path.
func ParseWellKnownPath(p string) (string, error) {
	rest, ok := strings.CutPrefix(p, wellKnownPrefix)
	if !ok {
		return "", xerrors.Errorf("%q: not a well-known ni path: %w", p, ErrMalformedURI)
	}
	alg, id, ok := strings.Cut(rest, "/")
	if !ok {
		return "", xerrors.Errorf("%q: %w", p, ErrMalformedURI)
	}
	if !strings.EqualFold(alg, Algorithm) {
		return "", xerrors.Errorf("%q: %w", alg, ErrUnsupportedAlgorithm)
	}
	if !Valid(id) {
		return "", xerrors.Errorf("%q: %w", id, ErrMalformed)
	}
	return id, nil
}
