package nihash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatURI(t *testing.T) {
	assert.Equal(t, "ni:///sha-256;"+helloWorldID, FormatURI("", helloWorldID))
	assert.Equal(t, "ni://example.org/sha-256;"+helloWorldID, FormatURI("example.org", helloWorldID))
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		in        string
		authority string
		query     string
		fragment  string
	}{
		{in: "ni:///sha-256;" + helloWorldID},
		{in: "  ni://example.org/sha-256;" + helloWorldID + "  ", authority: "example.org"},
		{in: "NI://h:8080/SHA-256;" + helloWorldID + "?ct=text/plain#top", authority: "h:8080", query: "ct=text/plain", fragment: "top"},
	}
	for _, tt := range tests {
		u, err := ParseURI(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, helloWorldID, u.Value)
		assert.Equal(t, tt.authority, u.Authority)
		assert.Equal(t, tt.query, u.Query)
		assert.Equal(t, tt.fragment, u.Fragment)
	}
}

func TestParseURI_Errors(t *testing.T) {
	malformed := []string{
		"",
		"http://example.org/sha-256;" + helloWorldID,
		"ni:sha-256;" + helloWorldID,
		"ni://example.org",
		"ni:///sha-256",
		"ni:///sha-256;a;b",
		"ni:///sha-256;tooShort",
	}
	for _, in := range malformed {
		_, err := ParseURI(in)
		assert.Error(t, err, in)
	}

	_, err := ParseURI("ni:///sha-1;" + helloWorldID)
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	_, err = ParseURI("ni:///sha-256;tooShort")
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = ParseURI("mailto:x")
	assert.ErrorIs(t, err, ErrMalformedURI)
}

func TestURI_StringRoundTrip(t *testing.T) {
	in := "ni://example.org/sha-256;" + helloWorldID + "?ct=text/plain#frag"
	u, err := ParseURI(in)
	require.NoError(t, err)
	assert.Equal(t, in, u.String())
}

func TestWellKnownPath(t *testing.T) {
	p := WellKnownPath(helloWorldID)
	assert.Equal(t, "/.well-known/ni/sha-256/"+helloWorldID, p)

	id, err := ParseWellKnownPath(p)
	require.NoError(t, err)
	assert.Equal(t, helloWorldID, id)

	_, err = ParseWellKnownPath("/.well-known/ni/sha-1/" + helloWorldID)
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	_, err = ParseWellKnownPath("/files/" + helloWorldID)
	assert.ErrorIs(t, err, ErrMalformedURI)
}
