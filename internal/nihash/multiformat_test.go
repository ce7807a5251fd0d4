package nihash

import (
	"testing"

	mh "github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helloWorldCID = "bafkreifzjut3te2nhyekklss27nh3k72ysco7y32koao5eei66wof36n5e"

func TestCID(t *testing.T) {
	c, err := CID(helloWorldID)
	require.NoError(t, err)
	assert.Equal(t, helloWorldCID, c.String())

	id, err := FromCID(c.String())
	require.NoError(t, err)
	assert.Equal(t, helloWorldID, id)
}

func TestMultihash(t *testing.T) {
	m, err := Multihash(helloWorldID)
	require.NoError(t, err)

	want, err := mh.Sum([]byte("hello world"), mh.SHA2_256, -1)
	require.NoError(t, err)
	assert.Equal(t, want, m)
}

func TestFromMultihash_Rejects(t *testing.T) {
	sha1, err := mh.Sum([]byte("hello world"), mh.SHA1, -1)
	require.NoError(t, err)
	_, err = FromMultihash(sha1)
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)

	truncated, err := mh.Sum([]byte("hello world"), mh.SHA2_256, 16)
	require.NoError(t, err)
	_, err = FromMultihash(truncated)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestFromMultibase(t *testing.T) {
	for _, s := range []string{
		"uEiC5TSe5k00-CKUuUtfafav6xITv43pTgO6QiPes4u_N6Q",
		"f1220b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
	} {
		id, err := FromMultibase(s)
		require.NoError(t, err, s)
		assert.Equal(t, helloWorldID, id)
	}
}

func TestResolve(t *testing.T) {
	keys := []string{
		helloWorldID,
		" " + helloWorldID + "\n",
		"ni:///sha-256;" + helloWorldID,
		"ni://example.org/sha-256;" + helloWorldID,
		"/.well-known/ni/sha-256/" + helloWorldID,
		helloWorldCID,
		"uEiC5TSe5k00-CKUuUtfafav6xITv43pTgO6QiPes4u_N6Q",
	}
	for _, k := range keys {
		id, err := Resolve(k)
		require.NoError(t, err, k)
		assert.Equal(t, helloWorldID, id, k)
	}

	_, err := Resolve("not-a-hash")
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = Resolve("ni:///md5;" + helloWorldID)
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}
