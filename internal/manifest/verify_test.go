package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a": "1", "b": "2", "c": "3"})
	out := filepath.Join(root, "sha-256-map.txt")
	generate(t, root, out)

	entries, err := ReadFile(out)
	require.NoError(t, err)

	rep, err := Verify(context.Background(), root, entries, VerifyOptions{Manifest: out})
	require.NoError(t, err)
	assert.True(t, rep.Clean())
	assert.Equal(t, 3, rep.Counts[StatusOK])

	// modify one, delete one, add one
	require.NoError(t, os.WriteFile(filepath.Join(root, "a"), []byte("changed"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(root, "b")))
	writeTree(t, root, map[string]string{"new/d": "4"})

	rep, err = Verify(context.Background(), root, entries, VerifyOptions{Manifest: out})
	require.NoError(t, err)
	assert.False(t, rep.Clean())
	assert.Equal(t, []Result{
		{Path: "a", Status: StatusModified, Expected: id1, Actual: "1n4ulEmUSWyNjsdu7Qz58JZ5RI1YS1Mr6_lBhSo39e0"},
		{Path: "b", Status: StatusMissing, Expected: id2},
		{Path: "c", Status: StatusOK, Expected: id3, Actual: id3},
		{Path: "new/d", Status: StatusUntracked},
	}, rep.Results)
	assert.Equal(t, 1, rep.Counts[StatusModified])
	assert.Equal(t, 1, rep.Counts[StatusMissing])
	assert.Equal(t, 1, rep.Counts[StatusUntracked])
}

func TestVerify_ManifestNotUntracked(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a": "1"})
	out := filepath.Join(root, "map.txt")
	generate(t, root, out)
	entries, err := ReadFile(out)
	require.NoError(t, err)

	rep, err := Verify(context.Background(), root, entries, VerifyOptions{Manifest: out})
	require.NoError(t, err)
	assert.True(t, rep.Clean())

	// without the hint the manifest shows up
	rep, err = Verify(context.Background(), root, entries, VerifyOptions{})
	require.NoError(t, err)
	require.Len(t, rep.Results, 2)
	assert.Equal(t, Result{Path: "map.txt", Status: StatusUntracked}, rep.Results[1])
}

func TestVerify_ExcludedDirsIgnored(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a": "1", ".git/HEAD": "ref", ".svn/entries": "x"})

	rep, err := Verify(context.Background(), root, []Entry{{ID: id1, Path: "a"}}, VerifyOptions{})
	require.NoError(t, err)
	assert.True(t, rep.Clean())
}

func TestVerify_EscapedPaths(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"my docs/x y": "1"})

	rep, err := Verify(context.Background(), root, []Entry{{ID: id1, Path: "my%20docs/x%20y"}}, VerifyOptions{})
	require.NoError(t, err)
	assert.True(t, rep.Clean(), "%+v", rep.Results)
}

func TestVerify_RejectsEscapingPaths(t *testing.T) {
	root := t.TempDir()
	_, err := Verify(context.Background(), root, []Entry{{ID: id1, Path: "../etc/passwd"}}, VerifyOptions{})
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "read", opErr.Op)
}

func TestVerify_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Verify(ctx, t.TempDir(), []Entry{{ID: id1, Path: "a"}}, VerifyOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
