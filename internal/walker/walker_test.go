package walker

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func collect(t *testing.T, root string, opts Options) []Visit {
	t.Helper()
	var visits []Visit
	for v, err := range Walk(root, opts) {
		require.NoError(t, err)
		visits = append(visits, v)
	}
	return visits
}

func TestWalk_PreOrderSorted(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"z.txt":       "",
		"a.txt":       "",
		"B.txt":       "",
		"sub/b/x.txt": "",
		"sub/a/y.txt": "",
		"other/z.txt": "",
	})

	visits := collect(t, root, Options{})

	var rels []string
	for _, v := range visits {
		rels = append(rels, v.Rel)
	}
	assert.Equal(t, []string{".", "./other", "./sub", "./sub/a", "./sub/b"}, rels)

	assert.Equal(t, root, visits[0].Dir)
	assert.Equal(t, []string{"B.txt", "a.txt", "z.txt"}, visits[0].Files)
	assert.Equal(t, []string{"other", "sub"}, visits[0].Subdirs)
	assert.Equal(t, []string{"a", "b"}, visits[2].Subdirs)
	assert.Equal(t, filepath.Join(root, "sub", "a"), visits[3].Dir)
}

func TestWalk_ExcludesVCSDirs(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt":             "",
		".git/config":       "",
		".svn/entries":      "",
		"sub/.git/HEAD":     "",
		"sub/keep.txt":      "",
		"sub/.gitignore":    "",
		".github/workflows": "",
	})

	visits := collect(t, root, Options{})

	for _, v := range visits {
		assert.NotContains(t, v.Subdirs, ".git")
		assert.NotContains(t, v.Subdirs, ".svn")
		assert.NotContains(t, v.Rel, ".git/")
	}
	assert.Equal(t, []string{".github", "sub"}, visits[0].Subdirs)
	assert.Equal(t, []string{".git", ".svn"}, visits[0].Pruned)
	assert.Equal(t, []string{".gitignore", "keep.txt"}, visits[2].Files)
	assert.Len(t, visits, 3)
}

func TestWalk_CustomExclude(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		".git/config":       "",
		"node_modules/x.js": "",
		"src/main.go":       "",
	})

	visits := collect(t, root, Options{Exclude: []string{"node_modules"}})
	assert.Equal(t, []string{".git", "src"}, visits[0].Subdirs)

	visits = collect(t, root, Options{Exclude: []string{}})
	assert.Equal(t, []string{".git", "node_modules", "src"}, visits[0].Subdirs)
}

func TestWalk_StopsEarly(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a/1": "", "b/2": "", "c/3": ""})

	n := 0
	for range Walk(root, Options{}) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestWalk_MissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "missing")

	var errs []error
	for _, err := range Walk(root, Options{}) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)

	var werr *Error
	require.ErrorAs(t, errs[0], &werr)
	assert.Equal(t, root, werr.Dir)
	assert.ErrorIs(t, errs[0], os.ErrNotExist)
}

func TestWalk_UnreadableSubdirAborts(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := t.TempDir()
	writeTree(t, root, map[string]string{"locked/x": "", "open/y": ""})
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	var rels []string
	var gotErr error
	for v, err := range Walk(root, Options{}) {
		if err != nil {
			gotErr = err
			continue
		}
		rels = append(rels, v.Rel)
	}
	assert.Equal(t, []string{"."}, rels)
	assert.ErrorIs(t, gotErr, os.ErrPermission)
}

func TestWalk_Symlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	writeTree(t, root, map[string]string{"real/f.txt": "", "file.txt": ""})
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "linkdir")))
	require.NoError(t, os.Symlink(filepath.Join(root, "file.txt"), filepath.Join(root, "linkfile")))
	require.NoError(t, os.Symlink(filepath.Join(root, "nowhere"), filepath.Join(root, "dangling")))

	visits := collect(t, root, Options{})

	assert.Equal(t, []string{"linkdir", "real"}, visits[0].Subdirs)
	assert.Equal(t, []string{"dangling", "file.txt", "linkfile"}, visits[0].Files)
	require.Len(t, visits, 3)
	assert.Equal(t, "./linkdir", visits[1].Rel)
	assert.Equal(t, filepath.Join(root, "linkdir"), visits[1].Dir)
	assert.Equal(t, []string{"f.txt"}, visits[1].Files)
	assert.Equal(t, "./real", visits[2].Rel)
}
