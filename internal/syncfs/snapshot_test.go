package syncfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpg-dev/hpg/internal/transport"
	"github.com/stretchr/testify/require"
)

func TestSnapshotIsSortedAndSkipsGit(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("ref: refs/heads/main"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.Symlink("b.txt", filepath.Join(root, "link")))

	entries, err := Snapshot(root)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "b.txt", entries[0].Path)
	require.Equal(t, "link", entries[1].Path)
	require.Equal(t, "b.txt", entries[1].Symlink)
	require.NotEmpty(t, entries[1].Hash)
	require.Equal(t, "sub/a.txt", entries[2].Path)
}

func TestDiffReportsMissingChangedAndObsolete(t *testing.T) {
	driver := []transport.FileEntry{
		{Path: "same.txt", Hash: "h1"},
		{Path: "changed.txt", Hash: "h2-new"},
		{Path: "new.txt", Hash: "h3"},
	}
	agent := map[string]string{
		"same.txt":    "h1",
		"changed.txt": "h2-old",
		"gone.txt":    "h4",
	}

	needed, obsolete := Diff(driver, agent)

	var paths []string
	for _, f := range needed {
		paths = append(paths, f.Path)
	}
	require.ElementsMatch(t, []string{"changed.txt", "new.txt"}, paths)
	require.Equal(t, []string{"gone.txt"}, obsolete)
}
