package dir

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hpg-dev/hpg/internal/actions"
	"github.com/stretchr/testify/require"
)

func TestDirActionCreatesDirectory(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "a", "b")

	res, err := Action{}.Run(context.Background(), actions.Options{"path": target})
	require.NoError(t, err)
	require.True(t, res.Changed)

	info, err := os.Stat(target)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestDirActionIsIdempotent(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "a")
	opts := actions.Options{"path": target, "mode": "0755"}

	_, err := Action{}.Run(context.Background(), opts)
	require.NoError(t, err)

	res, err := Action{}.Run(context.Background(), opts)
	require.NoError(t, err)
	require.False(t, res.Changed)
}

func TestDirActionCreatesSymlink(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "real")
	require.NoError(t, os.Mkdir(target, 0o755))
	link := filepath.Join(base, "link")

	res, err := Action{}.Run(context.Background(), actions.Options{
		"path":    link,
		"symlink": target,
	})
	require.NoError(t, err)
	require.True(t, res.Changed)

	got, err := os.Readlink(link)
	require.NoError(t, err)
	require.Equal(t, target, got)

	res, err = Action{}.Run(context.Background(), actions.Options{
		"path":    link,
		"symlink": target,
	})
	require.NoError(t, err)
	require.False(t, res.Changed)
}
