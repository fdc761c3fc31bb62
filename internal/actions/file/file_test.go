package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hpg-dev/hpg/internal/actions"
	"github.com/stretchr/testify/require"
)

func TestFileActionWritesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	res, err := Action{}.Run(context.Background(), actions.Options{
		"path":    path,
		"content": "hello\n",
	})
	require.NoError(t, err)
	require.True(t, res.Changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(data))
}

func TestFileActionWriteIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	opts := actions.Options{"path": path, "content": "hello\n"}

	_, err := Action{}.Run(context.Background(), opts)
	require.NoError(t, err)

	res, err := Action{}.Run(context.Background(), opts)
	require.NoError(t, err)
	require.False(t, res.Changed)
}

func TestFileActionCopiesSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	res, err := Action{}.Run(context.Background(), actions.Options{
		"path":   dst,
		"source": src,
	})
	require.NoError(t, err)
	require.True(t, res.Changed)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))
}

func TestFileActionAppendsMarkedBlockOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "managed.conf")
	require.NoError(t, os.WriteFile(path, []byte("existing line\n"), 0o644))

	opts := actions.Options{
		"path":   path,
		"block":  "option x = 1",
		"marker": "hpg-test",
	}
	res, err := Action{}.Run(context.Background(), opts)
	require.NoError(t, err)
	require.True(t, res.Changed)

	res, err = Action{}.Run(context.Background(), opts)
	require.NoError(t, err)
	require.False(t, res.Changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "existing line")
	require.Contains(t, string(data), "hpg-test BEGIN ")
	require.Contains(t, string(data), "option x = 1")
	require.Contains(t, string(data), "hpg-test END ")
}

func TestFileActionAppendReplacesExistingBlock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "managed.conf")

	first := actions.Options{"path": path, "block": "v=1", "marker": "m"}
	_, err := Action{}.Run(context.Background(), first)
	require.NoError(t, err)

	second := actions.Options{"path": path, "block": "v=2", "marker": "m"}
	res, err := Action{}.Run(context.Background(), second)
	require.NoError(t, err)
	require.True(t, res.Changed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "v=1")
	require.Contains(t, string(data), "v=2")
}
