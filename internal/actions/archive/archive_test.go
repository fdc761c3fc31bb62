package archive

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hpg-dev/hpg/internal/actions"
	"github.com/stretchr/testify/require"
)

func writeTarGz(t *testing.T, path, fileName, content string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: fileName,
		Mode: 0o644,
		Size: int64(len(content)),
	}))
	_, err = tw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
}

func TestArchiveActionExtractsAndMarksSentinel(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "payload.tar.gz")
	writeTarGz(t, archivePath, "hello.txt", "hi there")

	dest := filepath.Join(dir, "out")
	res, err := Action{}.Run(context.Background(), actions.Options{
		"source": archivePath,
		"dest":   dest,
	})
	require.NoError(t, err)
	require.True(t, res.Changed)

	data, err := os.ReadFile(filepath.Join(dest, "hello.txt"))
	require.NoError(t, err)
	require.Equal(t, "hi there", string(data))

	_, err = os.Stat(filepath.Join(dest, sentinelName))
	require.NoError(t, err)
}

func TestArchiveActionSkipsOnMatchingSentinel(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "payload.tar.gz")
	writeTarGz(t, archivePath, "hello.txt", "hi there")
	dest := filepath.Join(dir, "out")

	opts := actions.Options{"source": archivePath, "dest": dest}
	_, err := Action{}.Run(context.Background(), opts)
	require.NoError(t, err)

	res, err := Action{}.Run(context.Background(), opts)
	require.NoError(t, err)
	require.False(t, res.Changed)
}
