package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalCommandList(t *testing.T) {
	dir := t.TempDir()
	script := `
a = task("a", nil, function() end)
b = task("b", {a}, function() end)
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hpg.lua"), []byte(script), 0o644))

	stdout, err := executeRootCommand("local", "-p", dir, "--list")
	require.NoError(t, err)
	require.Contains(t, stdout, "a")
	require.Contains(t, stdout, "b")
}

func TestLocalCommandRunsDefaultTargets(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "ran")
	script := `
a = task("a", nil, function()
  f = io.open("` + filepath.ToSlash(marker) + `", "w")
  f:write("done")
  f:close()
end)
target(a)
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hpg.lua"), []byte(script), 0o644))

	_, err := executeRootCommand("local", "-p", dir, "-D")
	require.NoError(t, err)

	_, statErr := os.Stat(marker)
	require.NoError(t, statErr)
}

func TestLocalCommandPropagatesConfigError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hpg.lua"), []byte("this is not valid lua ((("), 0o644))

	root := newRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"local", "-p", dir})

	err := root.Execute()
	require.Error(t, err)
}
