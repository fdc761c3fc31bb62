package pkgmanager

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpg-dev/hpg/internal/actions"
	"github.com/stretchr/testify/require"
)

// fakeManager writes one line to a log file per invocation so tests can
// count how many times "update" actually ran.
func fakeManager(t *testing.T, logPath string) string {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "fake-pkg")
	content := "#!/bin/sh\necho \"$@\" >> \"" + logPath + "\"\nexit 0\n"
	require.NoError(t, os.WriteFile(script, []byte(content), 0o755))
	return script
}

func TestPkgActionMemoizesUpdateWithinProcess(t *testing.T) {
	ResetMemoization()
	dir := t.TempDir()
	logPath := filepath.Join(dir, "calls.log")
	manager := fakeManager(t, logPath)
	a := Action{Manager: manager}

	opts := actions.Options{"packages": []string{"curl"}, "update": true}
	_, err := a.Run(context.Background(), opts)
	require.NoError(t, err)
	_, err = a.Run(context.Background(), opts)
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(string(data), "update"))
}

func TestPkgActionForceBypassesMemoization(t *testing.T) {
	ResetMemoization()
	dir := t.TempDir()
	logPath := filepath.Join(dir, "calls.log")
	manager := fakeManager(t, logPath)
	a := Action{Manager: manager}

	_, err := a.Run(context.Background(), actions.Options{"packages": []string{"curl"}, "update": true})
	require.NoError(t, err)
	_, err = a.Run(context.Background(), actions.Options{"packages": []string{"curl"}, "update": true, "force": true})
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(string(data), "update"))
}
