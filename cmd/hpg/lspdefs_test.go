package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLspDefsPrintsOneNamePerLine(t *testing.T) {
	stdout, err := executeRootCommand("--lsp-defs")
	require.NoError(t, err)
	require.Contains(t, stdout, "task\n")
	require.Contains(t, stdout, "exec\n")
}

func TestRawLspDefsPrintsJSONArray(t *testing.T) {
	stdout, err := executeRootCommand("--raw-lsp-defs")
	require.NoError(t, err)

	var names []string
	require.NoError(t, json.Unmarshal([]byte(stdout), &names))
	require.Contains(t, names, "task")
	require.Contains(t, names, "fail")
}

func executeRootCommand(args ...string) (string, error) {
	root := newRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}
