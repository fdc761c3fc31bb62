package actions_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpg-dev/hpg/internal/actions"
	"github.com/hpg-dev/hpg/internal/actions/file"
)

// TestDecodeAcceptsIgnoreExitOnEmbeddedCommonOptions exercises Decode
// against a real action's option struct (not the flat testOptions stand-in
// used elsewhere in this package) to guard the embedded CommonOptions
// squash tag: without it, mapstructure's ErrorUnused rejects a top-level
// ignore_exit key as unused because it doesn't inline an un-squashed
// anonymous struct field.
func TestDecodeAcceptsIgnoreExitOnEmbeddedCommonOptions(t *testing.T) {
	var dst file.Options
	err := actions.Decode(actions.Options{
		"path":        "/tmp/x",
		"content":     "hello",
		"ignore_exit": true,
	}, &dst)
	require.NoError(t, err)
	require.Equal(t, "/tmp/x", dst.Path)
	require.True(t, dst.IgnoreExit)
}
