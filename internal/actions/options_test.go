package actions

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testOptions struct {
	Path       string `mapstructure:"path" validate:"required"`
	IgnoreExit bool   `mapstructure:"ignore_exit"`
}

func TestDecodeRejectsUnrecognizedKeys(t *testing.T) {
	var dst testOptions
	err := Decode(Options{"path": "/tmp/x", "bogus": true}, &dst)
	require.Error(t, err)
}

func TestDecodeAcceptsRecognizedKeys(t *testing.T) {
	var dst testOptions
	err := Decode(Options{"path": "/tmp/x", "ignore_exit": true}, &dst)
	require.NoError(t, err)
	require.Equal(t, "/tmp/x", dst.Path)
	require.True(t, dst.IgnoreExit)
}

func TestDecodeValidatesRequiredFields(t *testing.T) {
	var dst testOptions
	err := Decode(Options{}, &dst)
	require.Error(t, err)
}
