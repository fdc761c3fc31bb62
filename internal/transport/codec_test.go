package transport

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteReadFrameRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	original := Frame{
		Kind:       KindInvoke,
		ConfigPath: "hpg.lua",
		Targets:    []string{"a", "b"},
		Vars:       map[string]interface{}{"env": "prod"},
	}

	require.NoError(t, WriteFrame(&buf, original))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, original.Kind, got.Kind)
	require.Equal(t, original.ConfigPath, got.ConfigPath)
	require.Equal(t, original.Targets, got.Targets)
	require.Equal(t, original.Vars["env"], got.Vars["env"])
}

func TestReadFrameMultipleFramesInOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, Frame{Kind: KindHello, Version: ProtocolVersion}))
	require.NoError(t, WriteFrame(&buf, Frame{Kind: KindDone, ExitCode: 0}))

	first, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, KindHello, first.Kind)

	second, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, KindDone, second.Kind)
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xff, 0xff, 0xff})
	_, err := ReadFrame(&buf)
	require.Error(t, err)
}

func TestWriteFrameCompressesLargeFullFilePayload(t *testing.T) {
	var buf bytes.Buffer
	large := bytes.Repeat([]byte("hpg-patch-payload"), 100) // well past compressThreshold

	require.NoError(t, WriteFrame(&buf, Frame{Kind: KindFullFile, Path: "a.txt", Bytes: large}))
	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.False(t, got.Compressed, "ReadFrame should reverse compression before returning the frame")
	require.Equal(t, large, got.Bytes)
}

func TestWriteFrameLeavesSmallPayloadUncompressed(t *testing.T) {
	var buf bytes.Buffer
	small := []byte("tiny")

	require.NoError(t, WriteFrame(&buf, Frame{Kind: KindFullFile, Path: "a.txt", Bytes: small}))
	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, small, got.Bytes)
}
