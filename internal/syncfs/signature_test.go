package syncfs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeSignatureBlockBoundaries(t *testing.T) {
	data := bytes.Repeat([]byte("x"), BlockSize*3+17)
	sig := ComputeSignature(data)
	require.Len(t, sig.Blocks, 4)
	require.Equal(t, BlockSize, sig.Blocks[0].Length)
	require.Equal(t, BlockSize, sig.Blocks[2].Length)
	require.Equal(t, 17, sig.Blocks[3].Length)
	require.Equal(t, int64(BlockSize*3), sig.Blocks[3].Offset)
}

func TestComputeSignatureIdenticalBlocksMatchChecksums(t *testing.T) {
	block := bytes.Repeat([]byte("ab"), BlockSize/2)
	data := append(append([]byte{}, block...), block...)
	sig := ComputeSignature(data)
	require.Len(t, sig.Blocks, 2)
	require.Equal(t, sig.Blocks[0].Rolling, sig.Blocks[1].Rolling)
	require.Equal(t, sig.Blocks[0].Strong, sig.Blocks[1].Strong)
}

func TestEncodeDecodeSignatureRoundTrips(t *testing.T) {
	sig := ComputeSignature([]byte("a small file that fits in one block"))
	encoded, err := EncodeSignature(sig)
	require.NoError(t, err)

	decoded, err := DecodeSignature(encoded)
	require.NoError(t, err)
	require.Equal(t, sig, decoded)
}
