package syncfs

import (
	"crypto/sha256"

	"github.com/vmihailenco/msgpack/v5"
)

// BlockSize is the fixed signature block size §4.4 names ("e.g. 1 KiB").
const BlockSize = 1024

// BlockSig is one block's rolling (weak) and strong checksum, as computed
// by the agent over its own current file content.
type BlockSig struct {
	Offset  int64  `msgpack:"offset"`
	Length  int    `msgpack:"length"`
	Rolling uint32 `msgpack:"rolling"`
	Strong  []byte `msgpack:"strong"`
}

// Signature is the full per-block checksum list for one file, the payload
// of a Signature frame.
type Signature struct {
	Blocks []BlockSig `msgpack:"blocks"`
}

// ComputeSignature splits data into BlockSize blocks and computes the
// rsync-style rolling checksum plus a SHA-256 strong checksum for each.
func ComputeSignature(data []byte) Signature {
	var sig Signature
	for offset := 0; offset < len(data); offset += BlockSize {
		end := offset + BlockSize
		if end > len(data) {
			end = len(data)
		}
		block := data[offset:end]
		strong := sha256.Sum256(block)
		sig.Blocks = append(sig.Blocks, BlockSig{
			Offset:  int64(offset),
			Length:  len(block),
			Rolling: rollingChecksum(block),
			Strong:  strong[:],
		})
	}
	return sig
}

// EncodeSignature/DecodeSignature marshal a Signature for the
// Signature{path, sig_bytes} frame payload.
func EncodeSignature(sig Signature) ([]byte, error) { return msgpack.Marshal(sig) }
func DecodeSignature(data []byte) (Signature, error) {
	var sig Signature
	err := msgpack.Unmarshal(data, &sig)
	return sig, err
}

// rollingChecksum computes rsync's classic weak checksum over a fixed
// window: a(k,l) = sum(buf[i]), b(k,l) = sum((l-i+1)*buf[i]), combined as
// a + b<<16. Unlike the incremental roll in ComputeDelta (delta.go), this one
// is computed once over a whole block (agent side, building a signature),
// not incrementally.
func rollingChecksum(block []byte) uint32 {
	var a, b uint32
	n := uint32(len(block))
	for i, c := range block {
		a += uint32(c)
		b += (n - uint32(i)) * uint32(c)
	}
	return a&0xffff | (b&0xffff)<<16
}
