package syncfs

import (
	"crypto/sha256"

	"github.com/vmihailenco/msgpack/v5"
)

// Op is one instruction in a Delta: either copy a byte range from the
// agent's existing file, or insert literal data the agent doesn't have.
type Op struct {
	Copy   bool   `msgpack:"copy"`
	Offset int64  `msgpack:"offset,omitempty"`
	Length int    `msgpack:"length,omitempty"`
	Data   []byte `msgpack:"data,omitempty"`
}

// Delta is the driver's reconstruction recipe for one file, the payload of
// a Patch{path, delta_bytes} frame.
type Delta struct {
	Ops []Op `msgpack:"ops"`
}

// ComputeDelta builds a Delta that reconstructs newData on top of
// whatever file produced sig, using a sliding window of BlockSize bytes:
// at each position it checks the rolling checksum against sig's blocks
// and, on a match, verifies the strong (SHA-256) checksum before emitting
// a Copy op; otherwise the byte is folded into the pending literal run.
// Only full BlockSize blocks from sig are indexed — a short trailing
// block (the remote file's final, partial block) is never matched by the
// rolling scan and simply falls through to literal data, a minor dedup
// loss but not a correctness issue.
func ComputeDelta(sig Signature, newData []byte) Delta {
	index := map[uint32][]BlockSig{}
	for _, b := range sig.Blocks {
		if b.Length != BlockSize {
			continue
		}
		index[b.Rolling] = append(index[b.Rolling], b)
	}

	var ops []Op
	var literal []byte
	flush := func() {
		if len(literal) > 0 {
			ops = append(ops, Op{Data: append([]byte{}, literal...)})
			literal = nil
		}
	}

	n := len(newData)
	if n < BlockSize {
		if n > 0 {
			ops = append(ops, Op{Data: append([]byte{}, newData...)})
		}
		return Delta{Ops: ops}
	}

	i := 0
	a, b := rollingParts(newData[0:BlockSize])
	for {
		checksum := a&0xffff | (b&0xffff)<<16
		if candidates, ok := index[checksum]; ok {
			if match, ok := matchStrong(newData[i:i+BlockSize], candidates); ok {
				flush()
				ops = append(ops, Op{Copy: true, Offset: match.Offset, Length: match.Length})
				i += BlockSize
				if i+BlockSize > n {
					break
				}
				a, b = rollingParts(newData[i : i+BlockSize])
				continue
			}
		}

		literal = append(literal, newData[i])
		i++
		if i+BlockSize > n {
			break
		}
		// Incrementally roll the window forward by one byte (the classic
		// rsync recurrence): drop newData[i-1], add newData[i+BlockSize-1].
		out := newData[i-1]
		in := newData[i+BlockSize-1]
		a = a - uint32(out) + uint32(in)
		b = b - uint32(BlockSize)*uint32(out) + a
	}

	if i < n {
		literal = append(literal, newData[i:]...)
	}
	flush()
	return Delta{Ops: ops}
}

func rollingParts(block []byte) (a, b uint32) {
	n := uint32(len(block))
	for idx, c := range block {
		a += uint32(c)
		b += (n - uint32(idx)) * uint32(c)
	}
	return a, b
}

func matchStrong(window []byte, candidates []BlockSig) (BlockSig, bool) {
	sum := sha256.Sum256(window)
	strong := sum[:]
	for _, c := range candidates {
		if bytesEqual(c.Strong, strong) {
			return c, true
		}
	}
	return BlockSig{}, false
}

// ApplyDelta reconstructs a file's new content given the agent's existing
// bytes and the driver's Delta.
func ApplyDelta(existing []byte, delta Delta) []byte {
	var out []byte
	for _, op := range delta.Ops {
		if op.Copy {
			out = append(out, existing[op.Offset:op.Offset+int64(op.Length)]...)
			continue
		}
		out = append(out, op.Data...)
	}
	return out
}

// EncodeDelta/DecodeDelta marshal a Delta for the Patch frame's
// delta_bytes payload.
func EncodeDelta(d Delta) ([]byte, error) { return msgpack.Marshal(d) }
func DecodeDelta(data []byte) (Delta, error) {
	var d Delta
	err := msgpack.Unmarshal(data, &d)
	return d, err
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
