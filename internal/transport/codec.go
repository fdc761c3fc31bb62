package transport

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	hpgerrors "github.com/hpg-dev/hpg/pkg/errors"
)

// maxFrameSize bounds a single frame's payload, guarding against a
// corrupt or malicious length prefix turning into an unbounded allocation.
const maxFrameSize = 256 << 20 // 256 MiB, generous for a FullFile of a large asset

// compressThreshold is the smallest Bytes/DeltaBytes payload worth paying
// zstd's frame overhead for; small patches and signatures stay raw.
const compressThreshold = 256

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// compressPayload zstd-compresses a Patch/FullFile frame's content field in
// place when it's large enough to be worth it, setting Compressed so the
// far end knows to reverse it.
func compressPayload(f *Frame) {
	switch {
	case len(f.Bytes) >= compressThreshold:
		f.Bytes = zstdEncoder.EncodeAll(f.Bytes, nil)
		f.Compressed = true
	case len(f.DeltaBytes) >= compressThreshold:
		f.DeltaBytes = zstdEncoder.EncodeAll(f.DeltaBytes, nil)
		f.Compressed = true
	}
}

// decompressPayload reverses compressPayload after decoding off the wire.
func decompressPayload(f *Frame) error {
	if !f.Compressed {
		return nil
	}
	if len(f.Bytes) > 0 {
		out, err := zstdDecoder.DecodeAll(f.Bytes, nil)
		if err != nil {
			return err
		}
		f.Bytes = out
	}
	if len(f.DeltaBytes) > 0 {
		out, err := zstdDecoder.DecodeAll(f.DeltaBytes, nil)
		if err != nil {
			return err
		}
		f.DeltaBytes = out
	}
	f.Compressed = false
	return nil
}

// WriteFrame encodes f as msgpack and writes it to w prefixed with its
// length as a big-endian uint32 (§4.4 framing: "fixed-width unsigned byte
// length (big-endian 32-bit)"). The framing primitive itself is stdlib
// encoding/binary; only the payload is a library codec (msgpack). A large
// Patch/FullFile content field is zstd-compressed first (§4.4/§4.5 "Patch
// payloads are optionally zstd-compressed before transport").
func WriteFrame(w io.Writer, f Frame) error {
	compressPayload(&f)
	payload, err := msgpack.Marshal(f)
	if err != nil {
		return hpgerrors.NewTransportError("encode frame", err)
	}
	if len(payload) > maxFrameSize {
		return hpgerrors.NewTransportError("encode frame", fmt.Errorf("frame of %d bytes exceeds %d byte limit", len(payload), maxFrameSize))
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return hpgerrors.NewTransportError("write frame header", err)
	}
	if _, err := w.Write(payload); err != nil {
		return hpgerrors.NewTransportError("write frame body", err)
	}
	return nil
}

// ReadFrame blocks until a complete frame is available on r (a partial
// frame is buffered by io.ReadFull until complete, per §4.4) and decodes
// it.
func ReadFrame(r io.Reader) (Frame, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Frame{}, hpgerrors.NewTransportError("read frame header", err)
	}
	size := binary.BigEndian.Uint32(header[:])
	if size > maxFrameSize {
		return Frame{}, hpgerrors.NewTransportError("read frame header", fmt.Errorf("frame of %d bytes exceeds %d byte limit", size, maxFrameSize))
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Frame{}, hpgerrors.NewTransportError("read frame body", err)
	}

	var f Frame
	if err := msgpack.Unmarshal(payload, &f); err != nil {
		return Frame{}, hpgerrors.NewTransportError("decode frame", err)
	}
	if err := decompressPayload(&f); err != nil {
		return Frame{}, hpgerrors.NewTransportError("decompress frame payload", err)
	}
	return f, nil
}
