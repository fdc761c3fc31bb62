package sshdriver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hpg-dev/hpg/internal/syncfs"
	"github.com/hpg-dev/hpg/internal/transport"
	hpgerrors "github.com/hpg-dev/hpg/pkg/errors"
)

// SyncProject drives the project-tree reconciliation handshake (§4.4) over
// rw: send the driver's full snapshot as SyncStart, let the agent name what
// it's missing or has stale via SyncNeed, then resolve each needed path
// with Signature/Patch when the agent already has a divergent copy, or a
// plain FullFile otherwise, finishing with SyncEnd.
func SyncProject(rw io.ReadWriter, root string) error {
	snapshot, err := syncfs.Snapshot(root)
	if err != nil {
		return hpgerrors.NewTransportError("snapshot project", err)
	}

	if err := transport.WriteFrame(rw, transport.Frame{Kind: transport.KindSyncStart, Files: snapshot}); err != nil {
		return err
	}

	need, err := transport.ReadFrame(rw)
	if err != nil {
		return err
	}
	if need.Kind != transport.KindSyncNeed {
		return hpgerrors.NewTransportError("sync handshake", fmt.Errorf("expected sync_need, got %s", need.Kind))
	}

	byPath := make(map[string]transport.FileEntry, len(snapshot))
	for _, f := range snapshot {
		byPath[f.Path] = f
	}

	for _, path := range need.Paths {
		entry, ok := byPath[path]
		if !ok {
			continue
		}
		if err := sendOne(rw, root, entry); err != nil {
			return err
		}
	}

	return transport.WriteFrame(rw, transport.Frame{Kind: transport.KindSyncEnd})
}

// sendOne resolves one needed path. It always opens with a DeltaRequest so
// the agent's resolveOne (which unconditionally waits for one) stays in
// lockstep, even for a symlink entry, which has no content to diff and is
// always answered with a plain FullFile regardless of what the agent offers.
func sendOne(rw io.ReadWriter, root string, entry transport.FileEntry) error {
	if err := transport.WriteFrame(rw, transport.Frame{Kind: transport.KindDeltaRequest, Path: entry.Path}); err != nil {
		return err
	}
	reply, err := transport.ReadFrame(rw)
	if err != nil {
		return err
	}
	switch reply.Kind {
	case transport.KindSignature, transport.KindFullFile:
		// both are valid "go ahead" replies; which one only matters for a
		// regular file's delta-vs-full choice below.
	default:
		return hpgerrors.NewTransportError("sync one file", fmt.Errorf("unexpected reply kind %s", reply.Kind))
	}

	if entry.Symlink != "" {
		return transport.WriteFrame(rw, transport.Frame{
			Kind: transport.KindFullFile, Path: entry.Path, Mode: entry.Mode, Symlink: entry.Symlink,
		})
	}

	full := filepath.Join(root, filepath.FromSlash(entry.Path))
	data, err := os.ReadFile(full)
	if err != nil {
		return hpgerrors.NewTransportError(fmt.Sprintf("read %s", entry.Path), err)
	}

	if reply.Kind == transport.KindSignature {
		sig, err := syncfs.DecodeSignature(reply.SignatureBytes)
		if err != nil {
			return hpgerrors.NewTransportError("decode signature", err)
		}
		delta := syncfs.ComputeDelta(sig, data)
		encoded, err := syncfs.EncodeDelta(delta)
		if err != nil {
			return hpgerrors.NewTransportError("encode delta", err)
		}
		return transport.WriteFrame(rw, transport.Frame{
			Kind: transport.KindPatch, Path: entry.Path, Mode: entry.Mode, DeltaBytes: encoded,
		})
	}
	return transport.WriteFrame(rw, transport.Frame{
		Kind: transport.KindFullFile, Path: entry.Path, Mode: entry.Mode, Bytes: data,
	})
}
