// Package agent is the remote half of §4.6's execution mode: it runs on
// the target host (uploaded and exec'd by internal/sshdriver), speaks the
// same internal/transport frame protocol over its own stdin/stdout, and
// drives the identical internal/executor.Run path the local CLI uses —
// the only difference is where the resulting events go. Grounded on the
// teacher's cmd/streamy wiring (one entry point assembling the same
// service core the local command uses) generalized to a second transport.
package agent

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/hpg-dev/hpg/internal/events"
	"github.com/hpg-dev/hpg/internal/executor"
	"github.com/hpg-dev/hpg/internal/syncfs"
	"github.com/hpg-dev/hpg/internal/transport"
	hpgerrors "github.com/hpg-dev/hpg/pkg/errors"
)

// Serve runs the agent's full lifecycle against rw (the SSH session's
// stdin/stdout from this side): handshake, receive the synced project
// tree into workDir, execute the Invoke it's given, and report Done.
// It returns the exit code the driver should ultimately surface.
func Serve(ctx context.Context, rw io.ReadWriter, workDir string) int {
	if err := handshake(rw); err != nil {
		writeFatal(rw, err)
		return int(hpgerrors.ExitTransportError)
	}

	if err := receiveSync(rw, workDir); err != nil {
		writeFatal(rw, err)
		return int(hpgerrors.ExitTransportError)
	}

	invoke, err := transport.ReadFrame(rw)
	if err != nil {
		writeFatal(rw, err)
		return int(hpgerrors.ExitTransportError)
	}
	if invoke.Kind != transport.KindInvoke {
		writeFatal(rw, fmt.Errorf("expected invoke, got %s", invoke.Kind))
		return int(hpgerrors.ExitTransportError)
	}

	sink := &frameSink{rw: rw}
	out := &lineEmitter{sink: sink}

	runErr := executor.Run(ctx, executor.Options{
		ConfigPath:     filepath.Join(workDir, invoke.ConfigPath),
		DefaultTargets: invoke.DefaultTargets,
		Vars:           invoke.Vars,
		Show:           invoke.ShowOnly,
		List:           invoke.ListOnly,
		Targets:        invoke.Targets,
		Sink:           sink,
		Out:            out,
	})
	out.flush()

	exitCode := int(hpgerrors.ExitSuccess)
	if runErr != nil {
		if classified, ok := runErr.(hpgerrors.Classified); ok {
			exitCode = int(classified.ExitClass())
		} else {
			exitCode = int(hpgerrors.ExitTaskFailure)
		}
	}

	_ = transport.WriteFrame(rw, transport.Frame{Kind: transport.KindDone, ExitCode: exitCode})
	return exitCode
}

func handshake(rw io.ReadWriter) error {
	frame, err := transport.ReadFrame(rw)
	if err != nil {
		return err
	}
	if frame.Kind != transport.KindHello {
		return fmt.Errorf("expected hello, got %s", frame.Kind)
	}
	if frame.Version[0] != transport.ProtocolVersion[0] {
		return fmt.Errorf("protocol version mismatch: driver v%d, agent v%d", frame.Version[0], transport.ProtocolVersion[0])
	}
	return transport.WriteFrame(rw, transport.Frame{Kind: transport.KindHelloAck, Version: transport.ProtocolVersion})
}

// receiveSync implements the agent side of §4.4's sync handshake: report
// what's missing or stale relative to the driver's snapshot, then for each
// such path either offer a Signature (if a divergent local copy already
// exists) or ask for the FullFile outright.
func receiveSync(rw io.ReadWriter, workDir string) error {
	start, err := transport.ReadFrame(rw)
	if err != nil {
		return err
	}
	if start.Kind != transport.KindSyncStart {
		return fmt.Errorf("expected sync_start, got %s", start.Kind)
	}

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return err
	}
	local, err := syncfs.Snapshot(workDir)
	if err != nil {
		return err
	}
	localHash := make(map[string]string, len(local))
	for _, f := range local {
		localHash[f.Path] = f.Hash
	}

	needed, obsolete := syncfs.Diff(start.Files, localHash)
	paths := make([]string, len(needed))
	for i, f := range needed {
		paths[i] = f.Path
	}
	sort.Strings(paths)
	if err := transport.WriteFrame(rw, transport.Frame{Kind: transport.KindSyncNeed, Paths: paths}); err != nil {
		return err
	}

	for _, path := range paths {
		if err := resolveOne(rw, workDir, path); err != nil {
			return err
		}
	}

	for _, path := range obsolete {
		_ = os.Remove(filepath.Join(workDir, filepath.FromSlash(path)))
	}

	end, err := transport.ReadFrame(rw)
	if err != nil {
		return err
	}
	if end.Kind != transport.KindSyncEnd {
		return fmt.Errorf("expected sync_end, got %s", end.Kind)
	}
	return nil
}

func resolveOne(rw io.ReadWriter, workDir, path string) error {
	req, err := transport.ReadFrame(rw)
	if err != nil {
		return err
	}
	if req.Kind != transport.KindDeltaRequest || req.Path != path {
		return fmt.Errorf("expected delta_request for %s, got %s", path, req.Kind)
	}

	full := filepath.Join(workDir, filepath.FromSlash(path))
	existing, readErr := os.ReadFile(full)
	if readErr != nil {
		// No local copy to diff against: ask for the whole file. Reusing
		// KindFullFile for this request carries no Bytes payload; the
		// driver's reply under the same kind is the one that does.
		if err := transport.WriteFrame(rw, transport.Frame{Kind: transport.KindFullFile, Path: path}); err != nil {
			return err
		}
	} else {
		sig := syncfs.ComputeSignature(existing)
		encoded, err := syncfs.EncodeSignature(sig)
		if err != nil {
			return err
		}
		if err := transport.WriteFrame(rw, transport.Frame{Kind: transport.KindSignature, Path: path, SignatureBytes: encoded}); err != nil {
			return err
		}
	}

	reply, err := transport.ReadFrame(rw)
	if err != nil {
		return err
	}

	var content []byte
	switch reply.Kind {
	case transport.KindPatch:
		delta, err := syncfs.DecodeDelta(reply.DeltaBytes)
		if err != nil {
			return err
		}
		content = syncfs.ApplyDelta(existing, delta)
	case transport.KindFullFile:
		content = reply.Bytes
	default:
		return fmt.Errorf("unexpected reply kind %s for %s", reply.Kind, path)
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	if reply.Symlink != "" {
		_ = os.Remove(full)
		return os.Symlink(reply.Symlink, full)
	}
	if err := os.WriteFile(full, content, os.FileMode(reply.Mode)); err != nil {
		return err
	}
	return os.Chmod(full, os.FileMode(reply.Mode))
}

func writeFatal(rw io.ReadWriter, err error) {
	_ = transport.WriteFrame(rw, transport.Frame{Kind: transport.KindError, Message: err.Error()})
}

// frameSink adapts events.Sink onto an Event frame over the wire.
type frameSink struct {
	rw io.ReadWriter
}

func (s *frameSink) Emit(e events.Event) {
	_ = transport.WriteFrame(s.rw, transport.Frame{Kind: transport.KindEvent, Event: &e})
}

// lineEmitter adapts executor's io.Writer (used for --list/--show text
// output) into Stdio events so --list/--show keep working over SSH.
type lineEmitter struct {
	sink *frameSink
	buf  bytes.Buffer
}

func (w *lineEmitter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	return len(p), nil
}

func (w *lineEmitter) flush() {
	scanner := bufio.NewScanner(&w.buf)
	for scanner.Scan() {
		w.sink.Emit(events.Event{Kind: events.Stdio, Task: "script", Stream: "stdout", Line: scanner.Text()})
	}
}
