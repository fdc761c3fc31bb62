package agent

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hpg-dev/hpg/internal/transport"
)

func TestServeHandshakeSyncAndListInvoke(t *testing.T) {
	workDir := t.TempDir()
	scriptBody := []byte(`a = task("a")`)
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "hpg.lua"), scriptBody, 0o644))
	scriptHash := fmt.Sprintf("%x", sha256.Sum256(scriptBody))

	driverConn, agentConn := net.Pipe()
	defer driverConn.Close()

	done := make(chan int, 1)
	go func() {
		done <- Serve(context.Background(), agentConn, workDir)
	}()

	require.NoError(t, transport.WriteFrame(driverConn, transport.Frame{Kind: transport.KindHello, Version: transport.ProtocolVersion}))
	ack, err := transport.ReadFrame(driverConn)
	require.NoError(t, err)
	require.Equal(t, transport.KindHelloAck, ack.Kind)

	// The agent already has hpg.lua (placed directly in workDir above, to
	// keep this test focused on the handshake/invoke legs rather than file
	// transfer); tell it the driver's snapshot agrees, so Diff finds
	// nothing to fetch and nothing obsolete to delete.
	require.NoError(t, transport.WriteFrame(driverConn, transport.Frame{
		Kind: transport.KindSyncStart,
		Files: []transport.FileEntry{{Path: "hpg.lua", Hash: scriptHash, Mode: 0o644}},
	}))
	need, err := transport.ReadFrame(driverConn)
	require.NoError(t, err)
	require.Equal(t, transport.KindSyncNeed, need.Kind)
	require.Empty(t, need.Paths)

	require.NoError(t, transport.WriteFrame(driverConn, transport.Frame{Kind: transport.KindSyncEnd}))

	require.NoError(t, transport.WriteFrame(driverConn, transport.Frame{
		Kind: transport.KindInvoke, ConfigPath: "hpg.lua", ListOnly: true,
	}))

	var gotStdio bool
	for {
		frame, err := transport.ReadFrame(driverConn)
		require.NoError(t, err)
		if frame.Kind == transport.KindEvent && frame.Event != nil && frame.Event.Line != "" {
			gotStdio = true
		}
		if frame.Kind == transport.KindDone {
			require.Equal(t, 0, frame.ExitCode)
			break
		}
	}
	require.True(t, gotStdio, "expected the task listing to arrive as at least one Stdio event")

	select {
	case code := <-done:
		require.Equal(t, 0, code)
	case <-time.After(2 * time.Second):
		t.Fatal("agent.Serve did not return after Done")
	}
}

func TestServeRejectsProtocolVersionMismatch(t *testing.T) {
	workDir := t.TempDir()
	driverConn, agentConn := net.Pipe()
	defer driverConn.Close()

	done := make(chan int, 1)
	go func() {
		done <- Serve(context.Background(), agentConn, workDir)
	}()

	require.NoError(t, transport.WriteFrame(driverConn, transport.Frame{Kind: transport.KindHello, Version: [3]int{99, 0, 0}}))
	reply, err := transport.ReadFrame(driverConn)
	require.NoError(t, err)
	require.Equal(t, transport.KindError, reply.Kind)

	select {
	case code := <-done:
		require.NotEqual(t, 0, code)
	case <-time.After(2 * time.Second):
		t.Fatal("agent.Serve did not return after a version mismatch")
	}
}
