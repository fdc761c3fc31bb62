// Command hpg-agent is the remote half of the SSH execution mode (§4.6):
// internal/sshdriver uploads this binary to the target and execs it, and
// it speaks internal/transport frames over its own stdin/stdout for the
// rest of the run. It is never invoked directly by a human.
package main

import (
	"context"
	"os"

	"github.com/hpg-dev/hpg/internal/agent"
	hpgerrors "github.com/hpg-dev/hpg/pkg/errors"
)

func main() {
	workDir, err := os.MkdirTemp("", "hpg-agent-")
	if err != nil {
		os.Exit(int(hpgerrors.ExitTransportError))
	}
	defer os.RemoveAll(workDir)

	code := agent.Serve(context.Background(), stdio{}, workDir)
	os.Exit(code)
}

// stdio adapts os.Stdin/os.Stdout into the single io.ReadWriter
// internal/agent.Serve expects.
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
