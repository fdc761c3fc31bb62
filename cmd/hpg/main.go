// Command hpg is the entry point for the HPG configuration engine: a CLI
// wrapping the local executor (§4.3) and the SSH driver (§4.6) over the
// same script-host/graph-engine core. Grounded on the teacher's
// cmd/streamy/main.go wiring, collapsed since HPG has no layered
// application/infrastructure split to assemble.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hpg-dev/hpg/internal/logger"
	hpgerrors "github.com/hpg-dev/hpg/pkg/errors"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := newRootCmd()
	ctx := context.Background()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return int(hpgerrors.ExitCodeFor(err))
	}
	return int(hpgerrors.ExitSuccess)
}

// newAppLogger builds the process-wide logger from the root --debug flag.
func newAppLogger(debug bool) *logger.Logger {
	level := "info"
	if debug {
		level = "debug"
	}
	l, err := logger.New(logger.Options{Level: level, Component: "cli"})
	if err != nil {
		l = logger.NewDiscard()
	}
	return l
}
