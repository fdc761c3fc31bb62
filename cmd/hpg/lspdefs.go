package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// scriptIntrinsics is the fixed set of globals internal/scripthost installs
// (§4.1). The full language-server definition emitter is explicitly out of
// scope (spec.md §"Out of scope"); this is the minimal stand-in so
// --lsp-defs/--raw-lsp-defs are not silently ignored flags.
var scriptIntrinsics = []string{
	"task", "target", "success", "cancel", "fail",
	"vars", "machine",
	"exec", "shell", "file", "dir", "archive", "http", "user", "systemd", "repo", "pkg",
}

func printLspDefs(cmd *cobra.Command, raw bool) error {
	if raw {
		enc := json.NewEncoder(cmd.OutOrStdout())
		return enc.Encode(scriptIntrinsics)
	}
	for _, name := range scriptIntrinsics {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
