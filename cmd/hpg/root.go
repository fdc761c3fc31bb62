package main

import (
	"github.com/spf13/cobra"
)

// rootFlags holds the flags shared by every HPG invocation, persistent
// across subcommands (§6 CLI: "hpg [--lsp-defs|--raw-lsp-defs] [--debug]
// { local | ssh | help }").
type rootFlags struct {
	lspDefs    bool
	rawLspDefs bool
	debug      bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "hpg",
		Short:         "HPG applies a Lua-scripted task graph to a host, local or remote",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.lspDefs || flags.rawLspDefs {
				return printLspDefs(cmd, flags.rawLspDefs)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVar(&flags.lspDefs, "lsp-defs", false, "print script-host intrinsic definitions for editor tooling")
	cmd.PersistentFlags().BoolVar(&flags.rawLspDefs, "raw-lsp-defs", false, "print script-host intrinsic definitions without formatting")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug-level logging")

	cmd.AddCommand(newLocalCmd(flags))
	cmd.AddCommand(newSSHCmd(flags))

	return cmd
}
