package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hpg-dev/hpg/internal/events"
	"github.com/hpg-dev/hpg/internal/executor"
)

func newLocalCmd(root *rootFlags) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "local [targets...]",
		Short: "Run the config against this host",
		RunE: func(cmd *cobra.Command, args []string) error {
			appLogger := newAppLogger(root.debug)

			vars, err := flags.resolveVars()
			if err != nil {
				return err
			}

			configPath := flags.configPath
			if !filepath.IsAbs(configPath) {
				configPath = filepath.Join(flags.projectDir, configPath)
			}

			out := cmd.OutOrStdout()
			bus := events.NewBus()
			bus.Subscribe(events.NewLineRenderer(out))

			appLogger.Debug(cmd.Context(), "starting local run", "config", configPath, "targets", args)
			err = executor.Run(cmd.Context(), executor.Options{
				ConfigPath:     configPath,
				DefaultTargets: flags.defaultTargets,
				Vars:           vars,
				Show:           flags.show,
				List:           flags.list,
				Targets:        args,
				Sink:           bus,
				Out:            out,
			})
			if err != nil {
				appLogger.Error(cmd.Context(), "local run failed", "error", err)
			}
			return err
		},
	}

	addRunFlags(cmd, flags)
	return cmd
}
