package main

import (
	"github.com/spf13/cobra"

	"github.com/hpg-dev/hpg/internal/config"
)

// runFlags holds the flags shared by the local and ssh subcommands (§6).
type runFlags struct {
	configPath     string
	projectDir     string
	defaultTargets bool
	varFlags       []string
	varsFile       string
	show           bool
	list           bool
}

func addRunFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "hpg.lua", "path to the root config script")
	cmd.Flags().StringVarP(&f.projectDir, "project-dir", "p", ".", "project directory synced/loaded for the run")
	cmd.Flags().BoolVarP(&f.defaultTargets, "default-targets", "D", false, "run the config's default target list")
	cmd.Flags().StringArrayVarP(&f.varFlags, "var", "v", nil, "set a script variable KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&f.varsFile, "vars", "", "JSON file of script variables")
	cmd.Flags().BoolVarP(&f.show, "show", "s", false, "print the resolved plan without executing it")
	cmd.Flags().BoolVarP(&f.list, "list", "l", false, "print registered tasks and exit")
}

// resolveVars merges --vars FILE values and -v flag values, CLI winning
// ties, per §6's precedence order.
func (f *runFlags) resolveVars() (map[string]interface{}, error) {
	fileVars, err := config.LoadVarsFile(f.varsFile)
	if err != nil {
		return nil, err
	}
	flagVars, err := config.ParseVarFlags(f.varFlags)
	if err != nil {
		return nil, err
	}
	return config.MergeVars(fileVars, flagVars), nil
}
