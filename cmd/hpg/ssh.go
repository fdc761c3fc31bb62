package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hpg-dev/hpg/internal/events"
	"github.com/hpg-dev/hpg/internal/sshdriver"
)

func newSSHCmd(root *rootFlags) *cobra.Command {
	flags := &runFlags{}
	var inventoryPath, agentBinaryPath, remoteAgentPath string

	cmd := &cobra.Command{
		Use:   "ssh <[user@]host[:port]> [targets...]",
		Short: "Run the config against a remote host over SSH",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appLogger := newAppLogger(root.debug)
			vars, err := flags.resolveVars()
			if err != nil {
				return err
			}

			inv, err := sshdriver.LoadInventory(inventoryPath)
			if err != nil {
				return err
			}
			target, err := sshdriver.ResolveTarget(args[0], inv)
			if err != nil {
				return err
			}
			taskArgs := args[1:]

			appLogger.Debug(cmd.Context(), "dialing remote target", "target", target.String())
			client, err := sshdriver.Dial(target)
			if err != nil {
				return err
			}
			defer client.Close()

			agentBinary, err := os.ReadFile(agentBinaryPath)
			if err != nil {
				return fmt.Errorf("ssh: read agent binary %s: %w", agentBinaryPath, err)
			}
			if err := sshdriver.UploadAgent(client, agentBinary, remoteAgentPath); err != nil {
				return err
			}

			sess, err := sshdriver.StartAgent(client, remoteAgentPath, os.Stderr)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sshdriver.Handshake(sess); err != nil {
				return err
			}

			configPath := flags.configPath
			if !filepath.IsAbs(configPath) {
				configPath = filepath.Join(flags.projectDir, configPath)
			}
			if err := sshdriver.SyncProject(sess, flags.projectDir); err != nil {
				return err
			}

			relConfig, err := filepath.Rel(flags.projectDir, configPath)
			if err != nil {
				relConfig = filepath.Base(configPath)
			}

			bus := events.NewBus()
			bus.Subscribe(events.NewLineRenderer(os.Stdout))

			exitCode, err := sshdriver.Invoke(sess, sshdriver.InvokeOptions{
				ConfigPath:     filepath.ToSlash(relConfig),
				Targets:        taskArgs,
				Vars:           vars,
				Show:           flags.show,
				List:           flags.list,
				DefaultTargets: flags.defaultTargets,
			}, bus)
			if err != nil {
				return err
			}
			if exitCode != 0 {
				return fmt.Errorf("remote run exited %d", exitCode)
			}
			return nil
		},
	}

	addRunFlags(cmd, flags)
	cmd.Flags().StringVarP(&inventoryPath, "inventory", "i", "", "TOML inventory file mapping target names to connection details")
	cmd.Flags().StringVar(&agentBinaryPath, "agent-binary", "hpg-agent", "path to the hpg-agent binary built for the target's platform")
	cmd.Flags().StringVar(&remoteAgentPath, "remote-path", "/tmp/hpg-agent", "path on the target to upload the agent binary to")
	return cmd
}
