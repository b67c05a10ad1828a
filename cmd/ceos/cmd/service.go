/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/ceoskit/pkg/config"
)

const serviceName = "ceos.service"

var (
	systemdUnitPath = "/etc/systemd/system/" + serviceName
	geteuid         = os.Geteuid
	runCommand      = execCommand
)

// serviceCmd represents the service command
var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the ceos API server as a systemd service",
	Long: `Manage the ceos API server as a systemd service.

The unit runs 'ceos serve' with the configuration file and restarts it on
failure.`,
}

// installServiceCmd represents the service install command
var installServiceCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the ceos API server as a systemd service",
	Long: `Install the ceos API server as a systemd service.

This will:
- Create or use the existing configuration
- Write the systemd unit file
- Enable and optionally start the service

Examples:
  sudo ceos service install
  sudo ceos service install --data-dir /var/lib/ceos --user ceos --start=false`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		dataDir, _ := cmd.Flags().GetString("data-dir")
		user, _ := cmd.Flags().GetString("user")
		binary, _ := cmd.Flags().GetString("binary")
		startNow, _ := cmd.Flags().GetBool("start")

		if configPath == "" {
			configPath = config.GetDefaultConfigPath()
		}
		if err := requireRoot("install"); err != nil {
			return err
		}

		cmd.Printf("Installing ceos systemd service...\n")

		svcCfg := cfg
		if !config.ConfigExists(configPath) {
			created, err := config.BootstrapConfig(configPath, dataDir)
			if err != nil {
				return fmt.Errorf("failed to bootstrap config: %w", err)
			}
			svcCfg = created
			cmd.Printf("Created new configuration at %s\n", configPath)
		}
		if cmd.Flags().Changed("data-dir") {
			svcCfg.DataDir = dataDir
		}
		if cmd.Flags().Changed("port") {
			svcCfg.Port, _ = cmd.Flags().GetInt("port")
		}
		if err := config.SaveConfig(svcCfg, configPath); err != nil {
			return err
		}

		if err := createSystemdUnit(svcCfg, configPath, user, binary); err != nil {
			return fmt.Errorf("failed to create systemd unit: %w", err)
		}
		if err := systemctl(cmd, "daemon-reload"); err != nil {
			return err
		}
		if err := systemctl(cmd, "enable", serviceName); err != nil {
			return err
		}
		cmd.Printf("Service enabled\n")

		if startNow {
			if err := systemctl(cmd, "start", serviceName); err != nil {
				return err
			}
			cmd.Printf("Service started\n")
		}

		cmd.Printf("\nService: %s\n", serviceName)
		cmd.Printf("Config: %s\n", configPath)
		cmd.Printf("Data: %s\n", svcCfg.DataDir)
		cmd.Printf("Port: %d\n", svcCfg.Port)
		if !startNow {
			cmd.Printf("\nTo start the service: sudo systemctl start %s\n", serviceName)
		}
		cmd.Printf("To view logs: ceos service logs -f\n")
		return nil
	},
}

// newSystemctlCmd returns a subcommand that runs one systemctl action
func newSystemctlCmd(action, short, done string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := systemctl(cmd, action, serviceName); err != nil {
				return err
			}
			if done != "" {
				cmd.Printf("%s\n", done)
			}
			return nil
		},
	}
}

// logsCmd represents the service logs command
var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show ceos service logs",
	Long: `Show ceos service logs using journalctl.

Examples:
  ceos service logs
  ceos service logs -f -n 100`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		follow, _ := cmd.Flags().GetBool("follow")
		lines, _ := cmd.Flags().GetInt("lines")

		journalArgs := []string{"-u", serviceName}
		if follow {
			journalArgs = append(journalArgs, "-f")
		}
		if lines > 0 {
			journalArgs = append(journalArgs, fmt.Sprintf("-n%d", lines))
		}
		return runCommand(cmd, "journalctl", journalArgs...)
	},
}

// uninstallCmd represents the service uninstall command
var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Uninstall the ceos service",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireRoot("uninstall"); err != nil {
			return err
		}

		_ = systemctl(cmd, "stop", serviceName) // already stopped is fine
		if err := systemctl(cmd, "disable", serviceName); err != nil {
			cmd.Printf("Warning: could not disable service: %v\n", err)
		}
		if err := os.Remove(systemdUnitPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove unit file: %w", err)
		}
		if err := systemctl(cmd, "daemon-reload"); err != nil {
			return err
		}

		cmd.Printf("ceos service uninstalled\n")
		cmd.Printf("Note: configuration and archive were not removed\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serviceCmd)

	serviceCmd.AddCommand(installServiceCmd)
	serviceCmd.AddCommand(newSystemctlCmd("start", "Start the ceos service", "ceos service started"))
	serviceCmd.AddCommand(newSystemctlCmd("stop", "Stop the ceos service", "ceos service stopped"))
	serviceCmd.AddCommand(newSystemctlCmd("restart", "Restart the ceos service", "ceos service restarted"))
	serviceCmd.AddCommand(newSystemctlCmd("status", "Show ceos service status", ""))
	serviceCmd.AddCommand(logsCmd)
	serviceCmd.AddCommand(uninstallCmd)

	installServiceCmd.Flags().String("data-dir", "/var/lib/ceos", "Data directory for the service")
	installServiceCmd.Flags().String("user", "ceos", "User to run the service as")
	installServiceCmd.Flags().String("binary", "/usr/local/bin/ceos", "Path to the ceos binary")
	installServiceCmd.Flags().Int("port", 8080, "Port for the service")
	installServiceCmd.Flags().Bool("start", true, "Start the service after installation")

	logsCmd.Flags().BoolP("follow", "f", false, "Follow log output")
	logsCmd.Flags().IntP("lines", "n", 0, "Number of lines to show")
}

func requireRoot(action string) error {
	if geteuid() != 0 {
		return fmt.Errorf("service %s requires root privileges (run with sudo)", action)
	}
	return nil
}

// createSystemdUnit writes the systemd unit file
func createSystemdUnit(c *config.Config, configPath, user, binary string) error {
	unitContent := fmt.Sprintf(`[Unit]
Description=ceos leader file API server
After=network-online.target
Wants=network-online.target

[Service]
User=%s
Group=%s
ExecStart=%s serve --config %s
Restart=on-failure
NoNewPrivileges=true
UMask=0077
ReadWritePaths=%s
ReadWritePaths=%s

[Install]
WantedBy=multi-user.target
`, user, user, binary, configPath, c.DataDir, filepath.Dir(configPath))

	return os.WriteFile(systemdUnitPath, []byte(unitContent), 0600)
}

func systemctl(cmd *cobra.Command, args ...string) error {
	if err := runCommand(cmd, "systemctl", args...); err != nil {
		return fmt.Errorf("systemctl %s failed: %w", args[0], err)
	}
	return nil
}

// execCommand runs a system command with its output sent to cmd
func execCommand(cmd *cobra.Command, name string, args ...string) error {
	c := exec.Command(name, args...)
	c.Stdout = cmd.OutOrStdout()
	c.Stderr = cmd.ErrOrStderr()
	return c.Run()
}
