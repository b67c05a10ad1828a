package cmd

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/ceoskit/pkg/config"
)

// fakeSystem replaces the root check, the unit path and command execution
type fakeSystem struct {
	commands []string
	fail     map[string]error
}

func installFakeSystem(t *testing.T, env *testEnv, euid int) *fakeSystem {
	t.Helper()
	fs := &fakeSystem{fail: make(map[string]error)}

	oldPath, oldEuid, oldRun := systemdUnitPath, geteuid, runCommand
	t.Cleanup(func() {
		systemdUnitPath, geteuid, runCommand = oldPath, oldEuid, oldRun
	})

	systemdUnitPath = env.path("ceos.service")
	geteuid = func() int { return euid }
	runCommand = func(_ *cobra.Command, name string, args ...string) error {
		line := strings.TrimSpace(name + " " + strings.Join(args, " "))
		fs.commands = append(fs.commands, line)
		return fs.fail[line]
	}
	return fs
}

func TestServiceInstall(t *testing.T) {
	t.Run("requires root", func(t *testing.T) {
		env := newTestEnv(t)
		installFakeSystem(t, env, 1000)

		_, err := env.run(t, "service", "install")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires root")
	})

	t.Run("writes unit and enables service", func(t *testing.T) {
		env := newTestEnv(t)
		fs := installFakeSystem(t, env, 0)
		dataDir := env.path("svc-data")

		out, err := env.run(t, "service", "install", "--user", "sar", "--data-dir", dataDir, "--port", "9100", "--start=false")
		require.NoError(t, err)
		assert.Contains(t, out, "Service enabled")
		assert.Contains(t, out, "sudo systemctl start ceos.service")
		assert.Equal(t, []string{"systemctl daemon-reload", "systemctl enable ceos.service"}, fs.commands)

		unit, err := os.ReadFile(systemdUnitPath)
		require.NoError(t, err)
		assert.Contains(t, string(unit), "User=sar")
		assert.Contains(t, string(unit), "ExecStart=/usr/local/bin/ceos serve --config "+env.configPath)
		assert.Contains(t, string(unit), "ReadWritePaths="+dataDir)

		saved, err := config.LoadConfig(env.configPath)
		require.NoError(t, err)
		assert.Equal(t, dataDir, saved.DataDir)
		assert.Equal(t, 9100, saved.Port)
		assert.Equal(t, "test-key", saved.Security.APIKey)
	})

	t.Run("bootstraps missing config and starts", func(t *testing.T) {
		env := newTestEnv(t)
		fs := installFakeSystem(t, env, 0)
		configPath := env.path("etc/ceos.yaml")

		out, err := env.run(t, "service", "install", "--config", configPath, "--data-dir", env.path("d"))
		require.NoError(t, err)
		assert.Contains(t, out, "Created new configuration")
		assert.Contains(t, out, "Service started")
		assert.Contains(t, fs.commands, "systemctl start ceos.service")

		created, err := config.LoadConfig(configPath)
		require.NoError(t, err)
		assert.NotEmpty(t, created.Security.APIKey)
	})

	t.Run("systemctl failure", func(t *testing.T) {
		env := newTestEnv(t)
		fs := installFakeSystem(t, env, 0)
		fs.fail["systemctl enable ceos.service"] = errors.New("exit status 1")

		_, err := env.run(t, "service", "install", "--start=false")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "systemctl enable failed")
	})
}

func TestServiceControl(t *testing.T) {
	env := newTestEnv(t)

	for _, action := range []string{"start", "stop", "restart", "status"} {
		t.Run(action, func(t *testing.T) {
			fs := installFakeSystem(t, env, 1000)
			_, err := env.run(t, "service", action)
			require.NoError(t, err)
			assert.Equal(t, []string{"systemctl " + action + " ceos.service"}, fs.commands)
		})
	}

	t.Run("logs", func(t *testing.T) {
		fs := installFakeSystem(t, env, 1000)
		_, err := env.run(t, "service", "logs", "-f", "-n", "50")
		require.NoError(t, err)
		assert.Equal(t, []string{"journalctl -u ceos.service -f -n50"}, fs.commands)
	})

	t.Run("uninstall removes unit", func(t *testing.T) {
		fs := installFakeSystem(t, env, 0)
		require.NoError(t, os.WriteFile(systemdUnitPath, []byte("[Unit]\n"), 0600))

		out, err := env.run(t, "service", "uninstall")
		require.NoError(t, err)
		assert.Contains(t, out, "uninstalled")
		assert.NoFileExists(t, systemdUnitPath)
		assert.Equal(t, []string{
			"systemctl stop ceos.service",
			"systemctl disable ceos.service",
			"systemctl daemon-reload",
		}, fs.commands)
	})
}
