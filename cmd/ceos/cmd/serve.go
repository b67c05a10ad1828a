/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/ceoskit/pkg/api"
	"github.com/ssargent/ceoskit/pkg/config"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the ceos REST API server over the archive in the data directory.

On first run a configuration file with a generated API key is created. The
API key is sent in the X-API-Key header; /metrics is served without it.

Examples:
  ceos serve
  ceos serve --port 9000 --bind 0.0.0.0
  ceos serve --config ./ceos.yaml --print-key`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		printKey, _ := cmd.Flags().GetBool("print-key")

		serveCfg, err := bootstrapIfMissing(cmd, configPath)
		if err != nil {
			return err
		}
		applyServeFlags(cmd, serveCfg)
		if printKey {
			cmd.Printf("API key: %s\n", serveCfg.Security.APIKey)
		}
		if serveCfg.Security.APIKey == "" || serveCfg.Security.APIKey == "auto" {
			return fmt.Errorf("no API key configured (run 'ceos init' first)")
		}
		cfg = serveCfg

		c, err := getContainer()
		if err != nil {
			return err
		}
		archive, err := openArchive()
		if err != nil {
			return err
		}
		defer archive.Close()

		ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cmd.Printf("Starting ceos server on %s:%d\n", cfg.Bind, cfg.Port)
		cmd.Printf("Data directory: %s\n", cfg.DataDir)

		return c.GetServerFactory().CreateServerStarter().StartServer(ctx, archive, api.ServerConfig{
			Bind:          cfg.Bind,
			Port:          cfg.Port,
			APIKey:        cfg.Security.APIKey,
			Mode:          cfg.Mode(),
			MaxRecordSize: cfg.Decode.MaxRecordSize,
			Catalog:       catalog,
			Logger:        logger,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("data-dir", "d", "", "Data directory (overrides the config file)")
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides the config file)")
	serveCmd.Flags().String("bind", "", "Address to bind server to (overrides the config file)")
	serveCmd.Flags().Bool("print-key", false, "Print the API key to the console")
}

// bootstrapIfMissing returns the loaded configuration, first creating the
// config file with a generated API key when it does not exist
func bootstrapIfMissing(cmd *cobra.Command, configPath string) (*config.Config, error) {
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}
	if config.ConfigExists(configPath) {
		return cfg, nil
	}

	dataDir, _ := cmd.Flags().GetString("data-dir")
	cmd.Printf("First run detected. Creating configuration at %s\n", configPath)
	created, err := config.BootstrapConfig(configPath, dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to bootstrap config: %w", err)
	}
	// keep flag overrides from the root command
	created.Decode.Strict = cfg.Decode.Strict
	created.Logging = cfg.Logging
	return created, nil
}

func applyServeFlags(cmd *cobra.Command, c *config.Config) {
	if cmd.Flags().Changed("data-dir") {
		c.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
	if cmd.Flags().Changed("port") {
		c.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("bind") {
		c.Bind, _ = cmd.Flags().GetString("bind")
	}
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
