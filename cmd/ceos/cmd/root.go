/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ssargent/ceoskit/pkg/config"
	"github.com/ssargent/ceoskit/pkg/di"
	"github.com/ssargent/ceoskit/pkg/leader"
	"github.com/ssargent/ceoskit/pkg/leaderfile"
	"github.com/ssargent/ceoskit/pkg/logging"
	"github.com/ssargent/ceoskit/pkg/source"
)

var (
	container *di.Container
	cfg       *config.Config
	logger    *logrus.Logger
	catalog   = leader.RadarsatCatalog()
)

// SetContainer injects the dependency container
func SetContainer(c *di.Container) {
	container = c
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ceos",
	Short: "ceos - CEOS leader file toolkit",
	Long: `ceos reads, validates, rewrites and archives satellite leader files
made of fixed-width ASCII and binary records.

Locations may be local paths or s3://bucket/key when S3 is enabled in the
configuration file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		lenient, _ := cmd.Flags().GetBool("lenient")
		logLevel, _ := cmd.Flags().GetString("log-level")

		loaded, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		if lenient {
			loaded.Decode.Strict = false
		}
		if logLevel != "" {
			loaded.Logging.Level = logLevel
		}

		log, err := logging.New(loaded.Logging)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		cfg, logger = loaded, log
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: ~/.config/ceos/config.yaml)")
	rootCmd.PersistentFlags().Bool("lenient", false, "Accept malformed numeric fields with legacy conversion")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
}

// loadConfig reads the config file, or returns defaults when it does not
// exist yet
func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}
	if !config.ConfigExists(configPath) {
		return config.DefaultConfig(), nil
	}
	return config.LoadConfig(configPath)
}

func getContainer() (*di.Container, error) {
	if container == nil {
		return nil, fmt.Errorf("dependency container not initialized")
	}
	return container, nil
}

func getOpener() (*source.Opener, error) {
	c, err := getContainer()
	if err != nil {
		return nil, err
	}
	return c.GetOpener(cfg)
}

// readerConfig returns the reader settings selected by the config and flags
func readerConfig() leaderfile.ReaderConfig {
	return leaderfile.ReaderConfig{
		Catalog:       catalog,
		Mode:          cfg.Mode(),
		MaxRecordSize: cfg.Decode.MaxRecordSize,
		Logger:        logger,
	}
}
