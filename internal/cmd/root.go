// Package cmd wires the pulse CLI.
package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/runner-pulse/pulse/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Runner provisioning watcher",
	Long: `Pulse follows a runner-provisioning pipeline over a websocket feed,
turning its raw lifecycle events into a live stage-by-stage view and a
single final outcome. It also ships a small simulator server for local
development.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file")
}

// loadConfig returns the defaults when no file was given.
func loadConfig() *config.Config {
	if cfgFile == "" {
		return config.Default()
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}
