package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/hud203/leadengine/internal/config"
)

// Cfg holds the loaded configuration, accessible to all cobra commands.
var Cfg *config.Config

// RootCmd is the base command for the CLI application. The run-server,
// migrate, stats and score commands register themselves as subcommands.
var RootCmd = &cobra.Command{
	Use:   "leadengine",
	Short: "Lead capture and attribution service",
	Long: `Lead capture and attribution service for the HUD203 education site.
It captures visitor leads, forwards them to the CRM, tracks acquisition
attribution per visitor and fans analytics events out to configured sinks.`,
}

// Execute is the entry point called from main. It runs the selected command
// and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Configuration is loaded before any command body runs. Commands
	// register themselves via their own init functions, which keeps the
	// root package free of import cycles.
	cobra.OnInitialize(initConfig)
}

// initConfig loads the application configuration for every command.
func initConfig() {
	var err error
	Cfg, err = config.LoadConfig()
	if err != nil {
		log.Printf("Warning: problem loading configuration: %v. Using default values.", err)
	}
}
