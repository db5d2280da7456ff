package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pders01/newsmap/internal/config"
	"github.com/pders01/newsmap/internal/validation"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("newsmap %s\n", Version)
		fmt.Println("GDELT news on a terminal map")
		fmt.Println("github.com/pders01/newsmap")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default configuration to ~/.config/newsmap/config.toml",
	Run: func(cmd *cobra.Command, args []string) {
		configFile, err := validation.NewSecurePathHandler().GetSecureConfigPath("")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to resolve config path: %v\n", err)
			os.Exit(1)
		}

		if err := config.GenerateDefaultConfig(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default configuration at: %s\n", configFile)
	},
}
