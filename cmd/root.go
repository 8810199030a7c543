/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "careertrojan-bridge",
	Short: "Cross-portal event synchronization and notification bridge",
	Long: `careertrojan-bridge propagates state changes between the Admin and
User portals through a durable sync-event log, an in-process dispatch
queue and per-portal notifications.

Run "careertrojan-bridge server" to start the bridge with its HTTP API.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
}
