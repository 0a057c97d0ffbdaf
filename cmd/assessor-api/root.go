package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "assessor-api",
	Short: "Crypto assessment record service",
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(runCmd)
}
