package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "giftbuilder",
	Short: "Gift bundle builder service",
	Long: `giftbuilder hosts one gift bundle session per shopper.

A session walks through choosing a box, adding products up to the box
capacity, reviewing the tiered discount and handing the bundle to the cart.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, simulateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
