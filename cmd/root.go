package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dagpay",
	Short: "Dagpay merchant service",
	Long:  "A Dagpay merchant integration: signed invoice creation, verified status callbacks, and invoice reconcile jobs.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
