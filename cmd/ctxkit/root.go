package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "ctxkit",
	Short: "Typed baggage propagation toolkit.",
	Long: `ctxkit carries a typed baggage through call chains and worker pools,
and surfaces it to logs, traces and metrics according to each key's access policy.`,
	PersistentPreRun: func(*cobra.Command, []string) {
		// .env is optional
		_ = godotenv.Load()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".", "config file or directory holding config.yaml")

	rootCmd.AddCommand(newRunCommand())
}
