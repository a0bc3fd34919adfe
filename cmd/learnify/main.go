// Package main is the entry point of the Learnify streak service.
//
// The service keeps each learner's daily activity log, derives streaks and
// LEARNY token tiers from it, runs the midnight rollover (streak freeze or
// streak break) and polls spot prices for the dashboard.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "learnify",
		Short:         "Learnify streak and tier engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(newServeCmd(&envFile))
	root.AddCommand(newMigrateCmd(&envFile))
	root.AddCommand(newHashKeyCmd())
	root.AddCommand(newTiersCmd(&envFile))
	return root
}
