package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/learnify/learnify-hub/config"
	"github.com/learnify/learnify-hub/internal/domain/tier"
	"github.com/learnify/learnify-hub/internal/interface/http/handlers"
)

func newHashKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key <api-key>",
		Short: "Print the bcrypt hash to put in API_KEY_HASHES",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := handlers.HashKey(args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newTiersCmd(envFile *string) *cobra.Command {
	var (
		file   string
		asYAML bool
	)

	cmd := &cobra.Command{
		Use:   "tiers",
		Short: "Validate and print the tier ladder",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				cfg, err := config.Load(*envFile)
				if err != nil {
					return err
				}
				file = cfg.Streak.TiersFile
			}

			ladder, err := config.LoadTierLadder(file)
			if err != nil {
				return err
			}

			if asYAML {
				data, err := config.MarshalTierLadder(ladder)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return printLadder(cmd.OutOrStdout(), ladder)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "tier ladder YAML (default: TIERS_FILE or the built-in ladder)")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print the ladder as YAML")
	return cmd
}

func printLadder(out io.Writer, ladder *tier.Ladder) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIER\tTOKENS\tACTIVE DAYS")
	for _, t := range ladder.Tiers() {
		days := (t.Threshold + tier.DefaultTokensPerDay - 1) / tier.DefaultTokensPerDay
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\n", strings.TrimSpace(t.Name), t.Threshold, days)
	}
	return tw.Flush()
}
