package main

import (
	"fmt"

	"github.com/aretw0/vanity/pkg/domain"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the definition files for consistency",
	Long:  `Loads every experiment and metric and reports duplicates, circular requires, unknown metrics and malformed files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPlayground(cmd)
		if err != nil {
			return err
		}
		defer p.Close()

		if err := p.Load(cmd.Context()); err != nil {
			return fmt.Errorf("check failed: %w", err)
		}

		all := 0
		for _, f := range domain.Families {
			defs, err := p.Registry.All(cmd.Context(), f)
			if err != nil {
				return err
			}
			all += len(defs)
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", len(defs), f)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d definitions are valid\n", all)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
