package main

import (
	"fmt"

	"github.com/aretw0/vanity/pkg/identity"
	"github.com/spf13/cobra"
)

var trackCmd = &cobra.Command{
	Use:   "track <metric>",
	Short: "Record an observation on a metric",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, _ := cmd.Flags().GetInt("amount")
		who, _ := cmd.Flags().GetString("identity")

		p, err := newPlayground(cmd)
		if err != nil {
			return err
		}
		defer p.Close()

		ctx := cmd.Context()
		if who != "" {
			ctx = identity.WithIdentity(ctx, identity.ID(who))
		}
		if err := p.Track(ctx, args[0], amount); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "tracked %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trackCmd)
	trackCmd.Flags().IntP("amount", "n", 1, "Number of occurrences")
	trackCmd.Flags().String("identity", "", "Identity the observation belongs to")
}
