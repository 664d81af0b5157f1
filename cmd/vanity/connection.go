package main

import (
	"fmt"

	"github.com/aretw0/vanity/pkg/connection"
	"github.com/spf13/cobra"
)

var connectionCmd = &cobra.Command{
	Use:   "connection",
	Short: "Show the store connection the configuration resolves to",
	Long:  `Resolves the connection specification, establishes it, and reports whether the store is reachable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPlayground(cmd)
		if err != nil {
			return err
		}
		defer p.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "environment: %s\n", p.Settings.Environment())
		fmt.Fprintf(out, "adapters: %v\n", connection.Adapters())

		if _, err := p.Connection.Connection(cmd.Context()); err != nil {
			return err
		}
		if spec, ok := p.Connection.Spec(); ok {
			fmt.Fprintf(out, "connection: %s\n", spec)
		}
		fmt.Fprintf(out, "connected: %t\n", p.Connected())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(connectionCmd)
}
