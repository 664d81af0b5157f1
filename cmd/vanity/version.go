package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/vanity"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of vanity",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "vanity version %s\n", strings.TrimSpace(vanity.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
