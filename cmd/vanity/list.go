package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/vanity/pkg/domain"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [experiments|metrics]",
	Short: "List loaded definitions",
	Long:  `Loads the definition files and lists experiments, metrics, or both.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		families := domain.Families
		if len(args) == 1 {
			f, ok := domain.ParseFamily(args[0])
			if !ok {
				return fmt.Errorf("unknown family %q, expected experiments or metrics", args[0])
			}
			families = []domain.Family{f}
		}

		p, err := newPlayground(cmd)
		if err != nil {
			return err
		}
		defer p.Close()

		ctx := cmd.Context()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		defer w.Flush()

		for _, f := range families {
			switch f {
			case domain.FamilyExperiments:
				experiments, err := p.Experiments(ctx)
				if err != nil {
					return err
				}
				for _, e := range experiments {
					fmt.Fprintf(w, "experiment\t%s\t%s\t%s\n", e.ID(), e.Type(), strings.Join(e.Alternatives(), ","))
				}
			case domain.FamilyMetrics:
				metrics, err := p.Metrics(ctx)
				if err != nil {
					return err
				}
				for _, m := range metrics {
					fmt.Fprintf(w, "metric\t%s\t%s\t\n", m.ID(), m.Name())
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
