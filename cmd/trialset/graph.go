package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/trialset"
	"github.com/aretw0/trialset/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [path]",
	Short: "Export the sequencing expression as a diagram",
	Long: `Outputs a Mermaid diagram (graph TD) of the sequencing expression. With
--seed, the groups presented by the plan drawn with that seed are highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := openSession(cmd, sourcePath(cmd, args))
		if err != nil {
			return err
		}
		defer session.Close()

		ctx := cmd.Context()
		exp, err := session.Engine.Experiment(ctx)
		if err != nil {
			return err
		}
		expr, err := session.Engine.Sequence(ctx)
		if err != nil {
			return err
		}

		sizes := make(map[string]int)
		for label, items := range exp.GroupItems() {
			sizes[label] = len(items)
		}

		var overlay *graph.PlanOverlay
		if cmd.Flags().Changed("seed") {
			seed, _ := cmd.Flags().GetUint64("seed")
			plan, err := session.Engine.Plan(ctx, trialset.PlanOptions{Seed: &seed})
			if err != nil {
				return err
			}
			overlay = &graph.PlanOverlay{Counts: plan.GroupCounts()}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(expr, sizes, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().Uint64("seed", 0, "Highlight the groups of the plan drawn with this seed")
}
