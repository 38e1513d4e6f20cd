package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/trialset"
	"github.com/aretw0/trialset/internal/presentation/tui"
	"github.com/aretw0/trialset/pkg/domain"
)

var planCmd = &cobra.Command{
	Use:   "plan [path]",
	Short: "Draw one presentation order",
	Long: `Evaluates the sequencing expression and prints the resulting trial order.
The seed is always reported; pass it back with --seed to reproduce the order.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := openSession(cmd, sourcePath(cmd, args))
		if err != nil {
			return err
		}
		defer session.Close()

		opts := trialset.PlanOptions{}
		opts.Save, _ = cmd.Flags().GetBool("save")
		if cmd.Flags().Changed("seed") {
			seed, _ := cmd.Flags().GetUint64("seed")
			opts.Seed = &seed
		}

		plan, err := session.Engine.Plan(cmd.Context(), opts)
		if err != nil {
			return err
		}
		jsonMode, _ := cmd.Flags().GetBool("json")
		return printPlan(cmd, plan, jsonMode)
	},
}

func printPlan(cmd *cobra.Command, plan *domain.Plan, jsonMode bool) error {
	out := cmd.OutOrStdout()
	if jsonMode {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}

	rendered, err := tui.NewRenderer()(tui.PlanMarkdown(plan))
	if err != nil {
		return err
	}
	fmt.Fprint(out, rendered)
	return nil
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().Uint64("seed", 0, "Seed for the random draws (default: a fresh one)")
	planCmd.Flags().Bool("json", false, "Print the plan as JSON")
	planCmd.Flags().Bool("save", false, "Store the plan for later replay")
}
