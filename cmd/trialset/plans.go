package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Manage stored plans",
}

var plansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored plan IDs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("dir")
		session, err := openSession(cmd, path)
		if err != nil {
			return err
		}
		defer session.Close()

		ids, err := session.Engine.Store().List(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var plansShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("dir")
		session, err := openSession(cmd, path)
		if err != nil {
			return err
		}
		defer session.Close()

		plan, err := session.Engine.Store().Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		jsonMode, _ := cmd.Flags().GetBool("json")
		return printPlan(cmd, plan, jsonMode)
	},
}

var plansReplayCmd = &cobra.Command{
	Use:   "replay <id>",
	Short: "Check a stored plan is still reproduced by its seed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("dir")
		session, err := openSession(cmd, path)
		if err != nil {
			return err
		}
		defer session.Close()

		plan, err := session.Engine.Replay(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Plan %s reproduced from seed %d ✅\n", plan.ID, plan.Seed)
		return nil
	},
}

var plansDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("dir")
		session, err := openSession(cmd, path)
		if err != nil {
			return err
		}
		defer session.Close()

		return session.Engine.Store().Delete(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(plansCmd)
	plansCmd.AddCommand(plansListCmd, plansShowCmd, plansReplayCmd, plansDeleteCmd)

	plansShowCmd.Flags().Bool("json", false, "Print the plan as JSON")
}
