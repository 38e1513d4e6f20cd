package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/trialset/internal/cli"
	"github.com/aretw0/trialset/pkg/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check the experiment for consistency",
	Long: `Reports every problem at once: malformed or unknown sequence references,
groups the sequence never presents, duplicate items, mistyped options and
form validators that do not compile.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := openSession(cmd, sourcePath(cmd, args))
		if err != nil {
			return err
		}
		defer session.Close()

		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			sc := cli.NewSignalContext(cmd.Context())
			defer sc.Cancel()
			return cli.RunWatch(sc, session.Engine, cmd.OutOrStdout(), session.Logger, 200*time.Millisecond)
		}

		err = session.Engine.Validate(cmd.Context())
		if err == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Experiment is valid! ✅")
			return nil
		}
		problems := schema.ValidationErrors(err)
		if len(problems) == 0 {
			return err
		}
		for _, p := range problems {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %v\n", p)
		}
		return fmt.Errorf("validation failed: %d problem(s)", len(problems))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Bool("strict", false, "Also reject unknown presentation types")
	validateCmd.Flags().Bool("watch", false, "Validate again whenever a directory source changes")
}
