package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/trialset/pkg/schema"
)

var checkCmd = &cobra.Command{
	Use:   "check <group> <field> <input>",
	Short: "Run a form field validator against an input",
	Long:  `Prints "ok" when the input is accepted, or the message a participant would see.`,
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("dir")
		session, err := openSession(cmd, path)
		if err != nil {
			return err
		}
		defer session.Close()

		err = session.Engine.CheckField(cmd.Context(), args[0], args[1], args[2])
		var fe *schema.FieldError
		switch {
		case err == nil:
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		case errors.As(err, &fe):
			fmt.Fprintln(cmd.OutOrStdout(), fe.Message)
			return fmt.Errorf("input rejected")
		default:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
