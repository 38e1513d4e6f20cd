package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/trialset/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "trialset",
	Short: "Trialset plans presentation orders for judgment experiments",
	Long: `Trialset loads a stimulus set (YAML, JSON, HCL or a directory of markdown
documents), validates it and draws reproducible trial orders from its
sequencing expression.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Experiment file or directory")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (default from TRIALSET_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("store", "", "Plan store: memory, file, redis or sqlite (default from TRIALSET_STORE)")
}

// sourcePath returns --dir, or the first positional argument when --dir was not given.
func sourcePath(cmd *cobra.Command, args []string) string {
	path, _ := cmd.Flags().GetString("dir")
	if !cmd.Flags().Changed("dir") && len(args) > 0 {
		path = args[0]
	}
	return path
}

func openSession(cmd *cobra.Command, path string) (*cli.Session, error) {
	level, _ := cmd.Flags().GetString("log-level")
	store, _ := cmd.Flags().GetString("store")
	strict, _ := cmd.Flags().GetBool("strict")
	return cli.NewSession(cli.Options{
		Path:     path,
		LogLevel: level,
		Store:    store,
		Strict:   strict,
	})
}
