package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/pagecheck/internal/api"
	"github.com/jackzampolin/pagecheck/internal/rerun"
)

var rerunCmd = &cobra.Command{
	Use:   "rerun-list",
	Short: "Build the rerun list from the debug report",
	Long: `Read the debug report written by 'audit' and write every flagged file
identifier once, one per line, to the rerun list. The list is overwritten.

A missing or malformed report is reported and the command exits non-zero
without touching the existing list.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}

		result, err := runRerunList(env)
		if err != nil {
			return err
		}
		return api.Output(cmd.OutOrStdout(), result)
	},
}

// runRerunList builds the rerun list and prints the outcome.
func runRerunList(env *runEnv) (*rerun.Result, error) {
	result, err := rerun.Build(rerun.Request{
		ReportPath: env.dir.ReportPath(),
		ListPath:   env.dir.RerunListPath(),
		Logger:     env.log,
	})
	if err != nil {
		env.out.Error("Rerun list not written: %v", err)
		return nil, err
	}

	env.out.Success("Rerun list written to %s (%d files)", result.ListPath, len(result.Files))
	return result, nil
}

func init() {
	rootCmd.AddCommand(rerunCmd)
}
