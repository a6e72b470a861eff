package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/pagecheck/internal/api"
	"github.com/jackzampolin/pagecheck/internal/audit"
	"github.com/jackzampolin/pagecheck/internal/render"
	"github.com/jackzampolin/pagecheck/internal/rerun"
)

var runWithRender bool

// pipelineResult collects the stage results of a run.
type pipelineResult struct {
	Audit  *audit.Result  `json:"audit" yaml:"audit"`
	Rerun  *rerun.Result  `json:"rerun" yaml:"rerun"`
	Render *render.Result `json:"render,omitempty" yaml:"render,omitempty"`
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run audit and rerun-list, optionally followed by render",
	Long: `Run the pipeline stages in order. Each stage still reads the file the
previous one wrote, so any stage can be re-run on its own afterwards.

A failed rerun-list build stops the pipeline before rendering.

Examples:
  pagecheck run                    # audit -> rerun-list
  pagecheck run --render           # audit -> rerun-list -> render`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := setup(cmd)
		if err != nil {
			return err
		}

		var result pipelineResult
		if result.Audit, err = runAudit(ctx, env); err != nil {
			return err
		}
		if result.Rerun, err = runRerunList(env); err != nil {
			return err
		}
		if runWithRender {
			if result.Render, err = runRender(ctx, env, progressWriter(cmd)); err != nil {
				return err
			}
		}

		return api.Output(cmd.OutOrStdout(), result)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runWithRender, "render", false, "Re-render the rerun list after building it")
	runCmd.Flags().BoolVar(&renderProgress, "progress", false, "Show a progress bar per document on stderr")

	rootCmd.AddCommand(runCmd)
}
