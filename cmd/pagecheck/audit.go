package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pagecheck/internal/api"
	"github.com/jackzampolin/pagecheck/internal/audit"
	"github.com/jackzampolin/pagecheck/internal/config"
)

var (
	auditWatch    bool
	auditDebounce time.Duration
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the output directory and write the debug report",
	Long: `Inspect every <root>.pdf.jsonld file in the output directory together with
its page images and write a JSON report of the documents that look wrong:

  - @graph is empty
  - No corresponding PNG files found
  - Invalid sources per page (outside audit.min/max_sources_per_page)
  - Failed to open/parse

The report is overwritten on every run.

Examples:
  pagecheck audit                  # Audit ./output into ./debug/RDFS1
  pagecheck audit --root /data     # Resolve paths against /data
  pagecheck audit --watch          # Re-run whenever the output directory changes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := setup(cmd)
		if err != nil {
			return err
		}

		result, err := runAudit(ctx, env)
		if err != nil {
			return err
		}
		if err := api.Output(cmd.OutOrStdout(), result); err != nil {
			return err
		}
		if !auditWatch {
			return nil
		}

		w, err := audit.NewWatcher(env.dir.OutputDir(), auditDebounce, env.log)
		if err != nil {
			return err
		}
		if env.mgr.ConfigFile() != "" {
			env.mgr.OnChange(func(c *config.Config) {
				env.log.Info("config reloaded", "min_sources_per_page", c.Audit.MinSourcesPerPage,
					"max_sources_per_page", c.Audit.MaxSourcesPerPage)
			})
			env.mgr.WatchConfig()
		}
		return w.Run(ctx, func(ctx context.Context) error {
			// Thresholds follow config file edits; paths stay fixed for the watch.
			env.cfg.Audit = env.mgr.Get().Audit
			result, err := runAudit(ctx, env)
			if err != nil {
				return err
			}
			return api.Output(cmd.OutOrStdout(), result)
		})
	},
}

// runAudit audits the configured output directory and prints the completion line.
func runAudit(ctx context.Context, env *runEnv) (*audit.Result, error) {
	a := audit.New(audit.Config{
		OutputDir:         env.dir.OutputDir(),
		MinSourcesPerPage: env.cfg.Audit.MinSourcesPerPage,
		MaxSourcesPerPage: env.cfg.Audit.MaxSourcesPerPage,
		Logger:            env.log,
	})

	result, err := a.Run(ctx, env.dir.ReportPath())
	if err != nil {
		return nil, err
	}

	env.log.Info("audit complete", "documents", result.Documents, "flagged", len(result.Entries))
	env.out.Success("Analysis complete. Debug information written to %s", result.ReportPath)
	return result, nil
}

func init() {
	auditCmd.Flags().BoolVar(&auditWatch, "watch", false, "Re-run the audit when the output directory changes")
	auditCmd.Flags().DurationVar(&auditDebounce, "debounce", audit.DefaultDebounce, "Quiet period before a watched re-run")

	rootCmd.AddCommand(auditCmd)
}
