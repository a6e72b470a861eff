package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/pagecheck/internal/api"
	"github.com/jackzampolin/pagecheck/internal/render"
)

var renderProgress bool

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Re-render the PDFs named in the rerun list at high resolution",
	Long: `Read the rerun list and rasterize every page of each named source PDF at
render.zoom x 72 DPI (600 DPI by default) into the render directory as
<base>_page_<n>.png. Entries are file names inside the input directory;
entries without a source PDF are reported and skipped. Set
render.strip_jsonld to look up <root>.pdf for a <root>.pdf.jsonld entry.

Rasterizing uses pdftoppm (poppler-utils), configurable with render.pdftoppm.

Examples:
  pagecheck render                 # FinPapers/*.pdf -> output2/
  pagecheck render --progress      # Show a per-document progress bar`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}

		result, err := runRender(cmd.Context(), env, progressWriter(cmd))
		if err != nil {
			return err
		}
		return api.Output(cmd.OutOrStdout(), result)
	},
}

// runRender re-renders every PDF named in the rerun list.
func runRender(ctx context.Context, env *runEnv, progress io.Writer) (*render.Result, error) {
	return render.Render(ctx, render.Request{
		ListPath:    env.dir.RerunListPath(),
		InputDir:    env.dir.InputDir(),
		OutputDir:   env.dir.RenderDir(),
		DPI:         env.cfg.Render.DPI(),
		Rasterizer:  render.Pdftoppm{Binary: env.cfg.Render.Pdftoppm},
		StripJSONLD: env.cfg.Render.StripJSONLD,
		Console:     env.out,
		Progress:    progress,
		Logger:      env.log,
	})
}

// progressWriter returns stderr when --progress is set, nil otherwise.
func progressWriter(cmd *cobra.Command) io.Writer {
	if !renderProgress {
		return nil
	}
	return cmd.ErrOrStderr()
}

func init() {
	renderCmd.Flags().BoolVar(&renderProgress, "progress", false, "Show a progress bar per document on stderr")

	rootCmd.AddCommand(renderCmd)
}
