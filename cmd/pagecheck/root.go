package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/pagecheck/internal/api"
	"github.com/jackzampolin/pagecheck/internal/config"
	"github.com/jackzampolin/pagecheck/internal/console"
	"github.com/jackzampolin/pagecheck/internal/home"
	"github.com/jackzampolin/pagecheck/version"
)

var (
	cfgFile      string
	rootDir      string
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "pagecheck",
	Short: "Audit digitized document outputs and re-render the ones that failed",
	Long: `Pagecheck inspects the structured-data files and page images produced by a
document-digitization run, flags outputs that look incomplete or malformed,
and re-renders the affected source PDFs at high resolution for a second pass.

The pipeline hands off through files:
  - audit:      output dir      -> debug report
  - rerun-list: debug report    -> rerun list
  - render:     rerun list      -> <base>_page_<n>.png at 600 DPI`,
	Version:      version.GitRelease,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return api.SetOutputFormat(outputFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./pagecheck.yaml or ~/.pagecheck/pagecheck.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&rootDir, "root", "", "workspace root for relative paths (overrides paths.root)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "text", "output format: text, json or yaml",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "info", "log level: debug, info, warn or error",
	)

	rootCmd.AddCommand(versionCmd)
}

// runEnv is the loaded state shared by the pipeline commands.
type runEnv struct {
	mgr *config.Manager
	cfg *config.Config
	dir *home.Dir
	log *slog.Logger
	out *console.Printer
}

// setup loads and validates configuration and builds the logger and console
// for a pipeline command.
func setup(cmd *cobra.Command) (*runEnv, error) {
	log, err := newLogger(cmd.ErrOrStderr(), logLevel)
	if err != nil {
		return nil, err
	}

	mgr, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, err
	}
	c := *mgr.Get()
	cfg := &c
	if rootDir != "" {
		cfg.Paths.Root = rootDir
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}

	dir, err := home.New(cfg.Paths)
	if err != nil {
		return nil, err
	}

	if f := mgr.ConfigFile(); f != "" {
		log.Debug("loaded config", "file", f)
	}
	log.Debug("workspace", "root", dir.Path())

	return &runEnv{
		mgr: mgr,
		cfg: cfg,
		dir: dir,
		log: log,
		out: console.New(consoleWriter(cmd)),
	}, nil
}

// newLogger builds a text logger tagged with a fresh run id.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler).With("run_id", uuid.NewString()), nil
}

// consoleWriter keeps stdout parseable when a structured format is selected.
func consoleWriter(cmd *cobra.Command) io.Writer {
	if api.IsStructuredOutput() {
		return cmd.ErrOrStderr()
	}
	return cmd.OutOrStdout()
}
