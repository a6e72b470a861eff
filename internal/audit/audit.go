// Package audit inspects generated structured-data files and their page images
// and reports documents that look incomplete or malformed.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Diagnosis vocabulary. Parse failures append ": <error>" to StatusParseFailure.
const (
	StatusGraphEmpty     = "@graph is empty"
	StatusNoPageImages   = "No corresponding PNG files found"
	StatusInvalidSources = "Invalid sources per page"
	StatusParseFailure   = "Failed to open/parse"
)

// Entry is one line of the debug report.
// Pages, Sources and SourcesPerPage are set only for invalid-sources entries;
// Error only for parse failures.
type Entry struct {
	File           string   `json:"file"`
	Status         string   `json:"status"`
	Pages          *int     `json:"pages,omitempty"`
	Sources        *int     `json:"sources,omitempty"`
	SourcesPerPage *float64 `json:"sources_per_page,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// Config configures an Auditor.
type Config struct {
	OutputDir         string
	MinSourcesPerPage float64
	MaxSourcesPerPage float64
	Logger            *slog.Logger // Optional logger for progress updates
}

// Auditor applies the per-document checks to an output directory.
type Auditor struct {
	dir      string
	minRatio float64
	maxRatio float64
	log      *slog.Logger
}

// Result summarizes one audit run.
type Result struct {
	OutputDir  string  `json:"output_dir" yaml:"output_dir"`
	ReportPath string  `json:"report_path" yaml:"report_path"`
	Documents  int     `json:"documents" yaml:"documents"`
	Entries    []Entry `json:"entries" yaml:"entries"`
}

// New creates an Auditor.
func New(cfg Config) *Auditor {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Auditor{
		dir:      cfg.OutputDir,
		minRatio: cfg.MinSourcesPerPage,
		maxRatio: cfg.MaxSourcesPerPage,
		log:      log,
	}
}

// Analyze inspects every structured-data file in the output directory and
// returns at most one entry per file, in directory order.
func (a *Auditor) Analyze(ctx context.Context) (int, []Entry, error) {
	docs, err := Discover(a.dir)
	if err != nil {
		return 0, nil, err
	}
	a.log.Info("starting audit", "dir", a.dir, "documents", len(docs))

	entries := make([]Entry, 0)
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return 0, nil, err
		}

		found := a.Inspect(doc)
		if len(found) == 0 {
			a.log.Debug("document ok", "file", doc.File, "pages", len(doc.PageImages))
			continue
		}
		// First diagnosis wins.
		entries = append(entries, found[0])
		for _, extra := range found[1:] {
			a.log.Debug("suppressed diagnosis", "file", doc.File, "status", extra.Status)
		}
		a.log.Debug("document flagged", "file", doc.File, "status", found[0].Status)
	}

	a.log.Info("audit complete", "documents", len(docs), "flagged", len(entries))
	return len(docs), entries, nil
}

// Run analyzes the output directory and overwrites the report at reportPath.
func (a *Auditor) Run(ctx context.Context, reportPath string) (*Result, error) {
	if err := os.MkdirAll(filepath.Dir(reportPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create debug directory: %w", err)
	}

	n, entries, err := a.Analyze(ctx)
	if err != nil {
		return nil, err
	}

	if err := WriteReport(reportPath, entries); err != nil {
		return nil, err
	}

	return &Result{
		OutputDir:  a.dir,
		ReportPath: reportPath,
		Documents:  n,
		Entries:    entries,
	}, nil
}
