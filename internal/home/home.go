// Package home resolves the on-disk layout of a pagecheck workspace.
package home

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackzampolin/pagecheck/internal/config"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = "pagecheck.yaml"

	// RenderedPageFormat names a re-rendered page: <base>_page_<n>.png, 1-indexed.
	RenderedPageFormat = "%s_page_%d.png"
)

// Dir represents the workspace directory structure.
type Dir struct {
	root  string // configured root, empty for the working directory
	path  string // absolute workspace root
	paths config.PathsCfg
}

// New creates a Dir for the configured paths.
// If paths.Root is empty, relative paths stay relative to the working directory.
func New(paths config.PathsCfg) (*Dir, error) {
	path := paths.Root
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = wd
	}

	return &Dir{root: paths.Root, path: path, paths: paths}, nil
}

// Path returns the root path of the workspace.
func (d *Dir) Path() string {
	return d.path
}

func (d *Dir) resolve(p string) string {
	if d.root == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(d.root, p)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return d.resolve(ConfigFileName)
}

// OutputDir returns the directory holding structured-data files and page images.
func (d *Dir) OutputDir() string {
	return d.resolve(d.paths.OutputDir)
}

// DebugDir returns the directory the audit report is written to.
func (d *Dir) DebugDir() string {
	return d.resolve(d.paths.DebugDir)
}

// ReportPath returns the path of the audit debug report.
func (d *Dir) ReportPath() string {
	return filepath.Join(d.DebugDir(), d.paths.DebugFile)
}

// RerunListPath returns the path of the plain-text rerun list.
func (d *Dir) RerunListPath() string {
	return d.resolve(d.paths.RerunList)
}

// InputDir returns the directory of source PDFs.
func (d *Dir) InputDir() string {
	return d.resolve(d.paths.InputDir)
}

// RenderDir returns the directory for high resolution re-renders.
func (d *Dir) RenderDir() string {
	return d.resolve(d.paths.RenderDir)
}

// RenderedPagePath builds <dir>/<base>_page_<n>.png.
func RenderedPagePath(dir, base string, pageNum int) string {
	return filepath.Join(dir, fmt.Sprintf(RenderedPageFormat, base, pageNum))
}

// PDFBaseName strips the directory and the final extension from a PDF path.
// e.g., "FinPapers/report.pdf" -> "report"
func PDFBaseName(pdfPath string) string {
	base := filepath.Base(pdfPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
