// Package render re-rasterizes the source PDFs named in a rerun list at high resolution.
package render

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackzampolin/pagecheck/internal/console"
	"github.com/jackzampolin/pagecheck/internal/home"
)

// structuredDataExt is stripped from rerun-list entries to find the source PDF.
const structuredDataExt = ".jsonld"

// Request contains the parameters for a re-render run.
type Request struct {
	ListPath   string     // rerun list, one entry per line
	InputDir   string     // directory of source PDFs
	OutputDir  string     // destination for <base>_page_<n>.png
	DPI        float64    // render resolution
	Rasterizer Rasterizer // defaults to Pdftoppm{}

	// StripJSONLD retries a missing <root>.pdf.jsonld entry as <root>.pdf.
	StripJSONLD bool

	Console  *console.Printer // Optional console for progress lines
	Progress io.Writer        // Optional progress bar output; nil disables the bar
	Logger   *slog.Logger     // Optional logger for progress updates
}

// Document describes one re-rendered PDF.
type Document struct {
	Entry   string   `json:"entry" yaml:"entry"`
	PDFPath string   `json:"pdf_path" yaml:"pdf_path"`
	Images  []string `json:"images" yaml:"images"`
}

// Result contains the outcome of a re-render run.
type Result struct {
	OutputDir string     `json:"output_dir" yaml:"output_dir"`
	Documents []Document `json:"documents" yaml:"documents"`
	Missing   []string   `json:"missing" yaml:"missing"`
	Pages     int        `json:"pages" yaml:"pages"`
}

// Render re-rasterizes every PDF named in the rerun list. Entries whose PDF
// cannot be found are reported and skipped; any other failure aborts the run.
func Render(ctx context.Context, req Request) (*Result, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}
	out := req.Console
	if out == nil {
		out = console.New(io.Discard)
	}
	rast := req.Rasterizer
	if rast == nil {
		rast = Pdftoppm{}
	}
	if req.DPI <= 0 {
		return nil, fmt.Errorf("invalid render resolution: %v", req.DPI)
	}

	entries, err := ReadList(req.ListPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	log.Info("starting re-render", "entries", len(entries), "dpi", req.DPI, "output", req.OutputDir)

	result := &Result{
		OutputDir: req.OutputDir,
		Documents: make([]Document, 0, len(entries)),
		Missing:   make([]string, 0),
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pdfPath, ok := ResolvePDF(req.InputDir, entry, req.StripJSONLD)
		if !ok {
			out.Warn("PDF not found: %s", pdfPath)
			log.Warn("source PDF missing", "entry", entry, "path", pdfPath)
			result.Missing = append(result.Missing, entry)
			continue
		}

		out.Info("Processing %s at %d DPI...", entry, int(math.Round(req.DPI)))
		images, err := renderPDF(ctx, rast, pdfPath, req.OutputDir, req.DPI, req.Progress)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", pdfPath, err)
		}
		log.Debug("rendered PDF", "entry", entry, "pages", len(images))

		result.Documents = append(result.Documents, Document{
			Entry:   entry,
			PDFPath: pdfPath,
			Images:  images,
		})
		result.Pages += len(images)
	}

	out.Success("Reprocessing complete.")
	log.Info("re-render complete", "documents", len(result.Documents), "missing", len(result.Missing), "pages", result.Pages)
	return result, nil
}

// renderPDF renders every page in order and returns the written image paths.
func renderPDF(ctx context.Context, rast Rasterizer, pdfPath, outDir string, dpi float64, progress io.Writer) ([]string, error) {
	pageCount, err := rast.PageCount(pdfPath)
	if err != nil {
		return nil, err
	}

	base := home.PDFBaseName(pdfPath)

	var bar interface{ Add(int) error }
	if progress != nil {
		bar = console.NewProgress(progress, pageCount, base)
	}

	images := make([]string, 0, pageCount)
	for page := 1; page <= pageCount; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dst := home.RenderedPagePath(outDir, base, page)
		if err := rast.RenderPage(ctx, pdfPath, page, dpi, dst); err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", page, err)
		}
		images = append(images, dst)

		if bar != nil {
			_ = bar.Add(1)
		}
	}
	return images, nil
}

// ReadList returns the non-blank, trimmed lines of a rerun list.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rerun list: %w", err)
	}
	defer f.Close()

	var entries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rerun list: %w", err)
	}
	return entries, nil
}

// ResolvePDF locates the source PDF for a rerun-list entry, used verbatim.
// With stripJSONLD set, an entry ending in .jsonld whose file is missing is
// retried without that extension. When nothing exists the verbatim path is
// returned with ok=false.
func ResolvePDF(inputDir, entry string, stripJSONLD bool) (string, bool) {
	literal := filepath.Join(inputDir, entry)
	if isFile(literal) {
		return literal, true
	}

	if stripJSONLD && strings.HasSuffix(entry, structuredDataExt) {
		alt := filepath.Join(inputDir, strings.TrimSuffix(entry, structuredDataExt))
		if isFile(alt) {
			return alt, true
		}
	}
	return literal, false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
