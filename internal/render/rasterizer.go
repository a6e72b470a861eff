package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Rasterizer turns PDF pages into PNG files.
type Rasterizer interface {
	// PageCount returns the number of pages in the PDF.
	PageCount(pdfPath string) (int, error)
	// RenderPage renders one 1-indexed page at dpi and writes it to dst.
	RenderPage(ctx context.Context, pdfPath string, page int, dpi float64, dst string) error
}

// Pdftoppm rasterizes with poppler's pdftoppm and counts pages with pdfcpu.
type Pdftoppm struct {
	Binary string // defaults to "pdftoppm"
}

// PageCount reads the page count with pdfcpu.
func (p Pdftoppm) PageCount(pdfPath string) (int, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	n, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return n, nil
}

// RenderPage renders a single page using pdftoppm (poppler-utils).
func (p Pdftoppm) RenderPage(ctx context.Context, pdfPath string, page int, dpi float64, dst string) error {
	bin := p.Binary
	if bin == "" {
		bin = "pdftoppm"
	}

	// pdftoppm with -singlefile creates: <prefix>.png
	prefix := strings.TrimSuffix(dst, ".png")
	cmd := exec.CommandContext(ctx, bin, pdftoppmArgs(pdfPath, page, dpi, prefix)...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	if _, err := os.Stat(prefix + ".png"); err != nil {
		return fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	return nil
}

// pdftoppmArgs builds the argument list for one page:
// -png output, -f/-l first and last page, -r resolution, -singlefile no page suffix.
func pdftoppmArgs(pdfPath string, page int, dpi float64, prefix string) []string {
	pageStr := strconv.Itoa(page)
	return []string{
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", strconv.FormatFloat(dpi, 'f', -1, 64),
		"-singlefile",
		pdfPath,
		prefix,
	}
}
