// Package raster converts a PDF into an ordered sequence of page images.
// Page counting and validation use pdfcpu; rendering shells out to
// pdftoppm (poppler-utils), one invocation per page.
package raster

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/docufin/docufin/internal/document"
)

// Error is a rasterization failure: unreadable, encrypted, or otherwise
// unusable PDF. It is fatal to a processing run.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("rasterization failed for %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Options bound a render: page cap and output resolution.
type Options struct {
	MaxPages int // pages beyond the cap are dropped with a warning
	DPI      int
	Workers  int // concurrent pdftoppm invocations; defaults to NumCPU
}

// Rasterizer renders PDF pages to PNG images.
type Rasterizer struct {
	logger *slog.Logger

	// Injection points for tests.
	countPages func(path string) (int, error)
	renderPage func(ctx context.Context, path string, page, dpi int) ([]byte, error)
}

// New creates a Rasterizer. Logger may be nil.
func New(logger *slog.Logger) *Rasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rasterizer{
		logger:     logger,
		countPages: countPDFPages,
		renderPage: renderWithPdftoppm,
	}
}

// Render produces the page images for doc in original page order.
// A page count above opts.MaxPages is capped with a warning, not an error.
func (r *Rasterizer) Render(ctx context.Context, doc document.Document, opts Options) ([]document.PageImage, []document.Warning, error) {
	if opts.DPI <= 0 {
		opts.DPI = 300
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	pageCount, err := r.countPages(doc.Path)
	if err != nil {
		return nil, nil, &Error{Path: doc.Path, Err: err}
	}
	if pageCount == 0 {
		return nil, nil, &Error{Path: doc.Path, Err: fmt.Errorf("document has no pages")}
	}

	var warnings []document.Warning
	renderCount := pageCount
	if opts.MaxPages > 0 && pageCount > opts.MaxPages {
		renderCount = opts.MaxPages
		warnings = append(warnings, document.Warning{
			Stage:   document.StageRaster,
			Page:    -1,
			Message: fmt.Sprintf("document has %d pages, capped at %d", pageCount, opts.MaxPages),
		})
		r.logger.Warn("page limit reached", "pages", pageCount, "max_pages", opts.MaxPages)
	}

	type rendered struct {
		page int
		png  []byte
		err  error
	}

	results := make(chan rendered, renderCount)
	sem := make(chan struct{}, workers)

	for page := 1; page <= renderCount; page++ {
		sem <- struct{}{} // acquire
		go func(pageInPDF int) {
			defer func() { <-sem }() // release

			png, err := r.renderPage(ctx, doc.Path, pageInPDF, opts.DPI)
			results <- rendered{page: pageInPDF, err: err, png: png}
		}(page)
	}

	images := make([]document.PageImage, renderCount)
	for i := 0; i < renderCount; i++ {
		res := <-results
		if res.err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			return nil, nil, &Error{Path: doc.Path, Err: fmt.Errorf("page %d: %w", res.page, res.err)}
		}
		images[res.page-1] = document.PageImage{Index: res.page - 1, PNG: res.png, DPI: opts.DPI}
	}

	r.logger.Debug("rasterized document", "path", filepath.Base(doc.Path), "pages", renderCount, "dpi", opts.DPI)
	return images, warnings, nil
}

// countPDFPages reads the page count via pdfcpu. Encrypted or malformed
// files surface here.
func countPDFPages(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	count, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return count, nil
}

// renderWithPdftoppm renders a single page to PNG using pdftoppm.
func renderWithPdftoppm(ctx context.Context, path string, page, dpi int) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "docufin-page-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")
	pageStr := fmt.Sprintf("%d", page)

	// -singlefile suppresses the page number suffix on the output name.
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", fmt.Sprintf("%d", dpi),
		"-singlefile",
		path,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	data, err := os.ReadFile(outputPrefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	return data, nil
}
