// Package pipeline orchestrates a document extraction run: rasterize the
// PDF, OCR every page through the fallback coordinator, normalize and
// join the text, extract fields, optionally reconcile them with the LLM
// post-processor, and assemble the immutable result.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/docufin/docufin/internal/document"
	"github.com/docufin/docufin/internal/extract"
	"github.com/docufin/docufin/internal/raster"
	"github.com/docufin/docufin/internal/textnorm"
)

// Rasterizer converts a PDF into ordered page images.
type Rasterizer interface {
	Render(ctx context.Context, doc document.Document, opts raster.Options) ([]document.PageImage, []document.Warning, error)
}

// Recognizer runs OCR on one page image, handling engine fallback.
type Recognizer interface {
	Recognize(ctx context.Context, img document.PageImage, lang string) (document.PageText, []document.Warning, error)
}

// Reconciler merges LLM corrections into a heuristic field set,
// failing open.
type Reconciler interface {
	Enabled() bool
	Reconcile(ctx context.Context, text string, fields document.FieldSet) (document.FieldSet, []document.Warning)
}

// Config assembles a Pipeline. All collaborators are injected; the
// pipeline holds no global state and is safe to use for concurrent runs.
type Config struct {
	Rasterizer    Rasterizer
	Recognizer    Recognizer
	Extractor     *extract.Extractor
	PostProcessor Reconciler // nil disables LLM reconciliation

	RasterOptions raster.Options

	// Workers bounds concurrent per-page OCR calls. Defaults to NumCPU.
	Workers int

	Logger *slog.Logger
}

// Request is one processing run: a readable PDF plus optional hints and
// per-run overrides.
type Request struct {
	Path         string
	LanguageHint string

	// DisableLLM turns off LLM reconciliation for this run even when the
	// pipeline carries a post-processor.
	DisableLLM bool
}

// Pipeline processes documents end to end.
type Pipeline struct {
	rasterizer Rasterizer
	recognizer Recognizer
	extractor  *extract.Extractor
	post       Reconciler
	rasterOpts raster.Options
	workers    int
	logger     *slog.Logger
}

// New creates a Pipeline from cfg.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Rasterizer == nil {
		return nil, fmt.Errorf("pipeline requires a rasterizer")
	}
	if cfg.Recognizer == nil {
		return nil, fmt.Errorf("pipeline requires a recognizer")
	}
	if cfg.Extractor == nil {
		return nil, fmt.Errorf("pipeline requires an extractor")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		rasterizer: cfg.Rasterizer,
		recognizer: cfg.Recognizer,
		extractor:  cfg.Extractor,
		post:       cfg.PostProcessor,
		rasterOpts: cfg.RasterOptions,
		workers:    workers,
		logger:     logger,
	}, nil
}

// Process runs one document through the pipeline. The returned error is
// either a *raster.Error (unreadable document, the one hard failure the
// caller sees) or a context cancellation; every other problem lands in
// the result's warnings.
func (p *Pipeline) Process(ctx context.Context, req Request) (*document.Result, error) {
	start := time.Now()
	doc := document.New(req.Path, req.LanguageHint)

	p.logger.Info("processing document", "path", req.Path, "language_hint", req.LanguageHint)

	images, warnings, err := p.rasterizer.Render(ctx, doc, p.rasterOpts)
	if err != nil {
		return nil, err
	}
	doc.PageCount = len(images)

	pages, ocrWarnings, err := p.recognizePages(ctx, images, req.LanguageHint)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, ocrWarnings...)

	text := textnorm.Normalize(document.JoinPages(pages), req.LanguageHint)
	fields := p.extractor.Extract(text, req.LanguageHint)

	// Bilingual documents often print the two languages side by side,
	// which garbles line-oriented OCR. Retry on split halves when the
	// first pass did not identify the document.
	if !fields.Sufficient() {
		if splitWarnings := p.splitPass(ctx, images, req.LanguageHint, fields); splitWarnings != nil {
			warnings = append(warnings, splitWarnings...)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	llmApplied := false
	if p.post != nil && p.post.Enabled() && !req.DisableLLM {
		var llmWarnings []document.Warning
		fields, llmWarnings = p.post.Reconcile(ctx, text, fields)
		llmApplied = len(llmWarnings) == 0
		warnings = append(warnings, llmWarnings...)
	}

	result := assemble(doc, pages, text, fields, warnings, llmApplied, time.Since(start))
	p.logger.Info("processing complete",
		"document_id", doc.ID,
		"status", string(result.Status),
		"pages", len(pages),
		"warnings", len(result.Warnings),
		"duration", result.Duration)
	return result, nil
}

// recognizePages dispatches per-page OCR across a bounded worker pool.
// Pages are independent; results are restored to page order afterwards.
// An exhausted fallback chain yields an empty page plus warnings, never a
// run failure.
func (p *Pipeline) recognizePages(ctx context.Context, images []document.PageImage, lang string) ([]document.PageText, []document.Warning, error) {
	type pageResult struct {
		index    int
		text     document.PageText
		warnings []document.Warning
		err      error
	}

	results := make(chan pageResult, len(images))
	sem := make(chan struct{}, p.workers)

	for _, img := range images {
		sem <- struct{}{} // acquire
		go func(img document.PageImage) {
			defer func() { <-sem }() // release

			text, warns, err := p.recognizer.Recognize(ctx, img, lang)
			results <- pageResult{index: img.Index, text: text, warnings: warns, err: err}
		}(img)
	}

	pages := make([]document.PageText, len(images))
	perPageWarnings := make([][]document.Warning, len(images))
	for range images {
		res := <-results
		perPageWarnings[res.index] = res.warnings
		if res.err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			// Chain exhausted: record the page as empty and move on.
			pages[res.index] = document.PageText{Page: res.index}
			perPageWarnings[res.index] = append(perPageWarnings[res.index], document.Warning{
				Stage:   document.StageOCR,
				Page:    res.index,
				Message: fmt.Sprintf("no text extracted: %v", res.err),
			})
			continue
		}
		pages[res.index] = res.text
	}

	var warnings []document.Warning
	for _, w := range perPageWarnings {
		warnings = append(warnings, w...)
	}
	return pages, warnings, nil
}
