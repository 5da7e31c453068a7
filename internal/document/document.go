// Package document defines the core data model for a document extraction run:
// the document reference, per-page OCR output, the fixed extracted-field set,
// and the processing result returned to the caller.
package document

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PageSeparator marks page boundaries in combined OCR text so extraction
// heuristics can reason about page-local context. The text normalizer
// preserves it.
const PageSeparator = "\f"

// Document references an uploaded PDF. It is owned by the calling layer;
// the pipeline only reads from it.
type Document struct {
	ID           string `json:"id" yaml:"id"`
	Path         string `json:"path" yaml:"path"`
	PageCount    int    `json:"page_count" yaml:"page_count"`
	LanguageHint string `json:"language_hint,omitempty" yaml:"language_hint,omitempty"`
}

// New creates a document reference for a PDF on disk.
func New(path, languageHint string) Document {
	return Document{
		ID:           uuid.New().String(),
		Path:         path,
		LanguageHint: languageHint,
	}
}

// PageImage is a rasterized PDF page. Owned by the processing run and
// discarded once OCR for the page completes.
type PageImage struct {
	Index int // zero-based page index
	PNG   []byte
	DPI   int
}

// PageText is the OCR output for a single page. Confidence is normalized
// to 0-1 regardless of the engine's native scale.
type PageText struct {
	Page           int     `json:"page" yaml:"page"`
	Text           string  `json:"text" yaml:"text"`
	Confidence     float64 `json:"confidence" yaml:"confidence"`
	Engine         string  `json:"engine" yaml:"engine"`
	BelowThreshold bool    `json:"below_threshold,omitempty" yaml:"below_threshold,omitempty"`
}

// JoinPages concatenates page text in page order, separated by PageSeparator.
func JoinPages(pages []PageText) string {
	sorted := make([]PageText, len(pages))
	copy(sorted, pages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Page < sorted[j].Page })

	parts := make([]string, len(sorted))
	for i, p := range sorted {
		parts[i] = p.Text
	}
	return strings.Join(parts, PageSeparator)
}

// Status is the overall outcome of a processing run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Warning stages.
const (
	StageRaster  = "raster"
	StageOCR     = "ocr"
	StageExtract = "extract"
	StageLLM     = "llm"
)

// Warning records a non-fatal problem encountered during a stage.
// Page is -1 when the warning is not page-specific.
type Warning struct {
	Stage   string `json:"stage" yaml:"stage"`
	Page    int    `json:"page" yaml:"page"`
	Message string `json:"message" yaml:"message"`
}

// Result is the sole object returned to the caller. It is assembled once
// at the end of a run and must be treated as read-only afterwards.
type Result struct {
	RunID       string        `json:"run_id" yaml:"run_id"`
	Document    Document      `json:"document" yaml:"document"`
	Pages       []PageText    `json:"pages" yaml:"pages"`
	Text        string        `json:"text" yaml:"text"`
	Fields      FieldSet      `json:"fields" yaml:"fields"`
	Status      Status        `json:"status" yaml:"status"`
	Warnings    []Warning     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	EnginesUsed []string      `json:"engines_used,omitempty" yaml:"engines_used,omitempty"`
	LLMApplied  bool          `json:"llm_applied" yaml:"llm_applied"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}
