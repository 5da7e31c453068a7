package pipeline

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docufin/docufin/internal/document"
)

// assemble builds the immutable processing result. Pure aggregation: no
// retries, no recovery, just status derivation and bookkeeping.
//
// Status rule: failed when no page produced any text; partial when the
// recognition or extraction stages recorded a warning (fallback, page cap,
// below-threshold result, split retry); success otherwise. LLM-stage
// warnings stay in the result but never degrade the status: the post
// processor is an optional refinement, not part of the OCR outcome.
// Rasterization failures never reach this function, they abort the run
// upstream.
func assemble(doc document.Document, pages []document.PageText, text string, fields document.FieldSet, warnings []document.Warning, llmApplied bool, duration time.Duration) *document.Result {
	anyText := false
	enginesSeen := make(map[string]bool)
	var engines []string
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			anyText = true
		}
		if p.Engine != "" && !enginesSeen[p.Engine] {
			enginesSeen[p.Engine] = true
			engines = append(engines, p.Engine)
		}
	}

	degraded := false
	for _, w := range warnings {
		if w.Stage != document.StageLLM {
			degraded = true
			break
		}
	}

	status := document.StatusSuccess
	switch {
	case !anyText:
		status = document.StatusFailed
	case degraded:
		status = document.StatusPartial
	}

	fieldSet := fields
	if status == document.StatusFailed {
		// A failed run carries the complete-but-empty field set.
		fieldSet = document.NewFieldSet()
	}

	return &document.Result{
		RunID:       uuid.New().String(),
		Document:    doc,
		Pages:       pages,
		Text:        text,
		Fields:      fieldSet.Clone(),
		Status:      status,
		Warnings:    warnings,
		EnginesUsed: engines,
		LLMApplied:  llmApplied,
		Duration:    duration,
	}
}
