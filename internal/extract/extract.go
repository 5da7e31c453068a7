// Package extract scans normalized OCR text for the fixed document field
// set using an ordered list of strategies per field.
//
// Each field runs its strategies in order: the first match that passes the
// field's validator wins and sets the field's confidence from the strategy
// tier. Strategies are independent across fields; a miss on one field never
// blocks another. No match leaves the field unset with confidence 0.
package extract

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/docufin/docufin/internal/document"
)

// StrategyKind tags how a strategy locates a value.
type StrategyKind string

const (
	// StrategyPattern matches a value by its own shape (e.g. an IBAN).
	StrategyPattern StrategyKind = "pattern"
	// StrategyKeyword matches a value by proximity to a label keyword.
	StrategyKeyword StrategyKind = "keyword"
	// StrategyPositional matches a loose shape in a likely location
	// (typically the first page).
	StrategyPositional StrategyKind = "positional"
)

// strategy is one way to find a field value. Exactly one of re/value is
// meaningful: classifier strategies carry a literal value and no capture
// group; all others capture the value in group 1.
type strategy struct {
	kind       StrategyKind
	re         *regexp.Regexp
	value      string // literal result for classifier strategies
	confidence float64
	firstPage  bool // restrict the search to the first page
}

// validator cleans a raw match and decides whether it is plausible.
// Returning ok=false moves on to the next match or strategy.
type validator func(raw string) (clean string, ok bool)

// rule binds a field to its ordered strategies and validator.
type rule struct {
	field      document.FieldName
	strategies []strategy
	validate   validator
}

// Extractor applies the rule table to normalized text.
type Extractor struct {
	rules  []rule
	logger *slog.Logger
}

// New creates an Extractor with the built-in multilingual rule table.
// Logger may be nil.
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{rules: rules(), logger: logger}
}

// Extract scans text (page separators intact) and returns the complete
// field set. lang is the language hint; currently the rule table covers
// en/ru/kk jointly, so lang only informs logging.
func (e *Extractor) Extract(text, lang string) document.FieldSet {
	fields := document.NewFieldSet()

	firstPage := text
	if i := strings.Index(text, document.PageSeparator); i >= 0 {
		firstPage = text[:i]
	}

	for _, r := range e.rules {
		value, conf, ok := e.applyRule(r, text, firstPage)
		if !ok {
			continue
		}
		fields.Set(r.field, value, conf, document.SourceHeuristic)
		e.logger.Debug("field extracted",
			"field", string(r.field), "confidence", conf, "lang", lang)
	}
	return fields
}

// applyRule runs one field's strategies in order.
func (e *Extractor) applyRule(r rule, text, firstPage string) (string, float64, bool) {
	for _, s := range r.strategies {
		scope := text
		if s.firstPage {
			scope = firstPage
		}

		if s.value != "" {
			// Classifier: a match anywhere yields the literal value,
			// subject to the same validator as captured matches.
			if s.re.MatchString(scope) {
				if clean, ok := r.validate(s.value); ok {
					return clean, s.confidence, true
				}
			}
			continue
		}

		for _, m := range s.re.FindAllStringSubmatch(scope, 8) {
			if len(m) < 2 {
				continue
			}
			if clean, ok := r.validate(m[1]); ok {
				return clean, s.confidence, true
			}
		}
	}
	return "", 0, false
}
