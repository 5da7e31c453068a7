// Package engine provides OCR engine adapters behind a single capability
// interface, plus the fallback coordinator that chains them.
//
// Every adapter normalizes its confidence to 0-1. Engines without native
// confidence synthesize a proxy score (see proxyConfidence).
package engine

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/docufin/docufin/internal/document"
)

// Engine is the OCR capability: extract text from one page image.
// Implementations must be safe for concurrent page calls.
type Engine interface {
	// Name returns the engine identifier (e.g. "tesseract", "paddle").
	Name() string

	// Languages returns the language hint codes the engine supports
	// (ISO 639-1, e.g. "en", "ru", "kk").
	Languages() []string

	// Available reports whether the engine can serve requests: traineddata
	// present for in-process engines, server reachable for HTTP engines.
	Available(ctx context.Context) error

	// ExtractText runs OCR on a single page image. The language hint may
	// be empty, in which case the engine uses all configured languages.
	// Failures are reported as *Error.
	ExtractText(ctx context.Context, img document.PageImage, lang string) (document.PageText, error)
}

// Error is an OCR engine failure: crash, unsupported language, timeout,
// or unusable response. Recovered by the fallback chain, never fatal to
// the run by itself.
type Error struct {
	Engine string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ocr engine %s: %s: %v", e.Engine, e.Reason, e.Err)
	}
	return fmt.Sprintf("ocr engine %s: %s", e.Engine, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(engine, reason string, err error) *Error {
	return &Error{Engine: engine, Reason: reason, Err: err}
}

// checkServerHealth probes an HTTP-served engine's /health endpoint.
func checkServerHealth(ctx context.Context, client *http.Client, name, baseURL string) error {
	if baseURL == "" {
		return newError(name, "no server URL configured", nil)
	}
	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/health", nil)
	if err != nil {
		return newError(name, "create request", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return newError(name, "server unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return newError(name, fmt.Sprintf("health check failed (status %d)", resp.StatusCode), nil)
	}
	return nil
}

// supportsLanguage reports whether lang is in langs. An empty hint is
// always supported.
func supportsLanguage(langs []string, lang string) bool {
	if lang == "" {
		return true
	}
	for _, l := range langs {
		if l == lang {
			return true
		}
	}
	return false
}

// proxyConfidence synthesizes a 0-1 confidence for engines that do not
// report one. The score is the printable-character ratio scaled by how
// much text came back relative to a modest page expectation, capped at
// 0.9 so natively scored engines win ties only through priority order.
func proxyConfidence(text string) float64 {
	if text == "" {
		return 0
	}
	fill := math.Min(1, float64(len(text))/200)
	score := printableRatio(text) * fill
	return math.Min(score, 0.9)
}

// printableRatio returns the share of printable runes in text. Control
// characters (except whitespace), the replacement character, and Private
// Use Area runes count as garbage.
func printableRatio(text string) float64 {
	if text == "" {
		return 1
	}
	total, printable := 0, 0
	for _, r := range norm.NFC.String(text) {
		total++
		if r >= 0xE000 && r <= 0xF8FF {
			continue
		}
		if r == 0xFFFD {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' || r == '\f' {
			printable++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(printable) / float64(total)
}

// clampConfidence bounds an engine-reported score to 0-1.
func clampConfidence(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
