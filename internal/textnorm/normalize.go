// Package textnorm cleans raw OCR text before field extraction.
//
// Normalize is a pure, idempotent function: Unicode NFKC, control-character
// stripping, script-confusable repair, and whitespace collapsing. Page
// separators (form feed) are preserved so extraction can reason about
// page-local context.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/docufin/docufin/internal/document"
)

// Normalize cleans raw OCR output. lang is the language hint ("en", "ru",
// "kk" or empty); it keys the confusable-repair direction.
func Normalize(raw, lang string) string {
	pages := strings.Split(raw, document.PageSeparator)
	for i, page := range pages {
		pages[i] = normalizePage(page, lang)
	}
	return strings.Join(pages, document.PageSeparator)
}

func normalizePage(s, lang string) string {
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = stripGarbage(s)
	s = fixConfusables(s, lang)
	s = collapseWhitespace(s)
	return s
}

// stripGarbage removes non-printable control characters, Private Use Area
// runes, and the replacement character. Newlines and tabs survive.
func stripGarbage(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case r >= 0xE000 && r <= 0xF8FF:
		case r == 0xFFFD:
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// collapseWhitespace collapses runs of spaces and tabs to one space,
// strips spaces around line breaks, and caps blank-line runs at one.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	// Drop a trailing blank line left by the loop.
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
