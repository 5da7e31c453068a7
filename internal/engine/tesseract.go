package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/docufin/docufin/internal/document"
)

// TesseractName is the engine identifier for the Tesseract adapter.
const TesseractName = "tesseract"

// tesseractLangs maps language hint codes to Tesseract traineddata names.
var tesseractLangs = map[string]string{
	"en": "eng",
	"ru": "rus",
	"kk": "kaz",
}

// TesseractConfig holds configuration for the Tesseract adapter.
type TesseractConfig struct {
	// Languages are hint codes (e.g. "en", "ru", "kk"). Used all together
	// when a page carries no hint, mirroring mixed-language documents.
	Languages []string

	// PSM is the Tesseract page segmentation mode. Default 6 (uniform
	// block of text), which suits scanned financial documents.
	PSM string
}

// Tesseract runs OCR in-process through gosseract (libtesseract).
// Confidence is the mean of per-word confidences reported by Tesseract,
// normalized from its 0-100 scale.
type Tesseract struct {
	languages []string
	psm       string

	clientFactory func() *gosseract.Client
}

// NewTesseract creates the Tesseract adapter.
func NewTesseract(cfg TesseractConfig) *Tesseract {
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = []string{"en", "ru", "kk"}
	}
	psm := cfg.PSM
	if psm == "" {
		psm = "6"
	}
	return &Tesseract{
		languages:     langs,
		psm:           psm,
		clientFactory: gosseract.NewClient,
	}
}

func (t *Tesseract) Name() string { return TesseractName }

func (t *Tesseract) Languages() []string { return t.languages }

// Available checks that libtesseract is usable and every configured
// traineddata file is installed.
func (t *Tesseract) Available(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return newError(TesseractName, "cancelled", err)
	}
	installed, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return newError(TesseractName, "tesseract not usable", err)
	}
	have := make(map[string]bool, len(installed))
	for _, l := range installed {
		have[l] = true
	}
	for _, td := range t.traineddata("") {
		if !have[td] {
			return newError(TesseractName, fmt.Sprintf("missing traineddata %q", td), nil)
		}
	}
	return nil
}

// ExtractText runs Tesseract on the page image. gosseract has no context
// support, so cancellation is checked at call boundaries.
func (t *Tesseract) ExtractText(ctx context.Context, img document.PageImage, lang string) (document.PageText, error) {
	if err := ctx.Err(); err != nil {
		return document.PageText{}, newError(TesseractName, "cancelled", err)
	}
	if !supportsLanguage(t.languages, lang) {
		return document.PageText{}, newError(TesseractName, fmt.Sprintf("unsupported language %q", lang), nil)
	}

	c := t.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(img.PNG); err != nil {
		return document.PageText{}, newError(TesseractName, "set image", err)
	}
	if err := c.SetLanguage(t.traineddata(lang)...); err != nil {
		return document.PageText{}, newError(TesseractName, "set languages", err)
	}
	if err := c.SetVariable(gosseract.SettableVariable("tessedit_pageseg_mode"), t.psm); err != nil {
		return document.PageText{}, newError(TesseractName, "set psm", err)
	}
	if img.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(img.DPI)); err != nil {
			return document.PageText{}, newError(TesseractName, "set dpi", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return document.PageText{}, newError(TesseractName, "recognize text", err)
	}
	if err := ctx.Err(); err != nil {
		return document.PageText{}, newError(TesseractName, "cancelled", err)
	}

	text = strings.TrimSpace(text)
	return document.PageText{
		Page:       img.Index,
		Text:       text,
		Confidence: t.confidence(c, text),
		Engine:     TesseractName,
	}, nil
}

// traineddata resolves the Tesseract language list for a hint. An empty
// hint enables all configured languages joined, as mixed-language scans
// need every script available.
func (t *Tesseract) traineddata(lang string) []string {
	hints := t.languages
	if lang != "" {
		hints = []string{lang}
	}
	out := make([]string, 0, len(hints))
	for _, h := range hints {
		if td, ok := tesseractLangs[h]; ok {
			out = append(out, td)
		} else {
			out = append(out, h)
		}
	}
	return out
}

// confidence averages per-word confidences (Tesseract reports 0-100).
// Falls back to the proxy score when no word boxes are available.
func (t *Tesseract) confidence(c *gosseract.Client, text string) float64 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return proxyConfidence(text)
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence / 100.0
	}
	return clampConfidence(sum / float64(len(boxes)))
}
