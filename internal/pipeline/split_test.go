package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/docufin/docufin/internal/document"
	"github.com/docufin/docufin/internal/extract"
	"github.com/docufin/docufin/internal/raster"
)

func encodeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

func TestSplitHalvesLandscape(t *testing.T) {
	pageImg := document.PageImage{Index: 0, PNG: encodeTestPNG(t, 100, 40), DPI: 300}

	left, right, ok := splitHalves(pageImg)
	if !ok {
		t.Fatal("landscape page should split")
	}

	for name, half := range map[string]document.PageImage{"left": left, "right": right} {
		decoded, err := png.Decode(bytes.NewReader(half.PNG))
		if err != nil {
			t.Fatalf("%s half does not decode: %v", name, err)
		}
		b := decoded.Bounds()
		if b.Dx() != 50 || b.Dy() != 40 {
			t.Errorf("%s half is %dx%d, want 50x40", name, b.Dx(), b.Dy())
		}
		if half.Index != 0 || half.DPI != 300 {
			t.Errorf("%s half lost metadata: %+v", name, half)
		}
	}
}

func TestSplitHalvesPortraitUntouched(t *testing.T) {
	pageImg := document.PageImage{Index: 0, PNG: encodeTestPNG(t, 40, 100)}

	if _, _, ok := splitHalves(pageImg); ok {
		t.Error("portrait page should not split")
	}
}

func TestSplitHalvesBadImage(t *testing.T) {
	pageImg := document.PageImage{Index: 0, PNG: []byte("not a png")}

	if _, _, ok := splitHalves(pageImg); ok {
		t.Error("undecodable image should not split")
	}
}

// halfAwareRecognizer returns garbled text for full pages and clean
// labeled text for half-width pages, imitating a side-by-side layout.
type halfAwareRecognizer struct {
	fullWidth int
	halves    map[int]string // calls beyond the full page rotate through halves
	halfCalls int
}

func (h *halfAwareRecognizer) Recognize(ctx context.Context, img document.PageImage, lang string) (document.PageText, []document.Warning, error) {
	decoded, err := png.Decode(bytes.NewReader(img.PNG))
	if err != nil {
		return document.PageText{}, nil, err
	}
	if decoded.Bounds().Dx() == h.fullWidth {
		return document.PageText{Page: img.Index, Text: "га rbled mi xed te xt", Confidence: 0.6, Engine: "tesseract"}, nil, nil
	}
	text := h.halves[h.halfCalls]
	h.halfCalls++
	return document.PageText{Page: img.Index, Text: text, Confidence: 0.8, Engine: "tesseract"}, nil, nil
}

func TestProcessSplitRetryFillsFields(t *testing.T) {
	rec := &halfAwareRecognizer{
		fullWidth: 100,
		halves: map[int]string{
			0: "Квитанция № 42\nБанк: Kaspi Bank",
			1: "Receipt No: 42\nBank: Kaspi Bank",
		},
	}

	p := newTestPipeline(t, Config{
		Rasterizer: &pngRaster{png: encodeTestPNG(t, 100, 40)},
		Recognizer: rec,
		Extractor:  extract.New(nil),
	})

	result, err := p.Process(context.Background(), Request{Path: "doc.pdf", LanguageHint: "ru"})
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if rec.halfCalls != 2 {
		t.Errorf("half recognitions = %d, want 2", rec.halfCalls)
	}
	if !result.Fields.Sufficient() {
		t.Errorf("split retry did not produce sufficient fields: %+v", result.Fields.Ordered())
	}
	if result.Status != document.StatusPartial {
		t.Errorf("status = %q, want partial (split retry warns)", result.Status)
	}
}

// pngRaster serves one real PNG page.
type pngRaster struct {
	png []byte
}

func (s *pngRaster) Render(ctx context.Context, doc document.Document, opts raster.Options) ([]document.PageImage, []document.Warning, error) {
	return []document.PageImage{{Index: 0, PNG: s.png, DPI: 300}}, nil, nil
}
