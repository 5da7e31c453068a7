package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	"image/png"

	"github.com/docufin/docufin/internal/document"
	"github.com/docufin/docufin/internal/textnorm"
)

// splitPass re-runs OCR and extraction on the left and right halves of
// wide pages, filling only fields the first pass left empty. Side-by-side
// bilingual layouts defeat whole-page OCR because interleaved lines mix
// languages mid-sentence.
//
// Returns a single warning when the pass ran, nil when no page was wide
// enough to split.
func (p *Pipeline) splitPass(ctx context.Context, images []document.PageImage, lang string, fields document.FieldSet) []document.Warning {
	ran := false
	for _, img := range images {
		if ctx.Err() != nil {
			return nil
		}

		left, right, ok := splitHalves(img)
		if !ok {
			continue
		}
		ran = true
		p.logger.Debug("retrying page with split layout", "page", img.Index)

		for _, half := range []document.PageImage{left, right} {
			text, _, err := p.recognizer.Recognize(ctx, half, lang)
			if err != nil {
				continue
			}
			halfFields := p.extractor.Extract(textnorm.Normalize(text.Text, lang), lang)
			fields.FillFrom(halfFields)
		}

		if fields.Sufficient() {
			break
		}
	}

	if !ran {
		return nil
	}
	return []document.Warning{{
		Stage:   document.StageExtract,
		Page:    -1,
		Message: "extraction incomplete after first pass; retried with split page layout",
	}}
}

// splitHalves crops a landscape page image into left and right halves.
// Portrait pages are left alone (ok=false).
func splitHalves(img document.PageImage) (left, right document.PageImage, ok bool) {
	decoded, err := png.Decode(bytes.NewReader(img.PNG))
	if err != nil {
		return document.PageImage{}, document.PageImage{}, false
	}

	bounds := decoded.Bounds()
	if bounds.Dx() <= bounds.Dy() {
		return document.PageImage{}, document.PageImage{}, false
	}

	mid := bounds.Min.X + bounds.Dx()/2
	leftPNG, err := encodeCrop(decoded, image.Rect(bounds.Min.X, bounds.Min.Y, mid, bounds.Max.Y))
	if err != nil {
		return document.PageImage{}, document.PageImage{}, false
	}
	rightPNG, err := encodeCrop(decoded, image.Rect(mid, bounds.Min.Y, bounds.Max.X, bounds.Max.Y))
	if err != nil {
		return document.PageImage{}, document.PageImage{}, false
	}

	left = document.PageImage{Index: img.Index, PNG: leftPNG, DPI: img.DPI}
	right = document.PageImage{Index: img.Index, PNG: rightPNG, DPI: img.DPI}
	return left, right, true
}

func encodeCrop(src image.Image, rect image.Rectangle) ([]byte, error) {
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
