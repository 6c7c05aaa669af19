// Package thumbnail derives small preview images from full-size generation
// results. The deriver deliberately has no error path: a preview is an
// enrichment, and on any internal failure the caller gets the original
// payload back instead of a broken item.
package thumbnail

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	"image/png"
)

// Deriver produces a preview payload for one full-size image. It never fails;
// the fallback is the original payload unchanged.
type Deriver interface {
	Derive(ctx context.Context, data []byte, mime string) (thumb []byte, thumbMIME string)
}

// Scaler is a Deriver that downscales with nearest-neighbor sampling and
// re-encodes as PNG. Quality is secondary here; previews exist so a gallery
// can render without shipping full payloads.
type Scaler struct {
	maxDim int
}

// NewScaler creates a Scaler bounding previews to maxDim pixels on the longer
// edge. Non-positive values fall back to 256.
func NewScaler(maxDim int) *Scaler {
	if maxDim <= 0 {
		maxDim = 256
	}
	return &Scaler{maxDim: maxDim}
}

func (s *Scaler) Derive(ctx context.Context, data []byte, mime string) ([]byte, string) {
	if ctx.Err() != nil {
		return data, mime
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, mime
	}
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return data, mime
	}
	if w <= s.maxDim && h <= s.maxDim {
		return data, mime
	}

	tw, th := w, h
	if w >= h {
		tw = s.maxDim
		th = h * s.maxDim / w
	} else {
		th = s.maxDim
		tw = w * s.maxDim / h
	}
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	for y := 0; y < th; y++ {
		sy := bounds.Min.Y + y*h/th
		for x := 0; x < tw; x++ {
			sx := bounds.Min.X + x*w/tw
			dst.Set(x, y, src.At(sx, sy))
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return data, mime
	}
	return buf.Bytes(), "image/png"
}

var _ Deriver = (*Scaler)(nil)
