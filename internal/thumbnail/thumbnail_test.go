package thumbnail

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestDeriveDownscalesLargeImage(t *testing.T) {
	src := encodePNG(t, 512, 256)
	thumb, mime := NewScaler(128).Derive(context.Background(), src, "image/png")
	if mime != "image/png" {
		t.Fatalf("unexpected mime: %s", mime)
	}
	img, _, err := image.Decode(bytes.NewReader(thumb))
	if err != nil {
		t.Fatalf("decode thumb: %v", err)
	}
	if got := img.Bounds().Dx(); got != 128 {
		t.Fatalf("long edge not bounded: %d", got)
	}
	if got := img.Bounds().Dy(); got != 64 {
		t.Fatalf("aspect not preserved: %d", got)
	}
}

func TestDeriveKeepsSmallImage(t *testing.T) {
	src := encodePNG(t, 64, 64)
	thumb, _ := NewScaler(128).Derive(context.Background(), src, "image/png")
	if !bytes.Equal(thumb, src) {
		t.Fatalf("small image should pass through unchanged")
	}
}

func TestDeriveFallsBackOnGarbage(t *testing.T) {
	src := []byte("not an image at all")
	thumb, mime := NewScaler(128).Derive(context.Background(), src, "application/octet-stream")
	if !bytes.Equal(thumb, src) || mime != "application/octet-stream" {
		t.Fatalf("deriver must fall back to the original payload")
	}
}
