package vision

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeImage(t *testing.T) {
	img, format, err := DecodeImage(encodePNG(t, 10, 10))
	if err != nil {
		t.Fatalf("DecodeImage() error = %v", err)
	}
	if format != "png" {
		t.Errorf("format = %q, want png", format)
	}
	if img.Bounds().Dx() != 10 {
		t.Errorf("width = %d, want 10", img.Bounds().Dx())
	}
}

func TestDecodeImage_Errors(t *testing.T) {
	if _, _, err := DecodeImage(nil); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("DecodeImage(nil) error = %v, want ErrEmptyImage", err)
	}
	if _, _, err := DecodeImage([]byte("not an image")); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("DecodeImage(garbage) error = %v, want ErrInvalidImage", err)
	}
}

func TestDownscale(t *testing.T) {
	tests := []struct {
		name               string
		width, height      int
		maxDim             int
		wantW, wantH       int
	}{
		{name: "within bounds untouched", width: 100, height: 50, maxDim: 2048, wantW: 100, wantH: 50},
		{name: "wide image", width: 4096, height: 1024, maxDim: 2048, wantW: 2048, wantH: 512},
		{name: "tall image", width: 512, height: 4096, maxDim: 2048, wantW: 256, wantH: 2048},
		{name: "square at limit", width: 2048, height: 2048, maxDim: 2048, wantW: 2048, wantH: 2048},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := image.NewRGBA(image.Rect(0, 0, tt.width, tt.height))
			got := Downscale(src, tt.maxDim)

			if got.Bounds().Dx() != tt.wantW || got.Bounds().Dy() != tt.wantH {
				t.Errorf("Downscale() = %dx%d, want %dx%d",
					got.Bounds().Dx(), got.Bounds().Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestNormalize_PassthroughWithinBounds(t *testing.T) {
	original := encodePNG(t, 640, 480)

	data, contentType, err := Normalize(original)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if contentType != "image/png" {
		t.Errorf("contentType = %q, want image/png", contentType)
	}
	if !bytes.Equal(data, original) {
		t.Error("Normalize() re-encoded an image already within bounds")
	}
}

func TestNormalize_DownscalesOversized(t *testing.T) {
	data, contentType, err := Normalize(encodePNG(t, 3000, 1500))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if contentType != "image/png" {
		t.Errorf("contentType = %q, want image/png", contentType)
	}

	img, _, err := DecodeImage(data)
	if err != nil {
		t.Fatalf("decode normalized image: %v", err)
	}
	if img.Bounds().Dx() != MaxDimension {
		t.Errorf("normalized width = %d, want %d", img.Bounds().Dx(), MaxDimension)
	}
	if img.Bounds().Dy() != 1024 {
		t.Errorf("normalized height = %d, want 1024", img.Bounds().Dy())
	}
}

func TestNormalize_KeepsJPEGFormat(t *testing.T) {
	data, contentType, err := Normalize(encodeJPEG(t, 2500, 2500))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if contentType != "image/jpeg" {
		t.Errorf("contentType = %q, want image/jpeg", contentType)
	}

	_, format, err := DecodeImage(data)
	if err != nil {
		t.Fatalf("decode normalized image: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("normalized format = %q, want jpeg", format)
	}
}

func TestNormalize_RejectsGarbage(t *testing.T) {
	if _, _, err := Normalize([]byte("garbage")); err == nil {
		t.Error("Normalize() accepted invalid data")
	}
}
