// Package vision validates and normalizes uploaded note images: decoding,
// bounding dimensions, and re-encoding oversized pictures before storage.
package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// Image normalization errors
var (
	ErrInvalidImage      = errors.New("vision: invalid image data")
	ErrUnsupportedFormat = errors.New("vision: unsupported image format")
	ErrEmptyImage        = errors.New("vision: empty image data")
)

// MaxDimension is the longest side an uploaded image may keep. Larger
// images are downscaled to fit, preserving aspect ratio.
const MaxDimension = 2048

// jpegQuality for re-encoded uploads.
const jpegQuality = 90

// DecodeImage decodes image data from the supported formats (PNG, JPEG,
// GIF) and reports which one it found.
func DecodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	switch format {
	case "png", "jpeg", "gif":
		return img, format, nil
	default:
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Downscale resizes an image so its longest side is at most maxDim, using
// high-quality scaling and preserving aspect ratio. Images already within
// bounds are returned unchanged.
func Downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	longest := width
	if height > longest {
		longest = height
	}
	if longest <= maxDim {
		return img
	}

	scale := float64(maxDim) / float64(longest)
	newWidth := int(float64(width) * scale)
	newHeight := int(float64(height) * scale)
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// Normalize validates an uploaded image and bounds its dimensions.
//
// Images within MaxDimension pass through byte-identical; oversized images
// are downscaled and re-encoded in their original format (GIF becomes PNG,
// animation is not preserved). Returns the image bytes and content type.
func Normalize(data []byte) ([]byte, string, error) {
	img, format, err := DecodeImage(data)
	if err != nil {
		return nil, "", err
	}

	contentType := "image/" + format

	bounds := img.Bounds()
	if bounds.Dx() <= MaxDimension && bounds.Dy() <= MaxDimension {
		return data, contentType, nil
	}

	resized := Downscale(img, MaxDimension)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality})
	default:
		// GIF loses animation on resize anyway; PNG keeps it lossless
		contentType = "image/png"
		err = png.Encode(&buf, resized)
	}
	if err != nil {
		return nil, "", fmt.Errorf("vision: failed to encode resized image: %w", err)
	}

	return buf.Bytes(), contentType, nil
}
