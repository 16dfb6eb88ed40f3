// Package imaging normalizes item photos. Every accepted upload is
// sniffed, bounded, and stored as a modest JPEG; a photo exists to
// recognize an item on a shelf, not to archive it.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

const (
	// MaxUploadBytes caps how much image data an upload may carry.
	MaxUploadBytes = 10 << 20

	// MaxDimension is the longest edge a stored photo may have.
	MaxDimension = 1024

	// jpegQuality is the encoder setting for stored photos.
	jpegQuality = 85
)

// ErrUnsupportedFormat is returned for uploads that are neither JPEG
// nor PNG, judged by their bytes rather than any client-sent type.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Shrink reads an uploaded image and returns the bytes to store along
// with their MIME type. Oversized images are scaled down and the
// result is always JPEG, so storage size stays predictable no matter
// what the camera produced.
func Shrink(r io.Reader) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading image: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, "", fmt.Errorf("image larger than %d bytes", MaxUploadBytes)
	}

	switch detected := http.DetectContentType(data); detected {
	case "image/jpeg", "image/png":
	default:
		return nil, "", fmt.Errorf("%w: %s (only JPEG and PNG are accepted)", ErrUnsupportedFormat, detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}

	if bounds := img.Bounds(); bounds.Dx() > MaxDimension || bounds.Dy() > MaxDimension {
		img = scaleDown(img)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("encoding photo: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// scaleDown resizes so the longest edge lands on MaxDimension while
// keeping the aspect ratio. Catmull-Rom keeps text on box labels
// legible after the resize.
func scaleDown(img image.Image) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	scale := float64(MaxDimension) / float64(max(w, h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
