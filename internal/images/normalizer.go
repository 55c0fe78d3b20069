package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	// Registered decoders for the upload allow-list
	_ "image/png"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// MaxUploadBytes is the size ceiling for a raw upload (100 MiB)
	MaxUploadBytes = 100 * 1024 * 1024
	// MaxDimension bounds the longer side of a normalized image
	MaxDimension = 2048
	// jpegQuality is the re-encode quality for normalized images
	jpegQuality = 90
)

// Sentinel errors for upload-time image faults
var (
	// ErrUnsupportedType indicates the declared content type is not in the allow-list
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrTooLarge indicates the upload exceeds MaxUploadBytes
	ErrTooLarge = errors.New("image exceeds maximum size")
	// ErrInvalidImage indicates the upload could not be decoded
	ErrInvalidImage = errors.New("invalid image file")
)

// allowedContentTypes is the upload allow-list. Everything is re-encoded to
// JPEG afterwards, so the pipeline never branches on input format.
var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// Normalizer converts arbitrary uploaded images to the canonical stored form:
// opaque RGB, at most MaxDimension on the longer side, JPEG quality 90.
type Normalizer struct {
	storage *Storage
}

// NewNormalizer creates a normalizer that persists results into storage
func NewNormalizer(storage *Storage) *Normalizer {
	return &Normalizer{storage: storage}
}

// Normalize validates, decodes, flattens, resizes and re-encodes an upload,
// persists the result under a fresh unique filename tagged with the slot, and
// returns the encoded bytes together with that filename. Exactly one file is
// written per call.
func (n *Normalizer) Normalize(data []byte, contentType string, slot string) ([]byte, string, error) {
	if !allowedContentTypes[contentType] {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if len(data) > MaxUploadBytes {
		return nil, "", fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	img := fit(flatten(src))

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("failed to encode image: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.jpg", uuid.New().String(), slot)
	if err := n.storage.Save(filename, buf.Bytes()); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), filename, nil
}

// flatten draws the source onto an opaque white canvas, collapsing any alpha
// or palette channel into plain RGB. Deliberately lossy and deterministic so
// every stored image shares one color model.
func flatten(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)

	return dst
}

// fit downsamples with a high-quality filter so neither dimension exceeds
// MaxDimension, preserving aspect ratio. Images already in bounds pass
// through untouched; nothing is ever upscaled.
func fit(src *image.RGBA) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= MaxDimension && h <= MaxDimension {
		return src
	}

	scale := float64(MaxDimension) / float64(max(w, h))
	nw := max(int(float64(w)*scale), 1)
	nh := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)

	return dst
}
