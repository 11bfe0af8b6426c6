package facematch

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultCropMargin pads each face crop by this fraction of the box size.
	DefaultCropMargin = 0.2
	// MaxCropSide caps the longer side of a crop sent to the embedder.
	MaxCropSide = 640
	jpegQuality = 90
)

// ErrEmptyCrop is returned when a bounding box does not overlap the image.
var ErrEmptyCrop = errors.New("bounding box outside image")

// DecodeImage decodes JPEG, PNG, GIF, BMP, TIFF or WebP data.
func DecodeImage(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// CropFace cuts the face region out of img, padded by margin and clamped to the image.
// Crops larger than MaxCropSide are downscaled keeping aspect ratio.
func CropFace(img image.Image, box BBox, margin float64) (image.Image, error) {
	if !box.Valid() {
		return nil, fmt.Errorf("invalid bounding box %v", box)
	}

	rect := box.Expand(margin).Rect(img.Bounds())
	if rect.Empty() {
		return nil, ErrEmptyCrop
	}

	width, height := rect.Dx(), rect.Dy()
	if width > MaxCropSide || height > MaxCropSide {
		if width > height {
			height = max(1, height*MaxCropSide/width)
			width = MaxCropSide
		} else {
			width = max(1, width*MaxCropSide/height)
			height = MaxCropSide
		}
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, rect, draw.Over, nil)
		return dst, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst, nil
}

// EncodeJPEG encodes img as JPEG for upload to the embedding server.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// CropFaceJPEG crops box from img and returns the JPEG-encoded face.
func CropFaceJPEG(img image.Image, box BBox, margin float64) ([]byte, error) {
	face, err := CropFace(img, box, margin)
	if err != nil {
		return nil, err
	}
	return EncodeJPEG(face)
}
