package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
)

// Variant sizes.
const (
	SizeThumb    = "thumb"
	SizeMedium   = "medium"
	SizeOriginal = "original"
)

const (
	qualityThumb  = 60
	qualityMedium = 75

	maxSizeThumb  = 300
	maxSizeMedium = 800
)

type variantSpec struct {
	maxDim  int
	quality int
}

var variants = map[string]variantSpec{
	SizeThumb:  {maxDim: maxSizeThumb, quality: qualityThumb},
	SizeMedium: {maxDim: maxSizeMedium, quality: qualityMedium},
}

// IsKnownSize reports whether size names a variant or the original.
func IsKnownSize(size string) bool {
	if size == SizeOriginal {
		return true
	}
	_, ok := variants[size]
	return ok
}

// OptimizeImage decodes raw image bytes, applies the EXIF orientation,
// shrinks the image to fit the variant box and encodes it as JPEG.
// Images already inside the box are re-encoded without resizing.
func OptimizeImage(data []byte, size string) ([]byte, error) {
	spec, ok := variants[size]
	if !ok {
		return nil, fmt.Errorf("unknown image size %q", size)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	img = applyOrientation(img, readOrientation(data))

	bounds := img.Bounds()
	if bounds.Dx() > spec.maxDim || bounds.Dy() > spec.maxDim {
		img = imaging.Fit(img, spec.maxDim, spec.maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: spec.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode to JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// readOrientation returns the EXIF orientation tag, or 1 when the image has
// no usable EXIF data.
func readOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
