package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Open Food Facts serves some images as WebP
)

const (
	// MaxThumbnailSide is the longest edge of a generated thumbnail in pixels.
	MaxThumbnailSide = 320
	thumbnailQuality = 80
)

// Thumbnail decodes data and re-encodes it as a JPEG whose longest side is at
// most maxSide. Images that are already small enough are only re-encoded.
func Thumbnail(data []byte, maxSide int) ([]byte, error) {
	if maxSide <= 0 {
		maxSide = MaxThumbnailSide
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("empty %s image", format)
	}

	newWidth, newHeight := width, height
	if width > maxSide || height > maxSide {
		if width >= height {
			newWidth = maxSide
			newHeight = height * maxSide / width
		} else {
			newHeight = maxSide
			newWidth = width * maxSide / height
		}
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}
