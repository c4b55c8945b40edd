package playback

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/chai2010/webp"
)

// ArtworkProcessor converts embedded cover art to WebP for the frontend.
type ArtworkProcessor struct {
	quality float32
}

// NewArtworkProcessor creates a processor with the configured WebP quality.
func NewArtworkProcessor(quality float32) *ArtworkProcessor {
	if quality < 1 || quality > 100 {
		quality = 90
	}
	return &ArtworkProcessor{quality: quality}
}

// ToWebP re-encodes cover art as WebP. WebP input passes through untouched.
func (ap *ArtworkProcessor) ToWebP(art *Artwork) ([]byte, error) {
	if art.MIMEType == "image/webp" {
		return art.Data, nil
	}

	img, err := decodeImage(bytes.NewReader(art.Data), art.MIMEType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode artwork: %w", err)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: ap.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode as WebP: %w", err)
	}

	return buf.Bytes(), nil
}

func decodeImage(reader io.Reader, mimeType string) (image.Image, error) {
	switch mimeType {
	case "image/jpeg", "image/jpg":
		return jpeg.Decode(reader)
	case "image/png":
		return png.Decode(reader)
	default:
		img, _, err := image.Decode(reader)
		return img, err
	}
}
