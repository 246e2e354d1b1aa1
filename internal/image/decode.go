// Package image decodes and resamples trait assets.
package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Decoding errors.
var (
	// ErrEmptyData is returned when there are no bytes to decode.
	ErrEmptyData = errors.New("image: empty data")

	// ErrNotImage is returned when the payload is not recognised as an image.
	ErrNotImage = errors.New("image: payload is not an image")

	// ErrUnsupportedFormat is returned for image types without a decoder.
	ErrUnsupportedFormat = errors.New("image: unsupported format")
)

// decodable lists the sniffed extensions a registered decoder can handle.
var decodable = map[string]bool{
	"png":  true,
	"jpg":  true,
	"gif":  true,
	"webp": true,
	"bmp":  true,
	"tif":  true,
}

// Sniff reports the detected file extension and MIME type of data.
func Sniff(data []byte) (ext, mime string, err error) {
	if len(data) == 0 {
		return "", "", ErrEmptyData
	}
	kind, err := filetype.Match(data)
	if err != nil {
		return "", "", fmt.Errorf("image: sniff: %w", err)
	}
	if kind == filetype.Unknown || kind.MIME.Type != "image" {
		return "", "", ErrNotImage
	}
	return kind.Extension, kind.MIME.Value, nil
}

// Decode sniffs and decodes an encoded image. The format name reported by
// the decoder is returned alongside the image.
func Decode(data []byte) (image.Image, string, error) {
	ext, mime, err := Sniff(data)
	if err != nil {
		return nil, "", err
	}
	if !decodable[ext] {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mime)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("image: decode %s: %w", ext, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", fmt.Errorf("image: decode %s: empty bounds %v", ext, b)
	}
	return img, format, nil
}
