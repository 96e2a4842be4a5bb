// Package images - Image definition for processing utilities.
package images

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
)

// ErrUnsupportedFormat is returned when encoded bytes are not jpeg, png, webp or bmp.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Image represents an image with a format, data, width, and height.
type Image struct {
	// The format of the image.
	Format ImageFormat `json:"format" yaml:"format"`
	// The data of the image.
	Data []byte `json:"data" yaml:"data"`
	// The width of the image.
	Width int `json:"width" yaml:"width"`
	// The height of the image.
	Height int `json:"height" yaml:"height"`
}

// Decode decodes jpeg, png, webp or bmp bytes into an image.Image.
//
// Arguments:
//   - data: The encoded image bytes.
//
// Returns:
//   - image.Image: The decoded image.
//   - error: ErrUnsupportedFormat for other formats, or the decoder error.
func Decode(data []byte) (image.Image, error) {
	format := DetectFormat(data)

	var (
		img image.Image
		err error
	)
	switch format {
	case FormatJPEG:
		img, err = jpeg.Decode(bytes.NewReader(data))
	case FormatPNG:
		img, err = png.Decode(bytes.NewReader(data))
	case FormatWebP:
		img, err = webp.Decode(bytes.NewReader(data))
	case FormatBMP:
		img, err = bmp.Decode(bytes.NewReader(data))
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s image", format)
	}
	return img, nil
}

// NewImage decodes the bytes and records their format and dimensions.
func NewImage(data []byte) (*Image, image.Image, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, nil, err
	}
	b := img.Bounds()
	return &Image{
		Format: DetectFormat(data),
		Data:   data,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, img, nil
}
