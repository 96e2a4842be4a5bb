package images

import "bytes"

// ImageFormat represents supported image formats
type ImageFormat string

// ImageFormat constants
const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatWebP is the WebP image format.
	FormatWebP ImageFormat = "webp"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
	// FormatBMP is the BMP image format.
	FormatBMP ImageFormat = "bmp"
	// FormatGIF is the GIF image format.
	FormatGIF ImageFormat = "gif"
	// FormatTIFF is the TIFF image format.
	FormatTIFF ImageFormat = "tiff"
	// FormatUnknown is returned when the header matches no known signature.
	FormatUnknown ImageFormat = "unknown"
)

// See http://www.mikekunz.com/image_file_header.html
var signatures = []struct {
	format ImageFormat
	magic  []byte
}{
	{FormatBMP, []byte("BM")},
	{FormatGIF, []byte("GIF")},
	{FormatPNG, []byte{137, 80, 78, 71}},
	{FormatTIFF, []byte{73, 73, 42}},
	{FormatTIFF, []byte{77, 77, 42}},
	{FormatJPEG, []byte{255, 216, 255, 224}}, // JFIF
	{FormatJPEG, []byte{255, 216, 255, 225}}, // EXIF (Canon)
	{FormatJPEG, []byte{255, 216, 255, 219}},
	{FormatJPEG, []byte{255, 216, 255, 226}},
}

// DetectFormat sniffs the image format from the leading magic bytes.
//
// Arguments:
//   - data: The encoded image bytes.
//
// Returns:
//   - ImageFormat: The detected format, or FormatUnknown.
func DetectFormat(data []byte) ImageFormat {
	for _, sig := range signatures {
		if bytes.HasPrefix(data, sig.magic) {
			return sig.format
		}
	}
	// RIFF....WEBP
	if len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return FormatWebP
	}
	return FormatUnknown
}

// IsSupported reports whether the detector can decode images of this format.
func (f ImageFormat) IsSupported() bool {
	switch f {
	case FormatJPEG, FormatPNG, FormatWebP, FormatBMP:
		return true
	default:
		return false
	}
}
