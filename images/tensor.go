package images

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ToCHW stretches the image to width x height and lays its pixels out as
// planar RGB (all red values, then green, then blue), each multiplied by
// scale. A scale of 1 keeps the raw 0..255 intensities.
//
// Arguments:
//   - img: The source image, any size.
//   - width: The network input width.
//   - height: The network input height.
//   - scale: Multiplier applied to each 8-bit channel value.
//
// Returns:
//   - []float32: A tensor of length 3*width*height.
func ToCHW(img image.Image, width, height int, scale float32) []float32 {
	resized := resize.Resize(uint(width), uint(height), img, resize.Bilinear)
	bounds := resized.Bounds()

	channelSize := width * height
	data := make([]float32, channelSize*3)
	red := data[0:channelSize]
	green := data[channelSize : channelSize*2]
	blue := data[channelSize*2 : channelSize*3]

	i := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			red[i] = float32(r>>8) * scale
			green[i] = float32(g>>8) * scale
			blue[i] = float32(b>>8) * scale
			i++
		}
	}
	return data
}

// MatToCHW converts a BGR gocv frame into the same planar RGB layout as
// ToCHW.
//
// Arguments:
//   - mat: The BGR frame.
//   - width: The network input width.
//   - height: The network input height.
//   - scale: Multiplier applied to each 8-bit channel value.
//
// Returns:
//   - []float32: A tensor of length 3*width*height.
//   - error: An error if the frame is empty or the blob cannot be read.
func MatToCHW(mat gocv.Mat, width, height int, scale float32) ([]float32, error) {
	if mat.Empty() {
		return nil, errors.New("empty frame")
	}

	blob := gocv.BlobFromImage(mat, float64(scale), image.Pt(width, height), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	data, err := blob.DataPtrFloat32()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read blob data")
	}
	if len(data) < width*height*3 {
		return nil, errors.Errorf("blob holds %d floats, needs %d", len(data), width*height*3)
	}

	out := make([]float32, width*height*3)
	copy(out, data)
	return out, nil
}
