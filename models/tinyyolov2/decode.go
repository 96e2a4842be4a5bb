package tinyyolov2

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-tinyyolo/models/postprocess"
)

// ErrTensorShape is returned when the model output does not match the grid
// the decoder was built for. It signals a model/decoder mismatch, not a
// transient failure.
var ErrTensorShape = errors.New("output tensor does not match decoder grid")

// Decoder converts raw grid outputs into candidate bounding boxes.
//
// A Decoder holds no mutable state and may be shared between goroutines.
type Decoder struct {
	params Params
}

var vocDecoder = &Decoder{params: VOCParams()}

// NewDecoder creates a decoder for the given grid.
//
// Arguments:
//   - params: The grid, anchors and labels of the model.
//
// Returns:
//   - *Decoder: The decoder.
//   - error: ErrInvalidParams if the grid is empty.
func NewDecoder(params Params) (*Decoder, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Decoder{params: params}, nil
}

// Params returns the parameters of the decoder.
func (d *Decoder) Params() Params {
	return d.params
}

// ParseOutputs decodes a Tiny YOLOv2 VOC output tensor with the default
// anchors and labels. See Decoder.ParseOutputs.
func ParseOutputs(output []float32, threshold float32) ([]postprocess.BoundingBox, error) {
	return vocDecoder.ParseOutputs(output, threshold)
}

// ParseOutputs walks every anchor box of every grid cell and returns the
// boxes whose objectness and best class score both reach threshold.
//
// For anchor b of cell (row, column):
//
//	x      = (column + sigmoid(tx)) * cellWidth
//	y      = (row + sigmoid(ty)) * cellHeight
//	width  = exp(tw) * cellWidth * anchor[b].Width
//	height = exp(th) * cellHeight * anchor[b].Height
//	score  = max(softmax(classes)) * sigmoid(tc)
//
// The same threshold is applied to the objectness before class scoring and
// to the combined score. The returned boxes are in input pixel space with
// (X, Y) at the top-left corner; their order carries no meaning.
//
// Arguments:
//   - output: The flat, channel-major output tensor.
//   - threshold: The objectness and class score cutoff.
//
// Returns:
//   - []postprocess.BoundingBox: The surviving candidates, possibly empty.
//   - error: ErrTensorShape if output has the wrong length.
func (d *Decoder) ParseOutputs(output []float32, threshold float32) ([]postprocess.BoundingBox, error) {
	p := d.params
	if want := p.TensorLength(); len(output) != want {
		return nil, errors.Wrapf(ErrTensorShape, "got %d floats, want %d", len(output), want)
	}

	channelStride := p.GridRows * p.GridCols
	boxStride := p.BoxStride()
	classes := make([]float32, len(p.Labels))
	boxes := make([]postprocess.BoundingBox, 0)

	for row := 0; row < p.GridRows; row++ {
		for column := 0; column < p.GridCols; column++ {
			cell := row*p.GridCols + column

			for b, anchor := range p.Anchors {
				channel := b * boxStride
				at := func(c int) float32 {
					return output[(channel+c)*channelStride+cell]
				}

				confidence := Sigmoid(at(4))
				if confidence < threshold {
					continue
				}

				for c := range classes {
					classes[c] = at(BoxInfoFeatureCount + c)
				}
				Softmax(classes)
				topClass, topProbability := argMax(classes)

				score := topProbability * confidence
				if score < threshold {
					continue
				}

				x := (float32(column) + Sigmoid(at(0))) * p.CellWidth
				y := (float32(row) + Sigmoid(at(1))) * p.CellHeight
				width := math32.Exp(at(2)) * p.CellWidth * anchor.Width
				height := math32.Exp(at(3)) * p.CellHeight * anchor.Height

				boxes = append(boxes, postprocess.BoundingBox{
					X:          x - width/2,
					Y:          y - height/2,
					Width:      width,
					Height:     height,
					Label:      p.Labels[topClass],
					Class:      topClass,
					Confidence: score,
				})
			}
		}
	}

	return boxes, nil
}

// ParseTensor decodes a float32 tensor shaped [channels, rows, cols] or
// [1, channels, rows, cols].
//
// Arguments:
//   - t: The output tensor.
//   - threshold: The objectness and class score cutoff.
//
// Returns:
//   - []postprocess.BoundingBox: The surviving candidates.
//   - error: ErrTensorShape if the type or shape does not match the grid.
func (d *Decoder) ParseTensor(t tensor.Tensor, threshold float32) ([]postprocess.BoundingBox, error) {
	if t.Dtype() != tensor.Float32 {
		return nil, errors.Wrapf(ErrTensorShape, "dtype %v, want float32", t.Dtype())
	}

	shape := t.Shape()
	if len(shape) == 4 && shape[0] == 1 {
		shape = shape[1:]
	}
	p := d.params
	if len(shape) != 3 || shape[0] != p.Channels() || shape[1] != p.GridRows || shape[2] != p.GridCols {
		return nil, errors.Wrapf(ErrTensorShape, "shape %v, want (1,)%dx%dx%d",
			t.Shape(), p.Channels(), p.GridRows, p.GridCols)
	}

	data, ok := t.Data().([]float32)
	if !ok {
		return nil, errors.Wrapf(ErrTensorShape, "backing %T is not []float32", t.Data())
	}
	return d.ParseOutputs(data, threshold)
}
