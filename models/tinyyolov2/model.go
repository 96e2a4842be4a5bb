package tinyyolov2

import (
	"image"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-tinyyolo/images"
	"github.com/nvr-ai/go-tinyyolo/models/model"
	"github.com/nvr-ai/go-tinyyolo/models/postprocess"
)

// Model is a grid detector whose raw output is decoded by a Decoder.
type Model struct {
	options model.Options
	decoder *Decoder
}

// NewModel creates the Tiny YOLOv2 Pascal VOC model.
//
// Arguments:
//   - args: The arguments for creating a new model. Path is required; a
//     non-empty Labels overrides the VOC label set.
//
// Returns:
//   - *Model: The model.
//   - error: An error if the path is missing or the labels do not fit.
func NewModel(args model.NewModelArgs) (*Model, error) {
	if args.Path == "" {
		return nil, errors.New("NewModel requires path to be set")
	}

	params := VOCParams()
	if len(args.Labels) > 0 {
		params.Labels = args.Labels
	}

	return NewGridModel(model.Options{
		Name:    model.ModelNameTinyYOLOv2,
		Family:  model.ModelFamilyVOC,
		Path:    args.Path,
		Inputs:  []string{InputName},
		Outputs: []string{OutputName},
	}, params)
}

// NewGridModel creates a model for any Tiny YOLOv2 style export. The input
// and output shapes are derived from params: the input is NCHW RGB sized
// rows*cellHeight x cols*cellWidth.
//
// Arguments:
//   - options: Name, family, path and tensor names of the model.
//   - params: The grid the output is decoded with.
//
// Returns:
//   - *Model: The model.
//   - error: An error if params or the tensor names are invalid.
func NewGridModel(options model.Options, params Params) (*Model, error) {
	decoder, err := NewDecoder(params)
	if err != nil {
		return nil, err
	}
	if len(options.Inputs) != 1 || len(options.Outputs) != 1 {
		return nil, errors.Errorf("grid models take exactly one input and one output, got %d and %d",
			len(options.Inputs), len(options.Outputs))
	}

	width := int64(float32(params.GridCols) * params.CellWidth)
	height := int64(float32(params.GridRows) * params.CellHeight)
	options.InputShape = []int64{1, 3, height, width}
	options.OutputShape = []int64{1, int64(params.Channels()), int64(params.GridRows), int64(params.GridCols)}
	options.Labels = params.Labels

	return &Model{options: options, decoder: decoder}, nil
}

// Options returns the options of the model.
func (m *Model) Options() model.Options {
	return m.options
}

// Decoder returns the decoder of the model.
func (m *Model) Decoder() *Decoder {
	return m.decoder
}

// PreProcess stretches img to the network input and returns it as planar
// RGB with raw 0..255 values.
func (m *Model) PreProcess(img image.Image) []float32 {
	width, height := m.options.InputSize()
	return images.ToCHW(img, width, height, 1)
}

// PostProcess decodes the raw output and reduces the candidates with greedy
// NMS.
//
// Arguments:
//   - output: The flat output tensor.
//   - config: Decode threshold and NMS limits.
//
// Returns:
//   - []postprocess.BoundingBox: At most config.MaxDetections boxes in
//     network input space, highest confidence first.
//   - error: ErrTensorShape if output does not match the grid.
func (m *Model) PostProcess(output []float32, config *postprocess.NMSConfig) ([]postprocess.BoundingBox, error) {
	boxes, err := m.decoder.ParseOutputs(output, config.ConfidenceThreshold)
	if err != nil {
		return nil, err
	}
	return postprocess.ApplyGreedyNMS(boxes, config), nil
}
