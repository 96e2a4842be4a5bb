// Package tinyyolov2 - decodes Tiny YOLOv2 style grid outputs into bounding boxes.
//
// The network divides a 416x416 input into a 13x13 grid of 32 pixel cells.
// Every cell predicts 5 boxes, one per anchor, and every box carries 5
// geometry/objectness features followed by one logit per class. The output
// tensor is laid out channel-major: offset = channel*169 + row*13 + column.
package tinyyolov2

import (
	"github.com/pkg/errors"
)

const (
	// InputSize is the width and height of the network input in pixels.
	InputSize = 416
	// GridSize is the number of rows and columns of the output grid.
	GridSize = 13
	// CellSize is the pixel size of one grid cell at InputSize.
	CellSize = InputSize / GridSize
	// BoxesPerCell is the number of anchor boxes predicted per grid cell.
	BoxesPerCell = 5
	// BoxInfoFeatureCount is the number of features preceding the class
	// logits of each box: x, y, width, height and objectness.
	BoxInfoFeatureCount = 5
	// ClassCount is the number of Pascal VOC classes.
	ClassCount = 20
	// ChannelCount is the number of channels in the output tensor.
	ChannelCount = BoxesPerCell * (ClassCount + BoxInfoFeatureCount)
	// TensorLength is the number of floats in one output tensor.
	TensorLength = ChannelCount * GridSize * GridSize

	// DefaultThreshold is the objectness and class score cutoff.
	DefaultThreshold float32 = 0.3

	// InputName is the name of the input tensor of the ONNX model.
	InputName = "image"
	// OutputName is the name of the output tensor of the ONNX model.
	OutputName = "grid"
)

// ErrInvalidParams is returned for grid parameters that cannot describe a
// tensor.
var ErrInvalidParams = errors.New("invalid decoder parameters")

// Anchor is the prior (width, height) of a box, in grid cell units.
type Anchor struct {
	Width  float32
	Height float32
}

var vocAnchors = [BoxesPerCell]Anchor{
	{1.08, 1.19},
	{3.42, 4.41},
	{6.63, 11.38},
	{9.42, 5.11},
	{16.62, 10.52},
}

var vocLabels = [ClassCount]string{
	"aeroplane", "bicycle", "bird", "boat", "bottle",
	"bus", "car", "cat", "chair", "cow",
	"diningtable", "dog", "horse", "motorbike", "person",
	"pottedplant", "sheep", "sofa", "train", "tvmonitor",
}

// VOCAnchors returns a copy of the Tiny YOLOv2 VOC anchor set.
func VOCAnchors() [BoxesPerCell]Anchor {
	return vocAnchors
}

// VOCLabels returns a copy of the Pascal VOC label set.
func VOCLabels() [ClassCount]string {
	return vocLabels
}

// Params describe the grid a decoder reads.
type Params struct {
	// GridRows, GridCols are the dimensions of the output grid.
	GridRows, GridCols int
	// CellWidth, CellHeight are the pixel size of one grid cell.
	CellWidth, CellHeight float32
	// Anchors holds one prior per box predicted in each cell.
	Anchors []Anchor
	// Labels are the class names, in logit order.
	Labels []string
}

// VOCParams returns the parameters of the Tiny YOLOv2 Pascal VOC model.
func VOCParams() Params {
	anchors := vocAnchors
	labels := vocLabels
	return Params{
		GridRows:   GridSize,
		GridCols:   GridSize,
		CellWidth:  CellSize,
		CellHeight: CellSize,
		Anchors:    anchors[:],
		Labels:     labels[:],
	}
}

// BoxStride is the number of channels used by each anchor box.
func (p Params) BoxStride() int {
	return len(p.Labels) + BoxInfoFeatureCount
}

// Channels is the number of channels in the output tensor.
func (p Params) Channels() int {
	return len(p.Anchors) * p.BoxStride()
}

// TensorLength is the number of floats in one output tensor.
func (p Params) TensorLength() int {
	return p.Channels() * p.GridRows * p.GridCols
}

// Validate checks that the parameters describe a non-empty grid.
func (p Params) Validate() error {
	switch {
	case p.GridRows <= 0 || p.GridCols <= 0:
		return errors.Wrapf(ErrInvalidParams, "grid %dx%d", p.GridRows, p.GridCols)
	case p.CellWidth <= 0 || p.CellHeight <= 0:
		return errors.Wrapf(ErrInvalidParams, "cell %vx%v", p.CellWidth, p.CellHeight)
	case len(p.Anchors) == 0:
		return errors.Wrap(ErrInvalidParams, "no anchors")
	case len(p.Labels) == 0:
		return errors.Wrap(ErrInvalidParams, "no labels")
	}
	return nil
}
