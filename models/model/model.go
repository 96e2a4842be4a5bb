// Package model - Definitions shared by every grid detection model.
package model

import (
	"image"

	"github.com/nvr-ai/go-tinyyolo/models/postprocess"
)

// Family is the family of models.
type Family string

const (
	// ModelFamilyVOC is the Pascal VOC model family.
	ModelFamilyVOC Family = "voc"
	// ModelFamilyCustomVision is the family of Azure Custom Vision exports.
	ModelFamilyCustomVision Family = "customvision"
)

// Name is the unique identifier of a model.
type Name string

const (
	// ModelNameTinyYOLOv2 is the name of the Tiny YOLOv2 VOC model.
	ModelNameTinyYOLOv2 Name = "tinyyolov2"
	// ModelNameCustomVision is the name of a Custom Vision object detector.
	ModelNameCustomVision Name = "customvision"
)

// Options describe how a model is loaded and fed.
type Options struct {
	Name    Name     `json:"name" yaml:"name"`
	Family  Family   `json:"family" yaml:"family"`
	Path    string   `json:"path" yaml:"path"`
	Inputs  []string `json:"inputs" yaml:"inputs"`
	Outputs []string `json:"outputs" yaml:"outputs"`
	// InputShape is the NCHW shape of the single input tensor.
	InputShape []int64 `json:"input_shape" yaml:"input_shape"`
	// OutputShape is the shape of the single output tensor.
	OutputShape []int64 `json:"output_shape" yaml:"output_shape"`
	// Labels are the class names indexed by class id.
	Labels []string `json:"labels" yaml:"labels"`
}

// InputSize returns the (width, height) of the network input.
func (o Options) InputSize() (int, int) {
	n := len(o.InputShape)
	if n < 2 {
		return 0, 0
	}
	return int(o.InputShape[n-1]), int(o.InputShape[n-2])
}

// Model is a detection model that converts images into network inputs and
// network outputs into bounding boxes.
type Model interface {
	Options() Options
	PreProcess(img image.Image) []float32
	PostProcess(output []float32, config *postprocess.NMSConfig) ([]postprocess.BoundingBox, error)
}

// NewModelArgs is the arguments for creating a new model.
type NewModelArgs struct {
	Name Name   `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
	// LabelsPath points at a newline separated label file. Only used by
	// models without a built-in label set.
	LabelsPath string `json:"labels_path" yaml:"labels_path"`
	// Labels overrides the label set when non-empty.
	Labels []string `json:"labels" yaml:"labels"`
}
