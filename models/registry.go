// Package models - registry for models.
package models

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-tinyyolo/models/customvision"
	"github.com/nvr-ai/go-tinyyolo/models/model"
	"github.com/nvr-ai/go-tinyyolo/models/tinyyolov2"
)

// ErrUnsupportedModel is returned for model names the registry does not know.
var ErrUnsupportedModel = errors.New("unsupported model name")

// Names lists the models NewModel can create.
func Names() []model.Name {
	return []model.Name{model.ModelNameTinyYOLOv2, model.ModelNameCustomVision}
}

// NewModel creates a new detection model instance based on the specified
// model name.
//
// Arguments:
//   - args: Configuration parameters specifying the model type and location.
//
// Returns:
//   - model.Model: A configured model instance implementing the Model interface.
//   - error: ErrUnsupportedModel or the constructor error of the model.
//
// Example:
//
//	m, err := NewModel(model.NewModelArgs{
//	    Name: model.ModelNameTinyYOLOv2,
//	    Path: "assets/Model/TinyYolo2_model.onnx",
//	})
//	if err != nil {
//	    log.Fatalf("Failed to create detection model: %v", err)
//	}
func NewModel(args model.NewModelArgs) (model.Model, error) {
	switch args.Name {
	case model.ModelNameTinyYOLOv2, "":
		m, err := tinyyolov2.NewModel(args)
		if err != nil {
			return nil, err
		}
		return m, nil
	case model.ModelNameCustomVision:
		m, err := customvision.NewModel(args)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedModel, "%q", args.Name)
	}
}
