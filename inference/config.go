// Package inference - Runs grid detection models on images and frames.
package inference

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-tinyyolo/inference/providers"
	"github.com/nvr-ai/go-tinyyolo/models/model"
	"github.com/nvr-ai/go-tinyyolo/models/postprocess"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid inference config")

// Config is the complete configuration of a Detector.
type Config struct {
	// Model selects the network and its labels.
	Model model.NewModelArgs `json:"model" yaml:"model"`
	// NMS holds the decode threshold and suppression limits.
	NMS postprocess.NMSConfig `json:"nms" yaml:"nms"`
	// Classes limits results to these labels. Empty keeps every class.
	Classes []string `json:"classes" yaml:"classes"`
	// Provider selects the ONNX Runtime execution provider.
	Provider providers.Config `json:"provider" yaml:"provider"`
	// LibraryPath is the ONNX Runtime shared library.
	LibraryPath string `json:"library_path" yaml:"library_path"`
}

// DefaultConfig returns the Tiny YOLOv2 configuration: 0.3 threshold, 0.5
// overlap, at most 5 boxes, CPU provider.
func DefaultConfig() Config {
	return Config{
		Model:       model.NewModelArgs{Name: model.ModelNameTinyYOLOv2},
		NMS:         postprocess.DefaultNMSConfig(),
		Provider:    providers.DefaultConfig(),
		LibraryPath: providers.GetSharedLibPath(),
	}
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result.
//
// Arguments:
//   - path: The YAML file.
//
// Returns:
//   - Config: The merged configuration.
//   - error: An error if the file cannot be read, parsed or validated.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config %s", path)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(err, "failed to parse config")
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks thresholds, limits, the model path and the provider.
func (c Config) Validate() error {
	switch {
	case c.Model.Path == "":
		return errors.Wrap(ErrInvalidConfig, "model path is required")
	case c.NMS.ConfidenceThreshold < 0 || c.NMS.ConfidenceThreshold > 1:
		return errors.Wrapf(ErrInvalidConfig, "confidence threshold %v outside [0, 1]", c.NMS.ConfidenceThreshold)
	case c.NMS.IoUThreshold < 0 || c.NMS.IoUThreshold > 1:
		return errors.Wrapf(ErrInvalidConfig, "iou threshold %v outside [0, 1]", c.NMS.IoUThreshold)
	case c.NMS.MaxDetections < 0:
		return errors.Wrapf(ErrInvalidConfig, "max detections %d is negative", c.NMS.MaxDetections)
	}
	if err := c.Provider.Validate(); err != nil {
		return errors.Wrap(err, "provider")
	}
	return nil
}
