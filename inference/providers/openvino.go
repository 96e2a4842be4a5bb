package providers

import (
	"strconv"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	// OpenVINOProviderBackend uses Intel OpenVINO for inference optimization.
	OpenVINOProviderBackend ProviderBackend = "openvino"
)

// Precision represents the inference precision of an OpenVINO device.
//
// See:
// https://onnxruntime.ai/docs/execution-providers/OpenVINO-ExecutionProvider.html#summary-of-options
type Precision string

const (
	// PrecisionAccuracy executes with the model's own input precision.
	PrecisionAccuracy Precision = "ACCURACY"
	// PrecisionFP32 represents 32-bit floating point precision.
	PrecisionFP32 Precision = "FP32"
	// PrecisionFP16 represents 16-bit floating point precision.
	PrecisionFP16 Precision = "FP16"
)

// OpenVINOOptions contains arguments for the OpenVINO provider.
type OpenVINOOptions struct {
	DeviceID string `json:"device_id" yaml:"device_id"`
	// Overrides the accelerator hardware type (CPU, GPU, NPU).
	DeviceType string `json:"device_type" yaml:"device_type"`
	// Supported precisions for HW {CPU:FP32, GPU:[FP32, FP16, ACCURACY], NPU:FP16}.
	Precision Precision `json:"precision" yaml:"precision"`
	// Overrides the accelerator default number of threads. 0 keeps the default.
	NumOfThreads int `json:"num_of_threads" yaml:"num_of_threads"`
	// Overrides the accelerator default streams. 0 keeps the default.
	NumStreams int `json:"num_streams" yaml:"num_streams"`
}

// DefaultOpenVINOOptions returns FP32 inference on the first CPU device.
func DefaultOpenVINOOptions() OpenVINOOptions {
	return OpenVINOOptions{
		DeviceID:   "0",
		DeviceType: "CPU",
		Precision:  PrecisionFP32,
	}
}

// Validate checks the precision against the device type.
func (o OpenVINOOptions) Validate() error {
	switch o.Precision {
	case "", PrecisionFP32, PrecisionFP16, PrecisionAccuracy:
	default:
		return errors.Errorf("unsupported OpenVINO precision %q", o.Precision)
	}
	if o.DeviceType == "CPU" && o.Precision != "" && o.Precision != PrecisionFP32 {
		return errors.Errorf("OpenVINO CPU devices only support FP32, got %s", o.Precision)
	}
	if o.NumOfThreads < 0 || o.NumStreams < 0 {
		return errors.New("OpenVINO thread and stream counts must not be negative")
	}
	return nil
}

// Map returns the provider options in ONNX Runtime key form. Unset values
// are omitted.
func (o OpenVINOOptions) Map() map[string]string {
	m := map[string]string{}
	if o.DeviceID != "" {
		m["device_id"] = o.DeviceID
	}
	if o.DeviceType != "" {
		m["device_type"] = o.DeviceType
	}
	if o.Precision != "" {
		m["precision"] = string(o.Precision)
	}
	if o.NumOfThreads > 0 {
		m["num_of_threads"] = strconv.Itoa(o.NumOfThreads)
	}
	if o.NumStreams > 0 {
		m["num_streams"] = strconv.Itoa(o.NumStreams)
	}
	return m
}

func appendOpenVINO(options *ort.SessionOptions, o OpenVINOOptions) error {
	if err := options.AppendExecutionProviderOpenVINO(o.Map()); err != nil {
		return errors.Wrap(err, "error enabling OpenVINO")
	}
	return nil
}
