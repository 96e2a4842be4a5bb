// Package providers - ONNX Runtime execution providers and session options.
package providers

import (
	"runtime"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// ProviderBackend represents different ONNX Runtime execution providers.
type ProviderBackend string

// ErrUnsupportedBackend is returned for backends this package cannot enable.
var ErrUnsupportedBackend = errors.New("unsupported execution provider")

// Backends lists every supported backend.
func Backends() []ProviderBackend {
	return []ProviderBackend{
		CPUProviderBackend,
		CoreMLProviderBackend,
		OpenVINOProviderBackend,
		CUDAProviderBackend,
	}
}

// Config selects the execution provider and threading of a session.
type Config struct {
	// Backend specifies the backend to use.
	Backend ProviderBackend `json:"backend" yaml:"backend"`
	// IntraOpNumThreads parallelizes execution within graph nodes. 0 uses the
	// ONNX Runtime default.
	IntraOpNumThreads int `json:"intra_op_num_threads" yaml:"intra_op_num_threads"`
	// InterOpNumThreads parallelizes execution across graph nodes. 0 uses the
	// ONNX Runtime default.
	InterOpNumThreads int `json:"inter_op_num_threads" yaml:"inter_op_num_threads"`
	// CoreML holds options used when Backend is coreml.
	CoreML CoreMLOptions `json:"coreml" yaml:"coreml"`
	// OpenVINO holds options used when Backend is openvino.
	OpenVINO OpenVINOOptions `json:"openvino" yaml:"openvino"`
	// CUDA holds options used when Backend is cuda.
	CUDA CUDAOptions `json:"cuda" yaml:"cuda"`
}

// DefaultConfig returns a CPU configuration that uses half of the available
// cores within nodes.
func DefaultConfig() Config {
	return Config{
		Backend:           CPUProviderBackend,
		IntraOpNumThreads: max(1, runtime.NumCPU()/2),
		InterOpNumThreads: 1,
		OpenVINO:          DefaultOpenVINOOptions(),
	}
}

// Validate checks the backend and thread counts.
func (c Config) Validate() error {
	switch c.Backend {
	case CPUProviderBackend, CoreMLProviderBackend, OpenVINOProviderBackend, CUDAProviderBackend:
	default:
		return errors.Wrapf(ErrUnsupportedBackend, "%q", c.Backend)
	}
	if c.IntraOpNumThreads < 0 || c.InterOpNumThreads < 0 {
		return errors.Errorf("thread counts must not be negative, got intra=%d inter=%d",
			c.IntraOpNumThreads, c.InterOpNumThreads)
	}
	if c.Backend == OpenVINOProviderBackend {
		return c.OpenVINO.Validate()
	}
	return nil
}

// SessionOptions creates ONNX Runtime session options for the configuration.
// The caller owns the result and must Destroy it.
//
// Arguments:
//   - c: The provider configuration.
//
// Returns:
//   - *ort.SessionOptions: Configured session options.
//   - error: An error if the options cannot be created or the provider
//     cannot be enabled.
func SessionOptions(c Config) (*ort.SessionOptions, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "error creating ORT session options")
	}

	if err := configure(options, c); err != nil {
		options.Destroy()
		return nil, err
	}
	return options, nil
}

func configure(options *ort.SessionOptions, c Config) error {
	if err := options.SetIntraOpNumThreads(c.IntraOpNumThreads); err != nil {
		return errors.Wrap(err, "error setting intra-op threads")
	}
	if err := options.SetInterOpNumThreads(c.InterOpNumThreads); err != nil {
		return errors.Wrap(err, "error setting inter-op threads")
	}
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		return errors.Wrap(err, "error setting graph optimization level")
	}

	switch c.Backend {
	case CoreMLProviderBackend:
		return appendCoreML(options, c.CoreML)
	case OpenVINOProviderBackend:
		return appendOpenVINO(options, c.OpenVINO)
	case CUDAProviderBackend:
		return appendCUDA(options, c.CUDA)
	}
	return nil
}
