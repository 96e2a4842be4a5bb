package inference

import (
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-tinyyolo/inference/providers"
	"github.com/nvr-ai/go-tinyyolo/models/model"
)

// Runner executes a network on one flat input tensor.
type Runner interface {
	Run(input []float32) ([]float32, error)
	Close() error
}

var environmentMu sync.Mutex

// initEnvironment loads the ONNX Runtime shared library once per process.
func initEnvironment(libPath string) error {
	environmentMu.Lock()
	defer environmentMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if _, err := os.Stat(libPath); err != nil {
		return errors.Wrapf(err, "ONNX Runtime library not found at %q", libPath)
	}

	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "error initializing ORT environment")
	}
	return nil
}

// SessionStats are the counters of a Session.
type SessionStats struct {
	Runs      int64         `json:"runs"`
	TotalTime time.Duration `json:"total_time"`
}

// Average returns the mean run time.
func (s SessionStats) Average() time.Duration {
	if s.Runs == 0 {
		return 0
	}
	return s.TotalTime / time.Duration(s.Runs)
}

// Session is an ONNX Runtime session with one pre-allocated input and
// output tensor. Runs are serialized.
type Session struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]

	mu    sync.Mutex
	stats SessionStats
}

// NewSession creates an ONNX Runtime session for the model.
//
// Order of operations:
//  1. Environment setup: loads the shared library once per process.
//  2. Tensor allocation: fixed-shape buffers for the input and output.
//  3. Session options: threading, optimization level and execution provider.
//  4. Session creation: loads the model and binds the tensors.
//
// Arguments:
//   - opts: The model options; names and shapes of the single input and output.
//   - provider: The execution provider configuration.
//   - libPath: The ONNX Runtime shared library.
//
// Returns:
//   - *Session: The session. Close releases all native resources.
//   - error: An error if any step fails; nothing is leaked in that case.
func NewSession(opts model.Options, provider providers.Config, libPath string) (*Session, error) {
	if len(opts.Inputs) != 1 || len(opts.Outputs) != 1 {
		return nil, errors.Errorf("session needs one input and one output, got %d and %d",
			len(opts.Inputs), len(opts.Outputs))
	}
	if err := initEnvironment(libPath); err != nil {
		return nil, err
	}

	s := &Session{}
	var err error

	s.input, err = ort.NewEmptyTensor[float32](ort.NewShape(opts.InputShape...))
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}
	s.output, err = ort.NewEmptyTensor[float32](ort.NewShape(opts.OutputShape...))
	if err != nil {
		s.Close()
		return nil, errors.Wrap(err, "error creating output tensor")
	}

	options, err := providers.SessionOptions(provider)
	if err != nil {
		s.Close()
		return nil, err
	}
	defer options.Destroy()

	s.session, err = ort.NewAdvancedSession(
		opts.Path,
		opts.Inputs,
		opts.Outputs,
		[]ort.ArbitraryTensor{s.input},
		[]ort.ArbitraryTensor{s.output},
		options,
	)
	if err != nil {
		s.Close()
		return nil, errors.Wrapf(err, "error creating ORT session for %s", opts.Path)
	}

	return s, nil
}

// Run copies input into the input tensor, runs the network and returns a
// copy of the output tensor.
//
// Arguments:
//   - input: The flat input, exactly the size of the input tensor.
//
// Returns:
//   - []float32: The flat output.
//   - error: An error if the input has the wrong size or the run fails.
func (s *Session) Run(input []float32) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, errors.New("session is closed")
	}

	dst := s.input.GetData()
	if len(input) != len(dst) {
		return nil, errors.Errorf("input holds %d floats, tensor needs %d", len(input), len(dst))
	}
	copy(dst, input)

	start := time.Now()
	if err := s.session.Run(); err != nil {
		return nil, errors.Wrap(err, "failed to run inference")
	}
	s.stats.Runs++
	s.stats.TotalTime += time.Since(start)

	out := s.output.GetData()
	result := make([]float32, len(out))
	copy(result, out)
	return result, nil
}

// Stats returns the run counters.
func (s *Session) Stats() SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close releases the resources associated with the Session. It is safe to
// call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.session != nil {
		if destroyErr := s.session.Destroy(); destroyErr != nil {
			err = errors.Wrap(destroyErr, "error destroying ORT session")
		}
		s.session = nil
	}
	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	if s.output != nil {
		s.output.Destroy()
		s.output = nil
	}
	return err
}
