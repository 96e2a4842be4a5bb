package inference

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-tinyyolo/images"
	"github.com/nvr-ai/go-tinyyolo/models"
	"github.com/nvr-ai/go-tinyyolo/models/model"
	"github.com/nvr-ai/go-tinyyolo/models/postprocess"
)

var (
	// ErrUnsupportedImage is returned by DetectBytes for encodings other than
	// jpeg, png, webp and bmp.
	ErrUnsupportedImage = errors.New("unsupported image")
	// ErrClosed is returned when a closed Detector is used.
	ErrClosed = errors.New("detector is closed")
)

// Stats are the counters of a Detector.
type Stats struct {
	// Images is the number of images run through the network.
	Images int64 `json:"images"`
	// Detections is the number of boxes returned.
	Detections int64 `json:"detections"`
	// InferenceTime is the time spent in the network.
	InferenceTime time.Duration `json:"inference_time"`
}

// FPS returns the network throughput in images per second.
func (s Stats) FPS() float64 {
	if s.InferenceTime <= 0 {
		return 0
	}
	return float64(s.Images) / s.InferenceTime.Seconds()
}

// Detector runs a model on images and returns boxes in source image space.
// A Detector is safe for concurrent use; network runs are serialized by the
// runner.
type Detector struct {
	model   model.Model
	runner  Runner
	config  Config
	classes map[string]bool
	logger  zerolog.Logger

	mu     sync.Mutex
	stats  Stats
	closed bool
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Detector) {
		d.logger = logger
	}
}

// WithRunner replaces the ONNX Runtime session with another runner.
func WithRunner(runner Runner) Option {
	return func(d *Detector) {
		d.runner = runner
	}
}

// WithModel replaces the model built from Config.Model.
func WithModel(m model.Model) Option {
	return func(d *Detector) {
		d.model = m
	}
}

// NewDetector creates the model named by config and an ONNX Runtime session
// for it.
//
// Arguments:
//   - config: The detector configuration.
//   - opts: Optional logger, model or runner overrides.
//
// Returns:
//   - *Detector: The detector. Close releases the session.
//   - error: An error if the configuration is invalid or the model or
//     session cannot be created.
func NewDetector(config Config, opts ...Option) (*Detector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	d := &Detector{
		config: config,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.model == nil {
		m, err := models.NewModel(config.Model)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create model")
		}
		d.model = m
	}

	if len(config.Classes) > 0 {
		d.classes = make(map[string]bool, len(config.Classes))
		for _, c := range config.Classes {
			d.classes[c] = true
		}
	}

	options := d.model.Options()
	if d.runner == nil {
		session, err := NewSession(options, config.Provider, config.LibraryPath)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create session")
		}
		d.runner = session
	}

	d.logger.Info().
		Str("model", string(options.Name)).
		Str("path", options.Path).
		Strs("inputs", options.Inputs).
		Strs("outputs", options.Outputs).
		Ints64("input_shape", options.InputShape).
		Ints64("output_shape", options.OutputShape).
		Str("provider", string(config.Provider.Backend)).
		Msg("detector initialized")

	return d, nil
}

// Model returns the model of the detector.
func (d *Detector) Model() model.Model {
	return d.model
}

// Detect runs the network on img.
//
// Arguments:
//   - ctx: Checked before the network runs.
//   - img: The source image, any size.
//
// Returns:
//   - []postprocess.BoundingBox: Boxes in img pixel space, highest
//     confidence first.
//   - error: The context error, ErrClosed or a runner/decode error.
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]postprocess.BoundingBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	return d.detect(ctx, d.model.PreProcess(img), b.Dx(), b.Dy())
}

// DetectBytes decodes a jpeg, png, webp or bmp image and runs Detect on it.
func (d *Detector) DetectBytes(ctx context.Context, data []byte) ([]postprocess.BoundingBox, error) {
	format := images.DetectFormat(data)
	if !format.IsSupported() {
		return nil, errors.Wrapf(ErrUnsupportedImage, "format %s", format)
	}

	img, err := images.Decode(data)
	if err != nil {
		return nil, err
	}
	return d.Detect(ctx, img)
}

// DetectMat runs the network on a BGR gocv frame.
func (d *Detector) DetectMat(ctx context.Context, mat gocv.Mat) ([]postprocess.BoundingBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	width, height := d.model.Options().InputSize()
	input, err := images.MatToCHW(mat, width, height, 1)
	if err != nil {
		return nil, err
	}
	return d.detect(ctx, input, mat.Cols(), mat.Rows())
}

func (d *Detector) detect(ctx context.Context, input []float32, srcWidth, srcHeight int) ([]postprocess.BoundingBox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.isClosed() {
		return nil, ErrClosed
	}

	start := time.Now()
	output, err := d.runner.Run(input)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	boxes, err := d.model.PostProcess(output, &d.config.NMS)
	if err != nil {
		return nil, err
	}

	width, height := d.model.Options().InputSize()
	results := make([]postprocess.BoundingBox, 0, len(boxes))
	for _, box := range boxes {
		if d.classes != nil && !d.classes[box.Label] {
			continue
		}
		results = append(results, box.Scale(float32(width), float32(height), float32(srcWidth), float32(srcHeight)))
	}

	d.mu.Lock()
	d.stats.Images++
	d.stats.Detections += int64(len(results))
	d.stats.InferenceTime += elapsed
	d.mu.Unlock()

	d.logger.Debug().
		Int("width", srcWidth).
		Int("height", srcHeight).
		Int("detections", len(results)).
		Dur("inference", elapsed).
		Msg("detect")

	return results, nil
}

// Stats returns the detector counters.
func (d *Detector) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Detector) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Close releases the runner. It is safe to call more than once.
func (d *Detector) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	stats := d.stats
	d.mu.Unlock()

	d.logger.Info().
		Int64("images", stats.Images).
		Int64("detections", stats.Detections).
		Float64("fps", stats.FPS()).
		Msg("detector closed")

	return d.runner.Close()
}
