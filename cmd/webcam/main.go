// Command webcam runs a Tiny YOLOv2 style detector on frames from a video
// capture device and logs the detections and FPS.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-tinyyolo/inference"
	"github.com/nvr-ai/go-tinyyolo/models/model"
)

func main() {
	var (
		deviceID   int
		configPath string
		modelPath  string
		modelName  string
		threshold  float64
		libPath    string
	)
	flag.IntVar(&deviceID, "device", 0, "ID of the video capture device to use")
	flag.StringVar(&configPath, "config", "", "Path to a YAML detector config")
	flag.StringVar(&modelPath, "model", "assets/Model/TinyYolo2_model.onnx", "Path to the ONNX model or Custom Vision zip export")
	flag.StringVar(&modelName, "model-name", string(model.ModelNameTinyYOLOv2), "Model name (tinyyolov2, customvision)")
	flag.Float64Var(&threshold, "threshold", 0.3, "Objectness and class score threshold")
	flag.StringVar(&libPath, "ort-lib", "", "Path to the ONNX Runtime shared library")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	config := inference.DefaultConfig()
	config.Model = model.NewModelArgs{Name: model.Name(modelName), Path: modelPath}
	config.NMS.ConfidenceThreshold = float32(threshold)
	if configPath != "" {
		var err error
		if config, err = inference.LoadConfig(configPath); err != nil {
			logger.Fatal().Err(err).Str("config", configPath).Msg("failed to load config")
		}
	}
	if libPath != "" {
		config.LibraryPath = libPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, config, deviceID, logger); err != nil {
		logger.Fatal().Err(err).Msg("webcam failed")
	}
}

func run(ctx context.Context, config inference.Config, deviceID int, logger zerolog.Logger) error {
	detector, err := inference.NewDetector(config, inference.WithLogger(logger))
	if err != nil {
		return err
	}
	defer detector.Close()

	webcam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return err
	}
	defer webcam.Close()

	img := gocv.NewMat()
	defer img.Close()

	fps := 0.0
	frameCount := 0
	lastTime := time.Now()

	logger.Info().Int("device", deviceID).Msg("start reading camera device")
	for ctx.Err() == nil {
		if ok := webcam.Read(&img); !ok {
			logger.Error().Int("device", deviceID).Msg("cannot read device")
			return nil
		}
		if img.Empty() {
			continue
		}

		frameCount++
		if elapsed := time.Since(lastTime).Seconds(); elapsed >= 1.0 {
			fps = float64(frameCount) / elapsed
			frameCount = 0
			lastTime = time.Now()
		}

		boxes, err := detector.DetectMat(ctx, img)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return err
		}

		event := logger.Info().Int("objects", len(boxes)).Float64("fps", fps)
		arr := zerolog.Arr()
		for _, box := range boxes {
			arr.Object(box)
		}
		event.Array("boxes", arr).Msg("frame")
	}
	return nil
}
