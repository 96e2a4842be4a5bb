// Command detect runs a Tiny YOLOv2 style detector over every image in a
// directory and logs the detected objects.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"

	"github.com/nvr-ai/go-tinyyolo/inference"
	"github.com/nvr-ai/go-tinyyolo/models/model"
	"github.com/nvr-ai/go-tinyyolo/util"
)

func main() {
	var (
		configPath string
		modelPath  string
		modelName  string
		labelsPath string
		imagesDir  string
		threshold  float64
		limit      int
		iou        float64
		libPath    string
		verbose    bool
	)
	flag.StringVar(&configPath, "config", "", "Path to a YAML detector config")
	flag.StringVar(&modelPath, "model", "assets/Model/TinyYolo2_model.onnx", "Path to the ONNX model or Custom Vision zip export")
	flag.StringVar(&modelName, "model-name", string(model.ModelNameTinyYOLOv2), "Model name (tinyyolov2, customvision)")
	flag.StringVar(&labelsPath, "labels", "", "Path to a labels file for models without built-in labels")
	flag.StringVar(&imagesDir, "images", "assets/images", "Directory of images to detect objects in")
	flag.Float64Var(&threshold, "threshold", 0.3, "Objectness and class score threshold")
	flag.IntVar(&limit, "limit", 5, "Maximum number of boxes per image")
	flag.Float64Var(&iou, "iou", 0.5, "Overlap above which the weaker box is suppressed")
	flag.StringVar(&libPath, "ort-lib", "", "Path to the ONNX Runtime shared library")
	flag.BoolVar(&verbose, "v", false, "Enable debug logging")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	if !verbose {
		logger = logger.Level(zerolog.InfoLevel)
	}

	config := inference.DefaultConfig()
	if configPath != "" {
		var err error
		if config, err = inference.LoadConfig(configPath); err != nil {
			logger.Fatal().Err(err).Str("config", configPath).Msg("failed to load config")
		}
	}

	// Flags given on the command line win over the config file.
	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	override := func(name string) bool { return configPath == "" || explicit[name] }

	if override("model") {
		config.Model.Path = modelPath
	}
	if override("model-name") {
		config.Model.Name = model.Name(modelName)
	}
	if override("labels") && labelsPath != "" {
		config.Model.LabelsPath = labelsPath
	}
	if override("threshold") {
		config.NMS.ConfidenceThreshold = float32(threshold)
	}
	if override("limit") {
		config.NMS.MaxDetections = limit
	}
	if override("iou") {
		config.NMS.IoUThreshold = float32(iou)
	}
	if libPath != "" {
		config.LibraryPath = libPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, config, imagesDir, logger); err != nil {
		logger.Fatal().Err(err).Msg("detect failed")
	}
}

func run(ctx context.Context, config inference.Config, imagesDir string, logger zerolog.Logger) error {
	files, err := util.LoadDirectoryImageFiles(imagesDir)
	if err != nil {
		return err
	}

	detector, err := inference.NewDetector(config, inference.WithLogger(logger))
	if err != nil {
		return err
	}
	defer detector.Close()

	logger.Info().Int("images", len(files)).Str("dir", imagesDir).Msg("identifying objects in images")

	for _, file := range files {
		boxes, err := detector.DetectBytes(ctx, file.Data)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn().Err(err).Str("image", file.Name).Msg("skipping image")
			continue
		}

		logger.Info().Str("image", file.Name).Int("objects", len(boxes)).Msg("objects detected")
		for _, box := range boxes {
			logger.Info().Str("image", file.Name).Object("box", box).Msg(box.String())
		}
	}

	stats := detector.Stats()
	logger.Info().
		Int64("images", stats.Images).
		Int64("detections", stats.Detections).
		Dur("inference", stats.InferenceTime).
		Float64("fps", stats.FPS()).
		Msg("done")
	return nil
}
