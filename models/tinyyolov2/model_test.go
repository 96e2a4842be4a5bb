package tinyyolov2

import (
	"image"
	"image/color"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-tinyyolo/models/model"
	"github.com/nvr-ai/go-tinyyolo/models/postprocess"
)

func TestNewModel(t *testing.T) {
	_, err := NewModel(model.NewModelArgs{})
	require.Error(t, err)

	m, err := NewModel(model.NewModelArgs{Path: "TinyYolo2_model.onnx"})
	require.NoError(t, err)

	opts := m.Options()
	assert.Equal(t, model.ModelNameTinyYOLOv2, opts.Name)
	assert.Equal(t, model.ModelFamilyVOC, opts.Family)
	assert.Equal(t, []string{"image"}, opts.Inputs)
	assert.Equal(t, []string{"grid"}, opts.Outputs)
	assert.Equal(t, []int64{1, 3, 416, 416}, opts.InputShape)
	assert.Equal(t, []int64{1, 125, 13, 13}, opts.OutputShape)
	assert.Len(t, opts.Labels, ClassCount)

	w, h := opts.InputSize()
	assert.Equal(t, InputSize, w)
	assert.Equal(t, InputSize, h)
}

func TestNewModel_LabelOverride(t *testing.T) {
	labels := make([]string, ClassCount)
	for i := range labels {
		labels[i] = "thing"
	}

	m, err := NewModel(model.NewModelArgs{Path: "m.onnx", Labels: labels})
	require.NoError(t, err)
	assert.Equal(t, labels, m.Options().Labels)
	assert.Equal(t, []int64{1, 125, 13, 13}, m.Options().OutputShape)
}

func TestNewGridModel_RequiresSingleTensors(t *testing.T) {
	_, err := NewGridModel(model.Options{Inputs: []string{"a", "b"}, Outputs: []string{"c"}}, VOCParams())
	assert.Error(t, err)

	_, err = NewGridModel(model.Options{Inputs: []string{"a"}, Outputs: []string{"c"}}, Params{})
	assert.True(t, errors.Is(err, ErrInvalidParams))
}

func TestModelPreProcess(t *testing.T) {
	m, err := NewModel(model.NewModelArgs{Path: "m.onnx"})
	require.NoError(t, err)

	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 128, B: 0, A: 255})
		}
	}

	data := m.PreProcess(img)
	require.Len(t, data, 3*InputSize*InputSize)

	plane := InputSize * InputSize
	assert.Equal(t, float32(255), data[0])
	assert.Equal(t, float32(128), data[plane])
	assert.Equal(t, float32(0), data[2*plane])
}

func TestModelPostProcess(t *testing.T) {
	m, err := NewModel(model.NewModelArgs{Path: "m.onnx"})
	require.NoError(t, err)

	// Neighbouring cells with the same anchor overlap by IoU ~0.55.
	output := make([]float32, TensorLength)
	strongCell(output, 2, 3, 1, 11, 10)
	strongCell(output, 2, 4, 1, 11, 5)
	// A distant detection survives.
	strongCell(output, 10, 10, 0, 14, 9)

	config := postprocess.DefaultNMSConfig()
	boxes, err := m.PostProcess(output, &config)
	require.NoError(t, err)
	require.Len(t, boxes, 2)

	assert.Equal(t, "dog", boxes[0].Label)
	assert.InDelta(t, (3+0.5)*32-32*3.42/2, boxes[0].X, 1e-3)
	assert.Equal(t, "person", boxes[1].Label)
	assert.Greater(t, boxes[0].Confidence, boxes[1].Confidence)

	config.MaxDetections = 1
	boxes, err = m.PostProcess(output, &config)
	require.NoError(t, err)
	assert.Len(t, boxes, 1)

	_, err = m.PostProcess(output[:10], &config)
	assert.True(t, errors.Is(err, ErrTensorShape))
}
