package postprocess

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/nvr-ai/go-tinyyolo/images"
)

func TestBoundingBoxString(t *testing.T) {
	tests := []struct {
		name     string
		box      BoundingBox
		expected string
	}{
		{
			name:     "person detection with high confidence",
			box:      BoundingBox{Label: "person", Confidence: 0.95, X: 100.25, Y: 200.5, Width: 200, Height: 199.5},
			expected: "Object person (confidence 0.950000): (100.25, 200.50), (300.25, 400.00)",
		},
		{
			name:     "box partially outside the frame",
			box:      BoundingBox{Label: "bicycle", Confidence: 0.5, X: -10, Y: -10, Width: 20, Height: 20},
			expected: "Object bicycle (confidence 0.500000): (-10.00, -10.00), (10.00, 10.00)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.box.String())
		})
	}
}

func TestBoundingBoxRect(t *testing.T) {
	b := BoundingBox{X: 10, Y: 20, Width: 30, Height: 40}
	assert.Equal(t, images.Rect{X1: 10, Y1: 20, X2: 40, Y2: 60}, b.Rect())
}

func TestBoundingBoxScale(t *testing.T) {
	tests := []struct {
		name     string
		box      BoundingBox
		toW, toH float32
		expected images.Rect
	}{
		{
			name:     "doubles into a larger image",
			box:      BoundingBox{X: 100, Y: 50, Width: 100, Height: 200},
			toW:      832,
			toH:      832,
			expected: images.Rect{X1: 200, Y1: 100, X2: 400, Y2: 500},
		},
		{
			name:     "clamps before scaling",
			box:      BoundingBox{X: -20, Y: 400, Width: 100, Height: 100},
			toW:      416,
			toH:      208,
			expected: images.Rect{X1: 0, Y1: 200, X2: 80, Y2: 208},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scaled := tt.box.Scale(416, 416, tt.toW, tt.toH)
			r := scaled.Rect()
			assert.InDelta(t, tt.expected.X1, r.X1, 1e-3)
			assert.InDelta(t, tt.expected.Y1, r.Y1, 1e-3)
			assert.InDelta(t, tt.expected.X2, r.X2, 1e-3)
			assert.InDelta(t, tt.expected.Y2, r.Y2, 1e-3)
		})
	}
}

func TestBoundingBoxMarshalZerologObject(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	logger.Info().Object("box", BoundingBox{Label: "cat", Class: 7, Confidence: 0.5, X: 1, Y: 2, Width: 3, Height: 4}).Send()

	assert.JSONEq(t,
		`{"level":"info","box":{"label":"cat","class":7,"confidence":0.5,"x":1,"y":2,"width":3,"height":4}}`,
		buf.String())
}
