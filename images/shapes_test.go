package images

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestIoU_Correctness validates the IoU implementation against known test cases
func TestIoU_Correctness(t *testing.T) {
	tests := []struct {
		name     string
		r1       Rect
		r2       Rect
		expected float32
		epsilon  float32
	}{
		{
			name:     "Identical rectangles",
			r1:       Rect{0, 0, 100, 100},
			r2:       Rect{0, 0, 100, 100},
			expected: 1.0,
			epsilon:  0.001,
		},
		{
			name:     "No overlap",
			r1:       Rect{0, 0, 100, 100},
			r2:       Rect{200, 200, 300, 300},
			expected: 0.0,
			epsilon:  0.001,
		},
		{
			name:     "Touching edges",
			r1:       Rect{0, 0, 100, 100},
			r2:       Rect{100, 0, 200, 100},
			expected: 0.0,
			epsilon:  0.001,
		},
		{
			name:     "Half overlap",
			r1:       Rect{0, 0, 100, 100},
			r2:       Rect{50, 50, 150, 150},
			expected: 0.142857, // intersection=2500, union=17500
			epsilon:  0.001,
		},
		{
			name:     "Small overlap",
			r1:       Rect{0, 0, 100, 100},
			r2:       Rect{90, 90, 190, 190},
			expected: 0.005025, // intersection=100, union=19900
			epsilon:  0.001,
		},
		{
			name:     "One inside other",
			r1:       Rect{0, 0, 100, 100},
			r2:       Rect{25, 25, 75, 75},
			expected: 0.25,
			epsilon:  0.001,
		},
		{
			name:     "Fractional coordinates",
			r1:       Rect{0.5, 0.5, 10.5, 10.5},
			r2:       Rect{5.5, 0.5, 15.5, 10.5},
			expected: 1.0 / 3.0, // intersection=50, union=150
			epsilon:  0.0001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateIoU(tt.r1, tt.r2)
			if math.Abs(float64(result-tt.expected)) > float64(tt.epsilon) {
				t.Errorf("IoU() = %v, expected %v (±%v)", result, tt.expected, tt.epsilon)
			}

			// IoU(A, B) should equal IoU(B, A)
			reverse := CalculateIoU(tt.r2, tt.r1)
			assert.Equal(t, result, reverse, "IoU should be symmetric")
		})
	}
}

func TestIoU_DegenerateRectangles(t *testing.T) {
	valid := Rect{0, 0, 10, 10}

	tests := []struct {
		name string
		rect Rect
	}{
		{name: "zero width", rect: Rect{5, 0, 5, 10}},
		{name: "zero height", rect: Rect{0, 5, 10, 5}},
		{name: "inverted", rect: Rect{10, 10, 0, 0}},
		{name: "point", rect: Rect{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, float32(0), CalculateIoU(valid, tt.rect))
			assert.Equal(t, float32(0), CalculateIoU(tt.rect, valid))
			assert.Equal(t, float32(0), CalculateIoU(tt.rect, tt.rect))
			assert.True(t, tt.rect.Empty())
		})
	}
}

func TestRect_Geometry(t *testing.T) {
	r := RectFromXYWH(10, 20, 30, 40)

	assert.Equal(t, Rect{10, 20, 40, 60}, r)
	assert.Equal(t, float32(30), r.Width())
	assert.Equal(t, float32(40), r.Height())
	assert.Equal(t, float32(1200), r.Area())
	assert.False(t, r.Empty())
	assert.Equal(t, image.Rect(10, 20, 40, 60), r.ToRectangle())
}

func TestRect_ClampAndScale(t *testing.T) {
	r := Rect{X1: -10, Y1: 100, X2: 450, Y2: 300}

	clamped := r.Clamp(416, 416)
	assert.Equal(t, Rect{X1: 0, Y1: 100, X2: 416, Y2: 300}, clamped)

	scaled := clamped.Scale(416, 416, 832, 208)
	assert.InDelta(t, 0, scaled.X1, 1e-4)
	assert.InDelta(t, 50, scaled.Y1, 1e-4)
	assert.InDelta(t, 832, scaled.X2, 1e-4)
	assert.InDelta(t, 150, scaled.Y2, 1e-4)
}
