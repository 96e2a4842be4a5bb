// Package postprocess - Postprocessing utilities for models.
package postprocess

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nvr-ai/go-tinyyolo/images"
)

// BoundingBox is a single labeled detection in pixel space.
type BoundingBox struct {
	// X, Y are the top-left corner of the box.
	X, Y float32
	// Width, Height are the size of the box.
	Width, Height float32
	// Label is the class name of the detection.
	Label string
	// Class is the index of Label in the model's label set.
	Class int
	// Confidence is the combined class probability and objectness score.
	Confidence float32
}

// Rect returns the corner representation of the box.
func (b BoundingBox) Rect() images.Rect {
	return images.RectFromXYWH(b.X, b.Y, b.Width, b.Height)
}

// String formats the bounding box information for display.
//
// Returns:
//   - A formatted string containing object class, confidence, and coordinates.
func (b BoundingBox) String() string {
	r := b.Rect()
	return fmt.Sprintf("Object %s (confidence %f): (%.2f, %.2f), (%.2f, %.2f)",
		b.Label, b.Confidence, r.X1, r.Y1, r.X2, r.Y2)
}

// Scale maps the box from a (fromW x fromH) network input onto a
// (toW x toH) source image. The box is clamped to the network input before
// scaling so it never leaves the image.
//
// Arguments:
//   - fromW, fromH: The dimensions the box was decoded in.
//   - toW, toH: The dimensions of the target image.
//
// Returns:
//   - BoundingBox: A copy of b in target image space.
func (b BoundingBox) Scale(fromW, fromH, toW, toH float32) BoundingBox {
	r := b.Rect().Clamp(fromW, fromH).Scale(fromW, fromH, toW, toH)
	b.X, b.Y = r.X1, r.Y1
	b.Width, b.Height = r.Width(), r.Height()
	return b
}

// IoU returns the intersection over union of two boxes.
func (b BoundingBox) IoU(other BoundingBox) float32 {
	return images.CalculateIoU(b.Rect(), other.Rect())
}

// MarshalZerologObject adds the box to a structured log event.
func (b BoundingBox) MarshalZerologObject(e *zerolog.Event) {
	e.Str("label", b.Label).
		Int("class", b.Class).
		Float32("confidence", b.Confidence).
		Float32("x", b.X).
		Float32("y", b.Y).
		Float32("width", b.Width).
		Float32("height", b.Height)
}
