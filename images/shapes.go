// Package images - Image processing utilities
package images

import "image"

// Rect is a lightweight floating point bounding box in pixel space.
type Rect struct {
	// X2,Y2 are exclusive (like image.Rectangle).
	X1, Y1, X2, Y2 float32
}

// RectFromXYWH builds a Rect from a top-left corner and a size.
func RectFromXYWH(x, y, width, height float32) Rect {
	return Rect{X1: x, Y1: y, X2: x + width, Y2: y + height}
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float32 {
	return r.X2 - r.X1
}

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float32 {
	return r.Y2 - r.Y1
}

// Area returns the area of the rectangle. Inverted rectangles yield a
// non-positive area.
func (r Rect) Area() float32 {
	return r.Width() * r.Height()
}

// Empty reports whether the rectangle has no positive area.
func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// ToRectangle converts the rectangle to an image.Rectangle, truncating the
// fractional pixels.
func (r Rect) ToRectangle() image.Rectangle {
	return image.Rect(int(r.X1), int(r.Y1), int(r.X2), int(r.Y2)).Canon()
}

// Clamp restricts the rectangle to the bounds [0,width) x [0,height).
func (r Rect) Clamp(width, height float32) Rect {
	return Rect{
		X1: clamp(r.X1, 0, width),
		Y1: clamp(r.Y1, 0, height),
		X2: clamp(r.X2, 0, width),
		Y2: clamp(r.Y2, 0, height),
	}
}

// Scale maps the rectangle from a (fromW x fromH) space onto a (toW x toH)
// space.
func (r Rect) Scale(fromW, fromH, toW, toH float32) Rect {
	sx := toW / fromW
	sy := toH / fromH
	return Rect{X1: r.X1 * sx, Y1: r.Y1 * sy, X2: r.X2 * sx, Y2: r.Y2 * sy}
}

// CalculateIoU measures the overlap between two rectangles as
// Area of Intersection / Area of Union.
//
// See also:
//   - http://ronny.rest/tutorials/module/localization_001/iou
//
//   - A value of 1.0 means the rectangles are identical.
//   - A value of 0.0 means the rectangles don't overlap at all.
//
// Degenerate rectangles (zero or negative area) never overlap anything and
// yield 0, which also keeps the union away from zero.
//
// Arguments:
//   - r: The first rectangle.
//   - o: The other rectangle to compare against.
//
// Returns:
//   - float32: A value between 0.0 and 1.0 representing the IoU score.
//
// Example Usage:
// ```go
//
//	rect1 := Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}
//	rect2 := Rect{X1: 5, Y1: 5, X2: 15, Y2: 15}
//
//	iouScore := CalculateIoU(rect1, rect2) // 25 / 175 = 0.142857
//
// ```
func CalculateIoU(r, o Rect) float32 {
	areaR := r.Area()
	if areaR <= 0 {
		return 0
	}
	areaO := o.Area()
	if areaO <= 0 {
		return 0
	}

	// The overlap starts after both rectangles have begun and ends as soon as
	// the first one ends.
	interW := max(min(r.X2, o.X2)-max(r.X1, o.X1), 0)
	interH := max(min(r.Y2, o.Y2)-max(r.Y1, o.Y1), 0)
	interArea := interW * interH

	return interArea / (areaR + areaO - interArea)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
