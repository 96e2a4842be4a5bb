package images

import (
	"math/rand"
	"testing"
)

// BenchmarkIoU_NonOverlapping tests rectangles that don't overlap. The
// intersection clamps to zero.
func BenchmarkIoU_NonOverlapping(b *testing.B) {
	r1 := Rect{X1: 0, Y1: 0, X2: 100, Y2: 100}
	r2 := Rect{X1: 200, Y1: 200, X2: 300, Y2: 300}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = CalculateIoU(r1, r2)
	}
}

// BenchmarkIoU_PartialOverlap tests the common 0.3-0.7 IoU case of
// neighbouring anchor boxes.
func BenchmarkIoU_PartialOverlap(b *testing.B) {
	r1 := Rect{X1: 0, Y1: 0, X2: 100, Y2: 100}
	r2 := Rect{X1: 50, Y1: 50, X2: 150, Y2: 150}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = CalculateIoU(r1, r2)
	}
}

// BenchmarkIoU_RandomPairs tests boxes spread over a 416x416 network input.
func BenchmarkIoU_RandomPairs(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	rects := make([]Rect, 1024)
	for i := range rects {
		x, y := rng.Float32()*416, rng.Float32()*416
		rects[i] = RectFromXYWH(x, y, 10+rng.Float32()*150, 10+rng.Float32()*150)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = CalculateIoU(rects[i%len(rects)], rects[(i+1)%len(rects)])
	}
}
