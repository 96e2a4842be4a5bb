// Package postprocess - provides Non-Maximum Suppression for detection results.
package postprocess

import (
	"sort"

	"github.com/nvr-ai/go-tinyyolo/images"
)

// NMSConfig defines parameters for decoding and Non-Maximum Suppression.
type NMSConfig struct {
	// ConfidenceThreshold is the cutoff applied while decoding raw outputs.
	ConfidenceThreshold float32 `json:"confidence_threshold" yaml:"confidence_threshold"`
	// IoUThreshold is the overlap above which the weaker box is suppressed.
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"`
	// MaxDetections caps the number of boxes returned.
	MaxDetections int `json:"max_detections" yaml:"max_detections"`
}

// DefaultNMSConfig returns the thresholds used by the Tiny YOLOv2 samples:
// 0.3 decode cutoff, 0.5 overlap, at most 5 boxes.
func DefaultNMSConfig() NMSConfig {
	return NMSConfig{
		ConfidenceThreshold: 0.3,
		IoUThreshold:        0.5,
		MaxDetections:       5,
	}
}

// ApplyGreedyNMS performs standard greedy Non-Maximum Suppression using the
// limits in config.
//
// Arguments:
//   - boxes: Candidate detections in any order.
//   - config: NMS configuration.
//
// Returns:
//   - Filtered slice of detections, highest confidence first.
func ApplyGreedyNMS(boxes []BoundingBox, config *NMSConfig) []BoundingBox {
	return NonMaxSuppress(boxes, config.MaxDetections, config.IoUThreshold)
}

// NonMaxSuppress keeps the most confident boxes and drops every lower
// confidence box that overlaps an already kept one by more than
// overlapThreshold.
//
// The input slice is not modified. Ties in confidence keep their input order.
//
// Arguments:
//   - boxes: Candidate detections in any order.
//   - limit: Maximum number of boxes to return.
//   - overlapThreshold: IoU above which a box is suppressed.
//
// Returns:
//   - Between 0 and limit boxes, highest confidence first. Never nil.
func NonMaxSuppress(boxes []BoundingBox, limit int, overlapThreshold float32) []BoundingBox {
	results := make([]BoundingBox, 0, max(min(limit, len(boxes)), 0))
	if limit <= 0 || len(boxes) == 0 {
		return results
	}

	sorted := make([]BoundingBox, len(boxes))
	copy(sorted, boxes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	// activeCount tracks boxes that are neither emitted nor suppressed.
	active := make([]bool, len(sorted))
	for i := range active {
		active[i] = true
	}
	activeCount := len(sorted)

	for i := 0; i < len(sorted) && activeCount > 0; i++ {
		if !active[i] {
			continue
		}

		anchor := sorted[i]
		results = append(results, anchor)
		active[i] = false
		activeCount--
		if len(results) == limit {
			break
		}

		anchorRect := anchor.Rect()
		for j := i + 1; j < len(sorted) && activeCount > 0; j++ {
			if !active[j] {
				continue
			}
			if images.CalculateIoU(anchorRect, sorted[j].Rect()) > overlapThreshold {
				active[j] = false
				activeCount--
			}
		}
	}

	return results
}
