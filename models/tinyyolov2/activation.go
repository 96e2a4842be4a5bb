package tinyyolov2

import "github.com/chewxy/math32"

// Sigmoid computes e^v / (1 + e^v). Positive inputs use the equivalent
// 1 / (1 + e^-v) so large values cannot overflow to Inf/Inf.
func Sigmoid(v float32) float32 {
	if v >= 0 {
		return 1 / (1 + math32.Exp(-v))
	}
	k := math32.Exp(v)
	return k / (1 + k)
}

// Softmax turns values into a probability distribution in place. The
// maximum is subtracted before exponentiating to avoid overflow.
func Softmax(values []float32) {
	if len(values) == 0 {
		return
	}

	maxVal := values[0]
	for _, v := range values[1:] {
		maxVal = math32.Max(maxVal, v)
	}

	var sum float32
	for i, v := range values {
		e := math32.Exp(v - maxVal)
		values[i] = e
		sum += e
	}
	for i := range values {
		values[i] /= sum
	}
}

// argMax returns the index and value of the first maximum.
func argMax(values []float32) (int, float32) {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best, values[best]
}
