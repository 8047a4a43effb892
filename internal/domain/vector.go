package domain

import (
	"fmt"
	"math"
)

// Metric identifies the similarity function of a collection.
// Fixed at collection creation, never changed afterwards.
type Metric string

const (
	// MetricCosine scores by cosine similarity.
	MetricCosine Metric = "cosine"
	// MetricDot scores by inner product. Equivalent to cosine on
	// unit-norm vectors.
	MetricDot Metric = "dot"
)

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricCosine:
		return MetricCosine, nil
	case MetricDot:
		return MetricDot, nil
	default:
		return "", fmt.Errorf("unknown similarity metric %q", s)
	}
}

// Normalize scales v to unit L2 norm in place and returns it.
// A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	if sum == 0 {
		return v
	}
	inv := 1.0 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}
