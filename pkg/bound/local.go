package bound

import (
	"context"
	"math"
)

const (
	// localSamples is the number of evenly spaced probe points.
	localSamples = 256

	// localHeadroom scales the observed maximum so the graph does not
	// touch the frame edge.
	localHeadroom = 1.15
)

// LocalEstimator samples the compiled function across the interval and
// returns the maximum absolute value among defined points, scaled by a
// headroom factor. It is deterministic, never errors, and never returns a
// magnitude below the headroom-scaled minimum of 1.
type LocalEstimator struct{}

// NewLocal creates a local sampling estimator.
func NewLocal() *LocalEstimator {
	return &LocalEstimator{}
}

// Estimate implements Estimator. Reversed bounds are normalized first, so
// the result is symmetric in (a, b). Points that evaluate to the NaN
// sentinel are skipped; if every point is undefined the magnitude defaults
// to 1 before headroom.
func (e *LocalEstimator) Estimate(_ context.Context, req Request) (Estimate, error) {
	a, b := req.A, req.B
	if a > b {
		a, b = b, a
	}
	if a == b {
		b = a + 1
	}

	maxAbs := 0.0
	step := (b - a) / float64(localSamples-1)
	for i := 0; i < localSamples; i++ {
		v := req.Func.Eval(a + float64(i)*step)
		if math.IsNaN(v) {
			continue
		}
		if abs := math.Abs(v); abs > maxAbs {
			maxAbs = abs
		}
	}

	if maxAbs < 1 {
		maxAbs = 1
	}
	return Estimate{Magnitude: maxAbs * localHeadroom}, nil
}

// Ensure LocalEstimator implements Estimator.
var _ Estimator = (*LocalEstimator)(nil)
