// Package bound estimates the vertical extent of a function over an interval
// so that a rendered plot comfortably contains its graph.
//
// Two estimators exist behind one interface: WolframEstimator shells out to
// an optional symbolic toolkit for a tight bound and a typeset integral
// form, and LocalEstimator samples the compiled function directly. The
// render job protocol talks to a ChainEstimator and never branches on which
// backend actually answered; helper failure silently degrades to the local
// estimate.
package bound

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
)

// Request carries one estimation query. Text is the raw expression source
// handed to an external helper; Func is the compiled form sampled locally.
type Request struct {
	Text string
	Func Evaluable
	A, B float64
}

// Evaluable is the slice of the expression layer the estimators need.
type Evaluable interface {
	Eval(args ...float64) float64
}

// Estimate is an estimator's answer.
type Estimate struct {
	// Magnitude is a positive bound on |f| over [a, b], including headroom.
	Magnitude float64

	// IntegralTeX is an optional typeset closed form of the volume
	// integral, if the backend could produce one. Empty otherwise.
	IntegralTeX string
}

// Estimator produces an Estimate for a request. Implementations are pure
// with respect to their inputs: the same request yields the same answer.
type Estimator interface {
	Estimate(ctx context.Context, req Request) (Estimate, error)
}

// ChainEstimator tries each estimator in order and returns the first
// success. Failures are logged at debug level and otherwise swallowed; the
// final estimator in the chain is expected to be infallible (LocalEstimator
// is). If every estimator fails, the zero-value fallback of magnitude 1 is
// returned so a caller can always draw axes.
type ChainEstimator struct {
	estimators []Estimator
	logger     *log.Logger
}

// NewChain builds a chain over the given estimators.
func NewChain(logger *log.Logger, estimators ...Estimator) *ChainEstimator {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &ChainEstimator{estimators: estimators, logger: logger}
}

// Estimate implements Estimator.
func (c *ChainEstimator) Estimate(ctx context.Context, req Request) (Estimate, error) {
	for _, e := range c.estimators {
		est, err := e.Estimate(ctx, req)
		if err == nil {
			return est, nil
		}
		c.logger.Debug("bound estimator declined", "err", err)
	}
	return Estimate{Magnitude: 1}, nil
}

// Ensure ChainEstimator implements Estimator.
var _ Estimator = (*ChainEstimator)(nil)
