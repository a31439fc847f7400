package notifications

import "math/rand/v2"

// WaitEstimator produces a wait-time estimate, in minutes, for one
// subscriber. It exists so the synthetic placeholder below can be
// swapped for a real estimation feed without touching the scheduler
// loop.
type WaitEstimator[R any] interface {
	EstimateWait(sub R) int
}

const (
	baseWaitMinutes = 45
	minWaitMinutes  = 5
	jitterMinMin    = -8
	jitterMaxMin    = 10
)

// SyntheticEstimator simulates a wait-time source: a fixed base plus
// bounded random jitter, floored at a sane minimum. It is a stand-in
// until live queue sensors are wired in.
type SyntheticEstimator[R any] struct{}

// EstimateWait returns a simulated wait time in minutes.
func (SyntheticEstimator[R]) EstimateWait(_ R) int {
	jitter := jitterMinMin + rand.IntN(jitterMaxMin-jitterMinMin+1)
	wait := baseWaitMinutes + jitter
	if wait < minWaitMinutes {
		wait = minWaitMinutes
	}
	return wait
}
