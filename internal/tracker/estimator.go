package tracker

import "github.com/genefit/genefit-link/internal/constants"

// NextEstimate advances a simulated upload percentage by increment, capped at 100.
func NextEstimate(percent, increment int) int {
	next := percent + increment
	if next > constants.UploadComplete {
		return constants.UploadComplete
	}
	return next
}

// Estimator yields simulated upload progress: increment, 2*increment, ... 100.
// It is finite and cannot be restarted; a new upload needs a new Estimator.
// The upload request is atomic, so these values are for display only.
type Estimator struct {
	percent   int
	increment int
}

// NewEstimator creates an estimator. increment <= 0 uses the default.
func NewEstimator(increment int) *Estimator {
	if increment <= 0 {
		increment = constants.UploadIncrement
	}
	return &Estimator{increment: increment}
}

// Next returns the next value. ok is false once 100 has been returned.
func (e *Estimator) Next() (percent int, ok bool) {
	if e.percent >= constants.UploadComplete {
		return e.percent, false
	}
	e.percent = NextEstimate(e.percent, e.increment)
	return e.percent, true
}

// Percent is the last value returned by Next.
func (e *Estimator) Percent() int { return e.percent }

// Done reports whether the estimator reached 100.
func (e *Estimator) Done() bool { return e.percent >= constants.UploadComplete }
