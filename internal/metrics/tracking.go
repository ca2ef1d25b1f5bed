package metrics

import (
	"math"

	"github.com/san-kum/flatquad/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// Reference is anything that can be sampled for a desired position.
type Reference interface {
	Evaluate(t float64) dynamo.Desired
}

// TrackingError records the planar position error against a reference.
// Value reports the RMS error; Max and Final are kept alongside.
type TrackingError struct {
	ref     Reference
	errs    []float64
	maxErr  float64
	lastErr float64
}

func NewTrackingError(ref Reference) *TrackingError {
	return &TrackingError{ref: ref}
}

func (e *TrackingError) Name() string { return "tracking_rms" }

func (e *TrackingError) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) < dynamo.StateDim {
		return
	}
	want := e.ref.Evaluate(t).Pos()
	got := dynamo.Vec2{x[dynamo.IdxX], x[dynamo.IdxZ]}
	d := got.Sub(want).Norm()

	e.errs = append(e.errs, d)
	e.maxErr = math.Max(e.maxErr, d)
	e.lastErr = d
}

func (e *TrackingError) Value() float64 {
	if len(e.errs) == 0 {
		return 0
	}
	return floats.Norm(e.errs, 2) / math.Sqrt(float64(len(e.errs)))
}

func (e *TrackingError) Max() float64   { return e.maxErr }
func (e *TrackingError) Final() float64 { return e.lastErr }

func (e *TrackingError) Reset() {
	e.errs = e.errs[:0]
	e.maxErr = 0
	e.lastErr = 0
}
