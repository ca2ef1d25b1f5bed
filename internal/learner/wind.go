package learner

import "github.com/san-kum/flatquad/internal/dynamo"

// Wind is a steady disturbance acceleration. It exposes no partials, so the
// flat map treats it as a constant offset.
type Wind struct {
	Accel dynamo.Vec2
}

func (w Wind) Predict(Query) dynamo.Vec2 { return w.Accel }

var (
	_ Model             = None{}
	_ Model             = Wind{}
	_ StateSensitive    = LinearDrag{}
	_ StateSensitive    = QuadraticDrag{}
	_ AttitudeSensitive = Zero{}
	_ AttitudeSensitive = ThrustGain{}
	_ AttitudeSensitive = (*Linear)(nil)
)
