package learner

import "github.com/san-kum/flatquad/internal/dynamo"

// LinearDrag models translational drag per unit mass, f = -c*v.
type LinearDrag struct {
	Coeff float64
}

func (d LinearDrag) Predict(q Query) dynamo.Vec2 {
	return q.Vel().Scale(-d.Coeff)
}

func (d LinearDrag) StateJacobian(Query) StateJacobian {
	var j StateJacobian
	j[0][dynamo.IdxVX] = -d.Coeff
	j[1][dynamo.IdxVZ] = -d.Coeff
	return j
}

func (d LinearDrag) StateHessian(Query) StateHessian { return StateHessian{} }

// QuadraticDrag models f = -c*|v|*v. Partials at v = 0 are taken as zero.
type QuadraticDrag struct {
	Coeff float64
}

var velIdx = [2]int{dynamo.IdxVX, dynamo.IdxVZ}

func (d QuadraticDrag) Predict(q Query) dynamo.Vec2 {
	v := q.Vel()
	return v.Scale(-d.Coeff * v.Norm())
}

func (d QuadraticDrag) StateJacobian(q Query) StateJacobian {
	var j StateJacobian
	v := q.Vel()
	r := v.Norm()
	if r == 0 {
		return j
	}
	for i := 0; i < 2; i++ {
		for k := 0; k < 2; k++ {
			g := v[i] * v[k] / r
			if i == k {
				g += r
			}
			j[i][velIdx[k]] = -d.Coeff * g
		}
	}
	return j
}

func (d QuadraticDrag) StateHessian(q Query) StateHessian {
	var h StateHessian
	v := q.Vel()
	r := v.Norm()
	if r == 0 {
		return h
	}
	r3 := r * r * r
	for i := 0; i < 2; i++ {
		for k := 0; k < 2; k++ {
			for l := 0; l < 2; l++ {
				s := -v[i] * v[k] * v[l] / r3
				if i == k {
					s += v[l] / r
				}
				if i == l {
					s += v[k] / r
				}
				if k == l {
					s += v[i] / r
				}
				h[i][velIdx[k]][velIdx[l]] = -d.Coeff * s
			}
		}
	}
	return h
}
