package trajectory

// Polynomial holds coefficients from the highest degree down to the
// constant term, so {3, 0, 1} is 3t^2 + 1.
type Polynomial []float64

// Degree of the zero-length polynomial is -1.
func (p Polynomial) Degree() int { return len(p) - 1 }

// Eval evaluates p at t with Horner's scheme.
func (p Polynomial) Eval(t float64) float64 {
	v := 0.0
	for _, c := range p {
		v = v*t + c
	}
	return v
}

// Derivative returns dp/dt. The derivative of a constant is {0}.
func (p Polynomial) Derivative() Polynomial {
	n := p.Degree()
	if n < 1 {
		return Polynomial{0}
	}
	d := make(Polynomial, n)
	for i := 0; i < n; i++ {
		d[i] = p[i] * float64(n-i)
	}
	return d
}

func (p Polynomial) Clone() Polynomial {
	c := make(Polynomial, len(p))
	copy(c, p)
	return c
}
