package viz

import (
	"math"
	"strings"
)

// Braille cells are 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a grid of Braille cells addressed in dots: (Width*2) x (Height*4).
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set turns on the dot at (x, y). Out-of-range dots are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Viewport maps world coordinates (x right, z up) onto canvas dots with a
// uniform scale, so attitudes are drawn undistorted.
type Viewport struct {
	c      *Canvas
	x0, z0 float64
	scale  float64
}

// Fit returns a viewport showing every (xs[i], zs[i]) with a margin of pad
// world units.
func Fit(c *Canvas, xs, zs []float64, pad float64) Viewport {
	minX, maxX := bounds(xs)
	minZ, maxZ := bounds(zs)
	minX, maxX, minZ, maxZ = minX-pad, maxX+pad, minZ-pad, maxZ+pad

	w, h := float64(c.Width*2-1), float64(c.Height*4-1)
	scale := math.Min(w/(maxX-minX), h/(maxZ-minZ))

	// centre the box on the canvas
	x0 := (minX+maxX)/2 - w/(2*scale)
	z0 := (minZ+maxZ)/2 - h/(2*scale)
	return Viewport{c: c, x0: x0, z0: z0, scale: scale}
}

func (v Viewport) dot(x, z float64) (int, int) {
	px := int(math.Round((x - v.x0) * v.scale))
	pz := v.c.Height*4 - 1 - int(math.Round((z-v.z0)*v.scale))
	return px, pz
}

func (v Viewport) Point(x, z float64) {
	v.c.Set(v.dot(x, z))
}

func (v Viewport) Line(x0, z0, x1, z1 float64) {
	a, b := v.dot(x0, z0)
	c, d := v.dot(x1, z1)
	v.c.DrawLine(a, b, c, d)
}

// Body draws the vehicle as a rotor bar of half-width r tilted by angle,
// with a short stub along the thrust axis.
func (v Viewport) Body(x, z, angle, r float64) {
	cos, sin := math.Cos(angle), math.Sin(angle)
	v.Line(x-r*cos, z-r*sin, x+r*cos, z+r*sin)
	v.Line(x, z, x-0.5*r*sin, z+0.5*r*cos)
}

func bounds(vs []float64) (lo, hi float64) {
	if len(vs) == 0 {
		return -1, 1
	}
	lo, hi = vs[0], vs[0]
	for _, v := range vs[1:] {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if hi-lo < 1e-9 {
		lo, hi = lo-0.5, hi+0.5
	}
	return lo, hi
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
