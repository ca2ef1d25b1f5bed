// Package export renders stored runs as standalone SVG documents.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/flatquad/internal/storage"
	"github.com/san-kum/flatquad/internal/viz"
)

const (
	background = "#0a0a0a"
	pad        = 0.1
)

type point struct{ X, Y float64 }

// PathSVG draws the commanded (x, z) path of a run.
func PathSVG(samples []storage.Sample, width, height int, stroke string) string {
	pts := make([]point, len(samples))
	for i, s := range samples {
		pts[i] = point{s.X, s.Z}
	}
	return polyline(pts, width, height, stroke)
}

// ChannelSVG draws one command channel against time.
func ChannelSVG(samples []storage.Sample, c viz.Channel, width, height int, stroke string) string {
	pts := make([]point, len(samples))
	for i, s := range samples {
		pts[i] = point{s.T, c.Value(s)}
	}
	return polyline(pts, width, height, stroke)
}

func polyline(points []point, width, height int, stroke string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	// a flat series still needs a non-zero span to map onto the canvas
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * pad
	minY -= rangeY * pad
	rangeX *= 1 + 2*pad
	rangeY *= 1 + 2*pad

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="`,
		width, height, width, height, background, stroke)

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString("\"/>\n</svg>\n")
	return sb.String()
}
