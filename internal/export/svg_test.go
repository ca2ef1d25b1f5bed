package export

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/san-kum/flatquad/internal/storage"
	"github.com/san-kum/flatquad/internal/viz"
)

func samples() []storage.Sample {
	return []storage.Sample{
		{T: 0, X: 0, Z: 1, Thrust: 9.81},
		{T: 0.5, X: 0.5, Z: 1.5, Thrust: 10.2},
		{T: 1, X: 1, Z: 1, Thrust: 9.6},
	}
}

func TestPathSVG(t *testing.T) {
	svg := PathSVG(samples(), 200, 100, "#00ff00")

	if !strings.HasPrefix(svg, "<?xml") {
		t.Fatalf("missing xml header: %q", svg[:min(len(svg), 20)])
	}
	if n := strings.Count(svg, " L"); n != 2 {
		t.Errorf("expected 2 line segments, got %d", n)
	}
	if !strings.Contains(svg, `stroke="#00ff00"`) {
		t.Error("stroke color not applied")
	}

	// first point is x=min, z=min: bottom-left corner inside the padding
	if !strings.Contains(svg, `d="M16.7,91.7`) {
		t.Errorf("unexpected first point in %s", svg)
	}

	dec := xml.NewDecoder(strings.NewReader(svg))
	for {
		_, err := dec.Token()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.Fatalf("malformed svg: %v", err)
			}
			break
		}
	}
}

func TestChannelSVGFlat(t *testing.T) {
	flat := samples()
	for i := range flat {
		flat[i].Torque = 0
	}
	svg := ChannelSVG(flat, viz.ChannelTorque, 100, 50, "#fff")
	if svg == "" {
		t.Fatal("flat channel should still render")
	}
	if strings.Contains(svg, "NaN") || strings.Contains(svg, "Inf") {
		t.Errorf("flat channel produced non-finite coordinates: %s", svg)
	}
}

func TestTooFewSamples(t *testing.T) {
	if svg := PathSVG(samples()[:1], 100, 100, "#fff"); svg != "" {
		t.Errorf("expected empty output for a single sample, got %q", svg)
	}
}
