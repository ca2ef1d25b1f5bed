package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/flatquad/internal/storage"
)

// Channel selects one column of a command profile.
type Channel int

const (
	ChannelThrust Channel = iota
	ChannelTorque
	ChannelAngle
	ChannelAngleRate
	ChannelAngleAccel
	ChannelThrustNorm
	numChannels
)

var channelNames = [numChannels]string{"thrust", "torque", "angle", "angle_rate", "angle_accel", "thrust_norm"}

func (c Channel) String() string {
	if c < 0 || c >= numChannels {
		return fmt.Sprintf("channel(%d)", int(c))
	}
	return channelNames[c]
}

// ParseChannel accepts the CSV column names.
func ParseChannel(name string) (Channel, error) {
	for i, n := range channelNames {
		if n == name {
			return Channel(i), nil
		}
	}
	return 0, fmt.Errorf("unknown channel %q (want one of %v)", name, channelNames)
}

func (c Channel) Value(s storage.Sample) float64 {
	switch c {
	case ChannelThrust:
		return s.Thrust
	case ChannelTorque:
		return s.Torque
	case ChannelAngle:
		return s.Angle
	case ChannelAngleRate:
		return s.AngleRate
	case ChannelAngleAccel:
		return s.AngleAccel
	default:
		return s.ThrustNorm
	}
}

func (c Channel) Series(samples []storage.Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = c.Value(s)
	}
	return out
}

// Plot charts one channel. Series longer than width are downsampled.
func Plot(samples []storage.Sample, c Channel, width, height int) string {
	if len(samples) == 0 {
		return Subtle.Render("no samples")
	}
	data := c.Series(samples)
	if len(data) == 1 {
		data = append(data, data[0])
	}
	caption := fmt.Sprintf("%s over %.2fs", c, samples[len(samples)-1].T-samples[0].T)
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
