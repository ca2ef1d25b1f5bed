package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/flatquad/internal/storage"
)

const (
	graphWidth  = 60
	graphHeight = 8
	pathWidth   = 30
	pathHeight  = 10
)

// Inspector scrubs through a stored command profile.
type Inspector struct {
	title   string
	fault   string
	samples []storage.Sample
	cursor  int
	channel Channel
	width   int
}

func NewInspector(title string, samples []storage.Sample, fault string) Inspector {
	return Inspector{title: title, samples: samples, fault: fault, width: 80}
}

func (m Inspector) Cursor() int      { return m.cursor }
func (m Inspector) Channel() Channel { return m.channel }

func (m Inspector) Init() tea.Cmd { return nil }

func (m Inspector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "right", "l":
			m.seek(1)
		case "left", "h":
			m.seek(-1)
		case "L":
			m.seek(10)
		case "H":
			m.seek(-10)
		case "g", "home":
			m.cursor = 0
		case "G", "end":
			m.seek(len(m.samples))
		case "tab":
			m.channel = (m.channel + 1) % numChannels
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	}
	return m, nil
}

func (m *Inspector) seek(delta int) {
	m.cursor = min(max(m.cursor+delta, 0), max(len(m.samples)-1, 0))
}

func (m Inspector) View() string {
	var b strings.Builder
	b.WriteString(GradientText(strings.ToUpper(m.title), "#00ffff", "#ff00ff") + "\n")

	if m.fault != "" {
		b.WriteString(StatusFault.Render("fault: "+m.fault) + "\n")
	} else {
		b.WriteString(StatusOK.Render("ok") + "\n")
	}
	b.WriteString(Separator(min(m.width, graphWidth+10)) + "\n")

	if len(m.samples) == 0 {
		b.WriteString(Subtle.Render("no samples") + "\n")
		return b.String()
	}

	s := m.samples[m.cursor]
	row := func(label, value string) string {
		return MetricLabel.Render(label) + MetricValue.Render(value) + "\n"
	}
	var stats strings.Builder
	stats.WriteString(row("t", fmt.Sprintf("%.3fs", s.T)))
	stats.WriteString(row("position", fmt.Sprintf("(%.3f, %.3f)", s.X, s.Z)))
	stats.WriteString(row("thrust", fmt.Sprintf("%.4f N", s.Thrust)))
	stats.WriteString(row("torque", fmt.Sprintf("%.5f Nm", s.Torque)))
	stats.WriteString(row("angle", fmt.Sprintf("%.5f rad", s.Angle)))
	stats.WriteString(row("rate", fmt.Sprintf("%.5f rad/s", s.AngleRate)))
	stats.WriteString(row("accel", fmt.Sprintf("%.5f rad/s²", s.AngleAccel)))
	stats.WriteString(row("thrust/m", fmt.Sprintf("%.4f m/s²", s.ThrustNorm)))

	top := lipgloss.JoinHorizontal(lipgloss.Top, Panel.Render(stats.String()), Panel.Render(m.path()))
	b.WriteString(top + "\n")

	fraction := 0.0
	if len(m.samples) > 1 {
		fraction = float64(m.cursor) / float64(len(m.samples)-1)
	}
	b.WriteString(ProgressBar(fraction, graphWidth) + fmt.Sprintf(" %d/%d\n\n", m.cursor+1, len(m.samples)))

	b.WriteString(m.channelTabs() + "\n")
	b.WriteString(Plot(m.samples, m.channel, graphWidth, graphHeight) + "\n")
	b.WriteString(Sparkline(ChannelAngle.Series(m.samples), graphWidth) + "\n\n")

	b.WriteString(KeyHint.Render("h/l step  H/L jump  g/G ends  tab channel  q quit") + "\n")
	return b.String()
}

func (m Inspector) channelTabs() string {
	tabs := make([]string, 0, numChannels)
	for c := Channel(0); c < numChannels; c++ {
		if c == m.channel {
			tabs = append(tabs, Selected.Render("["+c.String()+"]"))
		} else {
			tabs = append(tabs, Subtle.Render(" "+c.String()+" "))
		}
	}
	return strings.Join(tabs, " ")
}

// path draws the whole planned path with the vehicle at the cursor.
func (m Inspector) path() string {
	xs := make([]float64, len(m.samples))
	zs := make([]float64, len(m.samples))
	for i, s := range m.samples {
		xs[i], zs[i] = s.X, s.Z
	}

	c := NewCanvas(pathWidth, pathHeight)
	v := Fit(c, xs, zs, 0.2)
	for i := range xs {
		v.Point(xs[i], zs[i])
	}
	s := m.samples[m.cursor]
	v.Body(s.X, s.Z, s.Angle, 0.15)
	return c.String()
}

// RunInspector blocks until the user quits.
func RunInspector(title string, samples []storage.Sample, fault string) error {
	_, err := tea.NewProgram(NewInspector(title, samples, fault), tea.WithAltScreen()).Run()
	return err
}
