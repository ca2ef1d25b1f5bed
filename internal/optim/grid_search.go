// Package optim tunes scenario parameters by replaying every point of a
// grid and ranking the results by one replay metric.
package optim

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/flatquad/internal/config"
	"github.com/san-kum/flatquad/internal/dynamo"
	"github.com/san-kum/flatquad/internal/experiment"
	"go.uber.org/zap"
)

// setters are the scenario fields a grid may vary.
var setters = map[string]func(*config.Config, float64){
	"learner.coeff": func(c *config.Config, v float64) { c.Learner.Coeff = v },
	"learner.gain":  func(c *config.Config, v float64) { c.Learner.Gain = v },
	"model.drag":    func(c *config.Config, v float64) { c.Model.Drag = v },
	"model.mass":    func(c *config.Config, v float64) { c.Model.Mass = v },
	"model.inertia": func(c *config.Config, v float64) { c.Model.Inertia = v },
}

// Params lists the names accepted by NewGridSearch.
func Params() []string {
	names := make([]string, 0, len(setters))
	for k := range setters {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Axis is one swept parameter and the values it takes.
type Axis struct {
	Name   string
	Values []float64
}

// ParseAxis reads "name=v1,v2,...".
func ParseAxis(s string) (Axis, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || list == "" {
		return Axis{}, fmt.Errorf("axis %q: want name=v1,v2,...: %w", s, dynamo.ErrParameterBounds)
	}
	a := Axis{Name: strings.TrimSpace(name)}
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Axis{}, fmt.Errorf("axis %q: %w", s, err)
		}
		a.Values = append(a.Values, v)
	}
	return a, nil
}

// Point is one evaluated grid cell. Err is set when the replay faulted;
// Value is then +Inf.
type Point struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type Result struct {
	Metric string
	Best   Point
	Points []Point
}

type GridSearch struct {
	axes    []Axis
	workers int
	log     *zap.Logger
}

type Option func(*GridSearch)

func WithWorkers(n int) Option { return func(g *GridSearch) { g.workers = n } }

func WithLogger(l *zap.Logger) Option { return func(g *GridSearch) { g.log = l } }

func NewGridSearch(axes []Axis, opts ...Option) (*GridSearch, error) {
	if len(axes) == 0 {
		return nil, fmt.Errorf("grid search: no axes: %w", dynamo.ErrParameterBounds)
	}
	for _, a := range axes {
		if _, ok := setters[a.Name]; !ok {
			return nil, fmt.Errorf("grid search: parameter %q: %w", a.Name, dynamo.ErrUnknownName)
		}
		if len(a.Values) == 0 {
			return nil, fmt.Errorf("grid search: parameter %q has no values: %w", a.Name, dynamo.ErrParameterBounds)
		}
	}
	g := &GridSearch{axes: axes, log: zap.NewNop()}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

// Grid enumerates the cartesian product of all axes, first axis outermost.
func (g *GridSearch) Grid() []map[string]float64 {
	var out []map[string]float64
	g.expand(0, map[string]float64{}, &out)
	return out
}

func (g *GridSearch) expand(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.axes) {
		*out = append(*out, current)
		return
	}
	a := g.axes[depth]
	for _, v := range a.Values {
		next := make(map[string]float64, len(current)+1)
		for k, x := range current {
			next[k] = x
		}
		next[a.Name] = v
		g.expand(depth+1, next, out)
	}
}

// Search replays base with every grid cell applied and returns the cell
// with the smallest metric. Faulted cells are kept in Result.Points but
// never win; if every cell faults the first fault is returned.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, reg *experiment.Registry, metric string) (Result, error) {
	grid := g.Grid()
	points := make([]Point, len(grid))

	err := dynamo.ParallelFor(len(grid), g.workers, func(i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		points[i] = g.evaluate(ctx, base, reg, metric, grid[i])
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	res := Result{Metric: metric, Best: Point{Value: math.Inf(1)}, Points: points}
	var firstErr error
	for _, p := range points {
		if p.Err != nil {
			if firstErr == nil {
				firstErr = p.Err
			}
			continue
		}
		if p.Value < res.Best.Value {
			res.Best = p
		}
	}
	if res.Best.Params == nil {
		return res, firstErr
	}
	return res, nil
}

func (g *GridSearch) evaluate(ctx context.Context, base *config.Config, reg *experiment.Registry, metric string, params map[string]float64) Point {
	p := Point{Params: params, Value: math.Inf(1)}

	cfg := base.Clone()
	for name, v := range params {
		setters[name](cfg, v)
	}

	exp, err := experiment.New(cfg, reg, g.log)
	if err != nil {
		p.Err = err
		return p
	}
	result, err := exp.Replay(ctx)
	if err != nil {
		p.Err = err
		g.log.Debug("grid cell faulted", zap.Any("params", params), zap.Error(err))
		return p
	}

	v, ok := result.Metrics[metric]
	if !ok {
		p.Err = fmt.Errorf("metric %q: %w", metric, dynamo.ErrUnknownName)
		return p
	}
	p.Value = v
	g.log.Debug("grid cell", zap.Any("params", params), zap.Float64(metric, v))
	return p
}
