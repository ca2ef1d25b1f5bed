package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/flatquad/internal/control"
	"go.uber.org/multierr"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
)

var sampleHeader = []string{"t", "x", "z", "thrust", "torque", "angle", "angle_rate", "angle_accel", "thrust_norm"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Timestamp time.Time          `json:"timestamp"`
	Strategy  string             `json:"strategy"`
	Learner   string             `json:"learner"`
	Mass      float64            `json:"mass"`
	Inertia   float64            `json:"inertia"`
	Gravity   float64            `json:"gravity"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	TrajX     []float64          `json:"traj_x"`
	TrajZ     []float64          `json:"traj_z"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	Fault     string             `json:"fault,omitempty"`
}

// Sample is one row of a stored command profile. X and Z are the desired
// position at T.
type Sample struct {
	T          float64 `json:"t"`
	X          float64 `json:"x"`
	Z          float64 `json:"z"`
	Thrust     float64 `json:"thrust"`
	Torque     float64 `json:"torque"`
	Angle      float64 `json:"angle"`
	AngleRate  float64 `json:"angle_rate"`
	AngleAccel float64 `json:"angle_accel"`
	ThrustNorm float64 `json:"thrust_norm"`
}

func (s Sample) record() []string {
	vals := []float64{s.T, s.X, s.Z, s.Thrust, s.Torque, s.Angle, s.AngleRate, s.AngleAccel, s.ThrustNorm}
	row := make([]string, len(vals))
	for i, v := range vals {
		row[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return row
}

func SamplesFromTicks(ticks []control.Tick) []Sample {
	out := make([]Sample, len(ticks))
	for i, tk := range ticks {
		out[i] = Sample{
			T:          tk.Desired.T,
			X:          tk.Desired.X[0],
			Z:          tk.Desired.Z[0],
			Thrust:     tk.Command.Thrust,
			Torque:     tk.Command.Torque,
			Angle:      tk.Output.Angle,
			AngleRate:  tk.Output.AngleRate,
			AngleAccel: tk.Output.AngleAccel,
			ThrustNorm: tk.Output.ThrustNorm,
		}
	}
	return out
}

// Save writes meta and samples under a fresh run directory. meta.ID and
// meta.Timestamp are filled in and the ID is returned.
func (s *Store) Save(meta RunMetadata, samples []Sample) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", meta.Name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeSamples(filepath.Join(runDir, samplesFile), samples); err != nil {
		return "", err
	}
	return runID, nil
}

// createFile opens a run file for writing.
var createFile = func(path string) (io.WriteCloser, error) { return os.Create(path) }

// writeFile streams into path and reports a failed Close as well, since
// that is where a short write surfaces.
func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(f))
	return write(f)
}

func writeJSON(path string, v any) error {
	return writeFile(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

func writeSamples(path string, samples []Sample) error {
	return writeFile(path, func(out io.Writer) error {
		w := csv.NewWriter(out)
		if err := w.Write(sampleHeader); err != nil {
			return err
		}
		for _, smp := range samples {
			if err := w.Write(smp.record()); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadSamples(runID string) ([]Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(sampleHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	if len(records) < 2 {
		return []Sample{}, nil
	}

	samples := make([]Sample, 0, len(records)-1)
	for line, record := range records[1:] {
		var vals [9]float64
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s line %d: %w", runID, line+2, err)
			}
			vals[j] = v
		}
		samples = append(samples, Sample{
			T: vals[0], X: vals[1], Z: vals[2],
			Thrust: vals[3], Torque: vals[4],
			Angle: vals[5], AngleRate: vals[6], AngleAccel: vals[7], ThrustNorm: vals[8],
		})
	}
	return samples, nil
}
