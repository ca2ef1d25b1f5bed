package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/san-kum/flatquad/internal/control"
	"github.com/san-kum/flatquad/internal/dynamo"
)

func testSamples() []Sample {
	return []Sample{
		{T: 0, Z: 1, Thrust: 9.81, Torque: 0, Angle: 0, ThrustNorm: 9.81},
		{T: 0.01, X: 0.001, Z: 1, Thrust: 9.83, Torque: -0.0125, Angle: -0.0302, AngleRate: 0.1, AngleAccel: -1.25, ThrustNorm: 9.83},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	meta := RunMetadata{
		Name:     "swing",
		Strategy: "nonlinear",
		Learner:  "thrust_gain",
		Mass:     1,
		Dt:       0.01,
		Duration: 2,
		TrajX:    []float64{0.05, -0.25, 0.3, 0, 0, 0},
		Metrics:  map[string]float64{"tracking_rms": 1.5e-4},
	}

	runID, err := st.Save(meta, testSamples())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	got, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.ID != runID || got.Timestamp.IsZero() {
		t.Errorf("expected id and timestamp filled in, got %q at %v", got.ID, got.Timestamp)
	}
	if diff := cmp.Diff(meta, *got, cmpopts.IgnoreFields(RunMetadata{}, "ID", "Timestamp")); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	if diff := cmp.Diff(testSamples(), samples); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	for _, name := range []string{"hover", "cruise"} {
		if _, err := st.Save(RunMetadata{Name: name}, nil); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Name != "hover" || runs[1].Name != "cruise" {
		t.Errorf("expected runs oldest first, got %s then %s", runs[0].Name, runs[1].Name)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(RunMetadata{Name: "hover"}, testSamples())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	if _, err := os.Stat(filepath.Join(runDir, "samples.csv")); os.IsNotExist(err) {
		t.Error("samples.csv not created")
	}
}

// failingClose writes through to a real file but reports a failed Close.
type failingClose struct{ *os.File }

var errClose = errors.New("disk full")

func (f failingClose) Close() error {
	f.File.Close()
	return errClose
}

func TestSaveReportsCloseError(t *testing.T) {
	orig := createFile
	t.Cleanup(func() { createFile = orig })

	for _, target := range []string{metadataFile, samplesFile} {
		createFile = func(path string) (io.WriteCloser, error) {
			f, err := os.Create(path)
			if err != nil || filepath.Base(path) != target {
				return f, err
			}
			return failingClose{f}, nil
		}

		if _, err := New(t.TempDir()).Save(RunMetadata{Name: "hover"}, testSamples()); !errors.Is(err, errClose) {
			t.Errorf("%s: expected the close error, got %v", target, err)
		}
	}
}

func TestLoadSamplesMalformed(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runDir := filepath.Join(tmpDir, "bad")
	if err := os.MkdirAll(runDir, 0755); err != nil {
		t.Fatal(err)
	}
	data := "t,x,z,thrust,torque,angle,angle_rate,angle_accel,thrust_norm\n0,0,1,x,0,0,0,0,0\n"
	if err := os.WriteFile(filepath.Join(runDir, "samples.csv"), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := st.LoadSamples("bad"); err == nil {
		t.Error("expected parse error")
	}
}

func TestSamplesFromTicks(t *testing.T) {
	ticks := []control.Tick{{
		Desired: dynamo.Desired{T: 0.5, X: [dynamo.NumDerivatives]float64{2}, Z: [dynamo.NumDerivatives]float64{1}},
		Output:  dynamo.FlatOutput{ThrustNorm: 10, Angle: 0.1, AngleRate: 0.2, AngleAccel: 0.3},
		Command: dynamo.Command{Thrust: 20, Torque: 0.006},
	}}

	want := []Sample{{T: 0.5, X: 2, Z: 1, Thrust: 20, Torque: 0.006, Angle: 0.1, AngleRate: 0.2, AngleAccel: 0.3, ThrustNorm: 10}}
	if diff := cmp.Diff(want, SamplesFromTicks(ticks)); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, RunMetadata{ID: "hover_1", Name: "hover"}, testSamples()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var got ExportData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("exported JSON does not parse: %v", err)
	}
	if got.Steps != 2 || got.Run.Name != "hover" {
		t.Errorf("unexpected export header: %+v", got.Run)
	}
	if diff := cmp.Diff(testSamples(), got.Samples); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
}
