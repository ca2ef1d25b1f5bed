package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/san-kum/flatquad/internal/config"
	"github.com/san-kum/flatquad/internal/dynamo"
	"github.com/san-kum/flatquad/internal/experiment"
	"github.com/san-kum/flatquad/internal/export"
	"github.com/san-kum/flatquad/internal/optim"
	"github.com/san-kum/flatquad/internal/storage"
	"github.com/san-kum/flatquad/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	dt         float64
	duration   float64
	integrator string
	learnerK   string
	coeff      float64
	gain       float64
	drag       float64
	fallback   bool
	noSave     bool
	channel    string
	tolerance  float64
	workers    int
	jsonOut    string
	configOut  string
	axes       []string
	metric     string
	svgOut     string
	svgChannel string

	logger = zap.NewNop()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "flatquad",
		Short:         "flatness-based feed-forward for a planar quadrotor",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(verbose)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".flatquad", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "compute the command profile for a trajectory and store it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runProfile,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "print the summary without storing the run")

	replayCmd := &cobra.Command{
		Use:   "replay [preset]",
		Short: "fly the feed-forward open loop through the vehicle model",
		Args:  cobra.MaximumNArgs(1),
		RunE:  replayProfile,
	}
	addScenarioFlags(replayCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored command profile",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&channel, "channel", "", "single channel to plot (default: all)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	checkCmd := &cobra.Command{
		Use:   "check [preset...]",
		Short: "cross-check the flat map on every preset",
		RunE:  checkPresets,
	}
	checkCmd.Flags().Float64Var(&tolerance, "tol", 1e-4, "largest accepted deviation")
	checkCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (default: GOMAXPROCS)")

	inspectCmd := &cobra.Command{
		Use:   "inspect [run_id]",
		Short: "scrub through a stored run interactively",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&jsonOut, "out", "o", "", "output file (default: stdout)")

	configCmd := &cobra.Command{
		Use:   "config [preset]",
		Short: "write a preset (or the defaults) as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE:  writeConfig,
	}
	configCmd.Flags().StringVarP(&configOut, "out", "o", "flatquad.yaml", "output file")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render the path or one channel of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&svgChannel, "channel", "path", "path or a channel name")
	exportSVGCmd.Flags().StringVarP(&svgOut, "out", "o", "", "output file (default: <run_id>.svg)")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "replay a grid of parameter values and rank them by a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepParams,
	}
	addScenarioFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&axes, "param", nil, "axis as name=v1,v2,... (repeatable)")
	sweepCmd.Flags().StringVar(&metric, "metric", "tracking_rms", "metric to minimize")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (default: GOMAXPROCS)")

	rootCmd.AddCommand(runCmd, replayCmd, listCmd, plotCmd, presetsCmd, checkCmd, inspectCmd,
		exportJSONCmd, exportSVGCmd, configCmd, sweepCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "sample interval")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator for replay")
	cmd.Flags().StringVar(&learnerK, "learner", config.DefaultLearner, "learned correction kind")
	cmd.Flags().Float64Var(&coeff, "coeff", 0, "drag coefficient for drag learners")
	cmd.Flags().Float64Var(&gain, "gain", 0, "gain for the thrust_gain learner")
	cmd.Flags().Float64Var(&drag, "drag", 0, "linear drag of the replayed vehicle")
	cmd.Flags().BoolVar(&fallback, "fallback", false, "retry failed root solves with the linearized correction")
}

// loadScenario resolves preset, then config file, then explicitly set flags.
func loadScenario(cmd *cobra.Command, args []string) (string, *config.Config, error) {
	name := "custom"
	cfg := config.DefaultConfig()

	if len(args) == 1 {
		name = args[0]
		cfg = config.GetPreset(name)
		if cfg == nil {
			return "", nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return "", nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if len(args) == 0 {
			name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Sample.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Sample.Duration = duration
	}
	if flags.Changed("integrator") {
		cfg.Sample.Integrator = integrator
	}
	if flags.Changed("learner") {
		cfg.Learner.Kind = learnerK
	}
	if flags.Changed("coeff") {
		cfg.Learner.Coeff = coeff
	}
	if flags.Changed("gain") {
		cfg.Learner.Gain = gain
	}
	if flags.Changed("drag") {
		cfg.Model.Drag = drag
	}
	if flags.Changed("fallback") {
		cfg.Solver.Fallback = fallback
	}

	if err := cfg.Validate(); err != nil {
		return "", nil, err
	}
	return name, cfg, nil
}

func runProfile(cmd *cobra.Command, args []string) error {
	name, cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg, experiment.NewRegistry(), logger.Named(name))
	if err != nil {
		return err
	}

	fmt.Printf("computing %s (%s correction)...\n", name, exp.Controller().Strategy())
	start := time.Now()
	ticks, runErr := exp.Sample()
	elapsed := time.Since(start)

	samples := storage.SamplesFromTicks(ticks)
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("samples: %d\n", len(samples))
	if runErr != nil {
		fmt.Printf("fault: %v\n", runErr)
	}

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		meta := metadataFor(name, exp)
		if runErr != nil {
			meta.Fault = runErr.Error()
		}
		runID, err := st.Save(meta, samples)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	return runErr
}

func metadataFor(name string, exp *experiment.Experiment) storage.RunMetadata {
	cfg := exp.Config()
	return storage.RunMetadata{
		Name:     name,
		Strategy: exp.Controller().Strategy().String(),
		Learner:  cfg.Learner.Kind,
		Mass:     cfg.Model.Mass,
		Inertia:  cfg.Model.Inertia,
		Gravity:  cfg.Model.Gravity,
		Dt:       cfg.Sample.Dt,
		Duration: cfg.Sample.Duration,
		TrajX:    cfg.Trajectory.X,
		TrajZ:    cfg.Trajectory.Z,
	}
}

func replayProfile(cmd *cobra.Command, args []string) error {
	name, cfg, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg, experiment.NewRegistry(), logger.Named(name))
	if err != nil {
		return err
	}

	fmt.Printf("replaying %s against drag %.3g (%s correction)...\n", name, cfg.Model.Drag, exp.Controller().Strategy())
	result, err := exp.Replay(cmd.Context())
	if result != nil {
		printMetrics(result.Metrics)
		if final := result.Final(); final != nil {
			t := result.Times[len(result.Times)-1]
			want := exp.Trajectory().Evaluate(t).Pos()
			fmt.Printf("\nfinal position (%.4f, %.4f), desired (%.4f, %.4f)\n",
				final[dynamo.IdxX], final[dynamo.IdxZ], want[0], want[1])
		}
	}
	return err
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, m[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tDURATION\tDT\tSTRATEGY\tLEARNER\tFAULT")

	for _, run := range runs {
		fault := "-"
		if run.Fault != "" {
			fault = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%s\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Strategy,
			run.Learner,
			fault,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	channels := []viz.Channel{viz.ChannelThrust, viz.ChannelTorque, viz.ChannelAngle, viz.ChannelAngleRate, viz.ChannelAngleAccel}
	if channel != "" {
		c, err := viz.ParseChannel(channel)
		if err != nil {
			return err
		}
		channels = []viz.Channel{c}
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("strategy: %s\n", meta.Strategy)
	fmt.Printf("samples: %d\n\n", len(samples))

	for _, c := range channels {
		fmt.Println(viz.Plot(samples, c, 80, 10))
		fmt.Println()
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tLEARNER\tSTRATEGY\tDRAG\tDURATION")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		strategy := "?"
		if exp, err := experiment.New(cfg, reg, nil); err == nil {
			strategy = exp.Controller().Strategy().String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.1fs\n", name, cfg.Learner.Kind, strategy, cfg.Model.Drag, cfg.Sample.Duration)
	}
	return w.Flush()
}

type checkResult struct {
	name   string
	report experiment.Report
	err    error
}

func checkPresets(cmd *cobra.Command, args []string) error {
	names := args
	if len(names) == 0 {
		names = config.ListPresets()
	}

	reg := experiment.NewRegistry()
	results := make([]checkResult, len(names))

	var mu sync.Mutex
	done := 0
	err := dynamo.ParallelFor(len(names), workers, func(i int) error {
		cfg := config.GetPreset(names[i])
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s", names[i])
		}
		exp, err := experiment.New(cfg, reg, logger.Named(names[i]))
		if err != nil {
			return err
		}
		rep, err := exp.Check()
		results[i] = checkResult{name: names[i], report: rep, err: err}

		mu.Lock()
		done++
		logger.Debug("checked preset", zap.String("preset", names[i]), zap.Int("done", done), zap.Int("total", len(names)))
		mu.Unlock()
		return nil
	})
	if err != nil {
		return err
	}

	failed := 0
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tSTRATEGY\tSAMPLES\tCLOSED-FORM\tRATE\tACCEL\tRESULT")
	for _, r := range results {
		status := "PASS"
		switch {
		case r.err != nil:
			status = "FAULT"
			if experiment.IsRecoverable(r.err) {
				status = "FAULT (try --fallback)"
			}
			failed++
			logger.Warn("check fault", zap.String("preset", r.name), zap.Error(r.err))
		case !r.report.Pass(tolerance):
			status = "FAIL"
			failed++
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.3g\t%.3g\t%.3g\t%s\n",
			r.name, r.report.Strategy, r.report.Samples,
			r.report.MaxClosedForm, r.report.MaxRateError, r.report.MaxAccelError, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d presets failed", failed, len(results))
	}
	return nil
}

func inspectRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	return viz.RunInspector(fmt.Sprintf("%s (%s)", meta.Name, meta.Strategy), samples, meta.Fault)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}

	if jsonOut == "" {
		return storage.ExportJSON(os.Stdout, *meta, samples)
	}

	f, err := os.Create(jsonOut)
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(f, *meta, samples); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("exported %d samples to %s\n", len(samples), jsonOut)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}

	var svg string
	if svgChannel == "path" {
		svg = export.PathSVG(samples, 800, 600, "#00ff88")
	} else {
		c, err := viz.ParseChannel(svgChannel)
		if err != nil {
			return err
		}
		svg = export.ChannelSVG(samples, c, 800, 300, "#00d4ff")
	}
	if svg == "" {
		return fmt.Errorf("run %s has too few samples to draw", args[0])
	}

	out := svgOut
	if out == "" {
		out = args[0] + ".svg"
	}
	if err := os.WriteFile(out, []byte(svg), 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func sweepParams(cmd *cobra.Command, args []string) error {
	name, base, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	if len(axes) == 0 {
		return fmt.Errorf("no --param given (available: %s)", strings.Join(optim.Params(), ", "))
	}

	parsed := make([]optim.Axis, 0, len(axes))
	for _, a := range axes {
		ax, err := optim.ParseAxis(a)
		if err != nil {
			return err
		}
		parsed = append(parsed, ax)
	}
	g, err := optim.NewGridSearch(parsed, optim.WithWorkers(workers), optim.WithLogger(logger.Named("sweep")))
	if err != nil {
		return err
	}

	logger.Info("sweep", zap.String("scenario", name), zap.Int("cells", len(g.Grid())), zap.String("metric", metric))
	res, err := g.Search(cmd.Context(), base, experiment.NewRegistry(), metric)
	if err != nil {
		return err
	}

	sort.SliceStable(res.Points, func(i, j int) bool { return res.Points[i].Value < res.Points[j].Value })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := make([]string, 0, len(parsed)+1)
	for _, a := range parsed {
		header = append(header, strings.ToUpper(a.Name))
	}
	fmt.Fprintln(w, strings.Join(append(header, strings.ToUpper(metric)), "\t"))
	for _, p := range res.Points {
		row := make([]string, 0, len(parsed)+1)
		for _, a := range parsed {
			row = append(row, fmt.Sprintf("%g", p.Params[a.Name]))
		}
		if p.Err != nil {
			row = append(row, "FAULT")
		} else {
			row = append(row, fmt.Sprintf("%.4g", p.Value))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if len(args) == 1 {
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
	}
	if _, err := os.Stat(configOut); err == nil {
		return fmt.Errorf("%s already exists", configOut)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := config.Save(configOut, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", configOut)
	return nil
}
