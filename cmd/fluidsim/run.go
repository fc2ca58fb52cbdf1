package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/fluidsim/internal/automation"
	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/emitter"
	"github.com/san-kum/fluidsim/internal/experiment"
	"github.com/san-kum/fluidsim/internal/export"
	"github.com/san-kum/fluidsim/internal/optim"
	"github.com/san-kum/fluidsim/internal/sim"
	"github.com/san-kum/fluidsim/internal/stream"
	"github.com/san-kum/fluidsim/internal/tui"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	reg := experiment.NewRegistry()
	exp := experiment.New(cfg)
	if err := exp.Setup(reg, reg.DefaultMetrics()); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if watch {
		r := tui.NewLiveRenderer(os.Stdout, title(cfg), watchFPS)
		exp.GetSimulator().AddObserver(r)
		r.Start()
		defer r.Stop()
	}

	fmt.Printf("running %s (%s)...\n", title(cfg), exp.Describe())
	start := time.Now()
	result, err := exp.Run(ctx)
	if err != nil && result == nil {
		return err
	}
	fmt.Printf("completed %d steps in %v\n", result.StepsTaken, time.Since(start).Round(time.Millisecond))
	if err != nil {
		fmt.Printf("stopped early: %v\n", err)
	}
	for _, e := range result.Errors {
		fmt.Printf("  warning: %v\n", e)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	id, err := st.Save(automation.RunInfo(title(cfg), cfg), result)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	fmt.Printf("run id: %s\n", id)
	printMetrics(result.Metrics)
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%.6g\n", name, m[name])
	}
	w.Flush()
}

func serveCommand() *cobra.Command {
	var (
		addr    string
		fps     int
		palette string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "stream the simulation to browsers over websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("emitter") && preset == "" && configFile == "" {
				cfg.Emitter = "none"
			}

			manual := emitter.NewManual()
			exp := experiment.New(cfg)
			if err := exp.Setup(experiment.NewRegistry(), nil, manual); err != nil {
				return err
			}
			srv, err := stream.New(exp.GetSimulator(), manual, stream.Options{FPS: fps, Palette: palette})
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().IntVar(&fps, "fps", 30, "frames per second")
	cmd.Flags().StringVar(&palette, "palette", "viridis", "colour map ("+strings.Join(export.ListPalettes(), ", ")+")")
	return cmd
}

func recordCommand() *cobra.Command {
	var (
		gifOut, aviOut, svgOut string
		palette                string
		scale, fps             int
		arrows                 bool
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "run a simulation and record it as GIF or AVI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if gifOut == "" && aviOut == "" && svgOut == "" {
				return fmt.Errorf("nothing to record: pass --gif, --avi or --velocity-svg")
			}
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			pal, err := export.NewPalette(palette)
			if err != nil {
				return err
			}

			reg := experiment.NewRegistry()
			exp := experiment.New(cfg)
			if err := exp.Setup(reg, nil); err != nil {
				return err
			}

			opts := export.ImageOptions{Scale: scale, Velocity: arrows}
			var gifRec *export.GIFRecorder
			if gifOut != "" {
				gifRec = export.NewGIFRecorder(pal, opts, 100/max(fps, 1))
			}
			var aviRec *export.AVIRecorder
			if aviOut != "" {
				if aviRec, err = export.NewAVIRecorder(aviOut, pal, opts, cfg.Size, fps); err != nil {
					return err
				}
			}
			last, err := recordFrames(exp, cfg.Steps, gifRec, aviRec)
			if aviRec != nil {
				err = closeRecording(aviRec, err)
			}
			if err != nil {
				return err
			}
			if aviRec != nil {
				fmt.Printf("wrote %d frames to %s\n", aviRec.Len(), aviOut)
			}

			if gifRec != nil {
				out, err := os.Create(gifOut)
				if err != nil {
					return err
				}
				if err := closeRecording(out, gifRec.Encode(out)); err != nil {
					return err
				}
				fmt.Printf("wrote %d frames to %s\n", gifRec.Len(), gifOut)
			}

			if svgOut != "" && last.Density != nil {
				if err := os.WriteFile(svgOut, []byte(export.VelocitySVG(last, scale)), 0644); err != nil {
					return err
				}
				fmt.Printf("wrote velocity field to %s\n", svgOut)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&gifOut, "gif", "", "GIF output path")
	cmd.Flags().StringVar(&aviOut, "avi", "", "MJPEG AVI output path")
	cmd.Flags().StringVar(&svgOut, "velocity-svg", "", "write the final velocity field as SVG")
	cmd.Flags().StringVar(&palette, "palette", "inferno", "colour map")
	cmd.Flags().IntVar(&scale, "scale", 4, "pixels per cell")
	cmd.Flags().IntVar(&fps, "fps", 25, "playback frame rate")
	cmd.Flags().BoolVar(&arrows, "arrows", false, "overlay velocity arrows")
	return cmd
}

// recordFrames runs exp and feeds every step to the recorders that are set.
// It returns the last frame seen.
func recordFrames(exp *experiment.Experiment, steps int, gifRec *export.GIFRecorder, aviRec *export.AVIRecorder) (export.Frame, error) {
	ctx, cancel := signalContext()
	defer cancel()

	var last export.Frame
	var recErr error
	err := exp.GetSimulator().RunWithCallback(ctx, steps, func(f sim.Frame) bool {
		u, v := f.Solver.Velocity()
		last = export.Frame{N: f.Solver.Size(), Density: f.Solver.Density(), U: u, V: v}
		if gifRec != nil {
			gifRec.Add(last)
		}
		if aviRec != nil {
			if recErr = aviRec.Add(last); recErr != nil {
				return false
			}
		}
		return true
	})
	if err != nil {
		return last, err
	}
	return last, recErr
}

// closeRecording closes c and reports its error alongside err, so a file
// that fails to finalize is never reported as written.
func closeRecording(c io.Closer, err error) error {
	if cerr := c.Close(); cerr != nil {
		return errors.Join(err, fmt.Errorf("finalize recording: %w", cerr))
	}
	return err
}

func presetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list built-in presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tN\tDT\tDIFFUSION\tVISCOSITY\tEMITTER\tSTEPS")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%g\t%g\t%g\t%s\t%d\n",
					name, p.Size, p.Dt, p.Diffusion, p.Viscosity, p.Emitter, p.Steps)
			}
			w.Flush()
		},
	}
}

func benchCommand() *cobra.Command {
	var benchSteps int
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "measure solver throughput across grid sizes and worker counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sizes := []int{32, 64, 128, 256}
			if cmd.Flags().Changed("size") {
				sizes = []int{size}
			}
			counts := []int{1}
			if procs := runtime.GOMAXPROCS(0); procs > 1 {
				counts = append(counts, procs)
			}
			if cmd.Flags().Changed("workers") {
				counts = []int{workers}
			}

			ctx, cancel := signalContext()
			defer cancel()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "N\tWORKERS\tSTEPS\tTIME\tSTEPS/SEC\tCELLS/SEC")
			for _, n := range sizes {
				for _, k := range counts {
					cfg := config.DefaultConfig()
					cfg.Size, cfg.Workers, cfg.Steps = n, k, benchSteps
					exp := experiment.New(cfg)
					if err := exp.Setup(experiment.NewRegistry(), nil); err != nil {
						return err
					}

					start := time.Now()
					if err := exp.GetSimulator().RunWithCallback(ctx, benchSteps, func(sim.Frame) bool { return true }); err != nil {
						return err
					}
					elapsed := time.Since(start)
					rate := float64(benchSteps) / elapsed.Seconds()
					fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.1f\t%.3g\n",
						n, k, benchSteps, elapsed.Round(time.Millisecond), rate, rate*float64((n-2)*(n-2)))
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&benchSteps, "bench-steps", 50, "steps per measurement")
	return cmd
}

func sweepCommand() *cobra.Command {
	var (
		param  string
		lo, hi float64
		n      int
		metric string
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "vary one parameter linearly and report final metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
				Base: cfg, ParamName: param, ParamMin: lo, ParamMax: hi, NumSteps: n,
			}, experiment.NewRegistry(), os.Stderr)
			if err != nil && len(results) == 0 {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(param), strings.ToUpper(metric))
			for _, r := range results {
				if r.Err != nil {
					fmt.Fprintf(w, "%.4g\terror: %v\n", r.ParamValue, r.Err)
					continue
				}
				fmt.Fprintf(w, "%.4g\t%.6g\n", r.ParamValue, r.Metrics[metric])
			}
			w.Flush()
			return err
		},
	}
	cmd.Flags().StringVar(&param, "param", "viscosity", "parameter to vary ("+strings.Join(optim.Tunable, ", ")+")")
	cmd.Flags().Float64Var(&lo, "min", 0, "first value")
	cmd.Flags().Float64Var(&hi, "max", 0.001, "last value")
	cmd.Flags().IntVar(&n, "n", 5, "number of values")
	cmd.Flags().StringVar(&metric, "metric", "mass", "metric to report")
	return cmd
}

// parseGrid reads "name=v1,v2,..." or "name=lo:hi:n", with a "log:" prefix
// on the range form for logarithmic spacing.
func parseGrid(arg string) (string, []float64, error) {
	name, values, ok := strings.Cut(arg, "=")
	if !ok || name == "" {
		return "", nil, fmt.Errorf("grid %q: want name=values", arg)
	}
	logScale := strings.HasPrefix(values, "log:")
	values = strings.TrimPrefix(values, "log:")

	if parts := strings.Split(values, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		count, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil {
			return "", nil, fmt.Errorf("grid %q: bad range", arg)
		}
		if logScale {
			return name, optim.Logspace(lo, hi, count), nil
		}
		return name, optim.Linspace(lo, hi, count), nil
	}

	var out []float64
	for _, s := range strings.Split(values, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return "", nil, fmt.Errorf("grid %q: %w", arg, err)
		}
		out = append(out, v)
	}
	return name, out, nil
}

func searchCommand() *cobra.Command {
	var (
		grids  []string
		metric string
		top    int
		jobs   int
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "grid search parameters, minimising a metric",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(grids) == 0 {
				return fmt.Errorf("pass at least one --grid name=values")
			}
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			names := make([]string, len(grids))
			ranges := make([][]float64, len(grids))
			for i, g := range grids {
				if names[i], ranges[i], err = parseGrid(g); err != nil {
					return err
				}
			}
			gs, err := optim.NewGridSearch(names, ranges)
			if err != nil {
				return err
			}
			gs.Workers = jobs

			ctx, cancel := signalContext()
			defer cancel()

			fmt.Printf("searching %d combinations for minimum %s...\n", len(gs.Combinations()), metric)
			res, err := gs.Search(ctx, cfg, experiment.NewRegistry(), metric)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(metric))
			for i, t := range res.Sorted() {
				if top > 0 && i >= top {
					break
				}
				cols := make([]string, len(names))
				for k, name := range names {
					cols[k] = strconv.FormatFloat(t.Params[name], 'g', 4, 64)
				}
				val := strconv.FormatFloat(t.Value, 'g', 6, 64)
				if t.Err != nil {
					val = "error: " + t.Err.Error()
				}
				fmt.Fprintf(w, "%s\t%s\n", strings.Join(cols, "\t"), val)
			}
			w.Flush()
			fmt.Printf("best: %v (%s = %.6g)\n", res.Best, metric, res.BestValue)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&grids, "grid", nil, "parameter grid, name=v1,v2 or name=lo:hi:n (repeatable)")
	cmd.Flags().StringVar(&metric, "metric", "mass_drift", "metric to minimise")
	cmd.Flags().IntVar(&top, "top", 10, "rows to print, 0 for all")
	cmd.Flags().IntVar(&jobs, "jobs", 0, "concurrent runs, 0 for GOMAXPROCS")
	return cmd
}

func monteCarloCommand() *cobra.Command {
	var (
		trials  int
		perturb float64
		mcSeed  int64
	)
	cmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "perturb diffusion and viscosity randomly and count unstable runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
				Base: cfg, Perturbation: perturb, NumTrials: trials, Seed: mcSeed,
			}, experiment.NewRegistry(), os.Stderr)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TRIAL\tDIFFUSION\tVISCOSITY\tSEED\tMASS\tSTABLE")
			for _, r := range results {
				fmt.Fprintf(w, "%d\t%.4g\t%.4g\t%d\t%.4g\t%v\n", r.TrialID, r.Diffusion, r.Viscosity, r.Seed, r.Mass, r.Stable)
			}
			w.Flush()
			stable, unstable := automation.MonteCarloStats(results)
			fmt.Printf("stable: %d  unstable: %d\n", stable, unstable)
			return nil
		},
	}
	cmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	cmd.Flags().Float64Var(&perturb, "perturb", 0.5, "relative perturbation of diffusion and viscosity")
	cmd.Flags().Int64Var(&mcSeed, "mc-seed", 1, "random seed, 0 for time based")
	return cmd
}

func scenarioCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the steps of a YAML scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			results, err := automation.RunScenario(ctx, sc, experiment.NewRegistry(), st, os.Stdout)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STEP\tN\tSTEPS\tMASS\tMAX DIV\tRUN ID")
			for _, r := range results {
				id := r.RunID
				if id == "" {
					id = "-"
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%.4g\t%.3g\t%s\n", r.Name, r.Config.Size, r.Result.StepsTaken,
					r.Result.Metrics["mass"], r.Result.Metrics["max_divergence"], id)
			}
			w.Flush()
			return err
		},
	}
}
