package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/storage"
	"github.com/san-kum/fluidsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	size       int
	dt         float64
	diffusion  float64
	viscosity  float64
	iterations int
	steps      int
	emitterArg string
	seed       int64
	workers    int
	noClamp    bool

	runName   string
	watch     bool
	watchFPS  int
	theme     string
	frameRate int
	gifPath   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newRootCmd registers every command and binds the flag variables. With no
// subcommand the root opens the interactive preset picker.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fluidsim",
		Short:         "stable fluids laboratory",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if preset != "" || configFile != "" {
				return runLive(cmd, args)
			}
			return viz.RunInteractive(liveOptions(nil))
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".fluidsim", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "start from a preset ("+fmt.Sprint(config.ListPresets())+")")
	pf.IntVar(&size, "size", config.DefaultSize, "grid side length N, boundary included")
	pf.Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	pf.Float64Var(&diffusion, "diffusion", config.DefaultDiffusion, "density diffusion rate")
	pf.Float64Var(&viscosity, "viscosity", config.DefaultViscosity, "kinematic viscosity")
	pf.IntVar(&iterations, "iterations", config.DefaultIterations, "Gauss-Seidel sweeps per solve")
	pf.IntVar(&steps, "steps", config.DefaultSteps, "steps per run")
	pf.StringVar(&emitterArg, "emitter", "jet", "emitter (none, point, jet)")
	pf.Int64Var(&seed, "seed", 0, "random seed for the jet emitter")
	pf.IntVar(&workers, "workers", 1, "goroutines for the row-parallel stages")
	pf.BoolVar(&noClamp, "no-clamp", false, "keep negative density after advection")

	liveFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&theme, "theme", "cyberpunk", "colour theme")
		cmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")
		cmd.Flags().StringVar(&gifPath, "gif", "fluid.gif", "where G saves recordings")
	}
	liveFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&runName, "name", "", "run name (defaults to preset or emitter)")
	runCmd.Flags().BoolVar(&watch, "watch", false, "draw the density as ASCII while running")
	runCmd.Flags().IntVar(&watchFPS, "fps", 20, "redraw rate for --watch")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with live terminal visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	liveFlags(liveCmd)

	rootCmd.AddCommand(
		runCmd,
		liveCmd,
		serveCommand(),
		listCommand(),
		plotCommand(),
		exportCommand(),
		exportCSVCommand(),
		renderCommand(),
		recordCommand(),
		presetsCommand(),
		benchCommand(),
		sweepCommand(),
		searchCommand(),
		monteCarloCommand(),
		analyzeCommand(),
		scenarioCommand(),
	)
	return rootCmd
}

// resolveConfig layers preset, config file and explicitly set flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("size") {
		cfg.Size = size
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("diffusion") {
		cfg.Diffusion = diffusion
	}
	if flags.Changed("viscosity") {
		cfg.Viscosity = viscosity
	}
	if flags.Changed("iterations") {
		cfg.Iterations = iterations
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("emitter") {
		cfg.Emitter = emitterArg
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("no-clamp") {
		cfg.ClampDensity = !noClamp
	}

	return cfg, cfg.Validate()
}

// title names a run after its preset, falling back to the emitter.
func title(cfg *config.Config) string {
	switch {
	case runName != "":
		return runName
	case preset != "":
		return preset
	}
	return cfg.Emitter
}

func liveOptions(cfg *config.Config) viz.Options {
	opts := viz.Options{Config: cfg, Theme: theme, GIFPath: gifPath, FPS: frameRate}
	if cfg != nil {
		opts.Title = title(cfg)
	}
	return opts
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return viz.Run(liveOptions(cfg))
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

// runID returns the single argument or the latest stored run.
func runID(st *storage.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	meta, err := st.Latest()
	if err != nil {
		return "", err
	}
	if meta == nil {
		return "", fmt.Errorf("no runs in %s", dataDir)
	}
	return meta.ID, nil
}
