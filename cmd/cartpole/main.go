package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"

	"github.com/guptarohit/asciigraph"
	"github.com/milosgajdos/go-cartpole/config"
	"github.com/milosgajdos/go-cartpole/control"
	"github.com/milosgajdos/go-cartpole/matrix"
	"github.com/milosgajdos/go-cartpole/sim"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/vg"
)

var (
	configFile string
	preset     string
	scheme     string
	dt         float64
	steps      int
	x          float64
	theta      float64
	xDot       float64
	thetaDot   float64
	controller string
	noiseStd   float64
	seed       uint64
	csvFile    string
	outFile    string
	width      float64
	height     float64
	runs       int
	spread     float64
	settleTol  float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cartpole",
		Short: "inverted pendulum on a cart simulator",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run simulation and print summary",
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&csvFile, "csv", "", "write trajectory as CSV into file (- for stdout)")

	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "run simulation and plot trajectory into PNG",
		RunE:  plotSimulation,
	}
	addRunFlags(plotCmd)
	plotCmd.Flags().StringVar(&outFile, "out", "cartpole.png", "output PNG file")
	plotCmd.Flags().Float64Var(&width, "width", 10, "plot width in inches")
	plotCmd.Flags().Float64Var(&height, "height", 4, "plot height in inches")

	linearizeCmd := &cobra.Command{
		Use:   "linearize",
		Short: "print linearized model and LQR gain",
		RunE:  linearizeModel,
	}
	linearizeCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	linearizeCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	linearizeCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "discretization time step")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run simulations from randomly perturbed initial states",
		RunE:  runEnsemble,
	}
	addRunFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&runs, "runs", 20, "number of runs")
	ensembleCmd.Flags().Float64Var(&spread, "spread", 0.05, "initial angle standard deviation")
	ensembleCmd.Flags().Float64Var(&settleTol, "tol", 0.01, "final angle tolerance of a settled run")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset configurations",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("%-10s controller=%s dt=%g steps=%d theta=%g\n",
					name, p.Controller.Type, p.Dt, p.Steps, p.InitState.Theta)
			}
		},
	}

	rootCmd.AddCommand(runCmd, plotCmd, linearizeCmd, ensembleCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&scheme, "scheme", "semi-implicit", "integration scheme: semi-implicit, explicit, taylor")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "time step")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	cmd.Flags().Float64Var(&x, "x", 0.0, "initial cart position")
	cmd.Flags().Float64Var(&theta, "theta", config.DefaultTheta, "initial pendulum angle")
	cmd.Flags().Float64Var(&xDot, "x-dot", 0.0, "initial cart velocity")
	cmd.Flags().Float64Var(&thetaDot, "theta-dot", 0.0, "initial pendulum angular velocity")
	cmd.Flags().StringVar(&controller, "controller", config.ControllerNone, "controller: none, feedback, lqr")
	cmd.Flags().Float64Var(&noiseStd, "noise", 0.0, "force disturbance standard deviation")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 seeds from clock)")
}

// loadConfig builds run configuration: preset first, then config file, then explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	}

	flags := cmd.Flags()
	if flags.Changed("scheme") {
		cfg.Scheme = scheme
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("x") {
		cfg.InitState.X = x
	}
	if flags.Changed("theta") {
		cfg.InitState.Theta = theta
	}
	if flags.Changed("x-dot") {
		cfg.InitState.XDot = xDot
	}
	if flags.Changed("theta-dot") {
		cfg.InitState.ThetaDot = thetaDot
	}
	if flags.Changed("controller") {
		cfg.Controller.Type = controller
	}
	if flags.Changed("noise") {
		cfg.Noise.Std = noiseStd
	}
	if flags.Changed("seed") {
		cfg.Noise.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func simulate(cmd *cobra.Command) (*sim.Trajectory, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	ip, err := cfg.NewPendulum()
	if err != nil {
		return nil, nil, err
	}

	c, err := cfg.NewController()
	if err != nil {
		return nil, nil, err
	}

	w, err := cfg.NewNoise()
	if err != nil {
		return nil, nil, err
	}

	log.Printf("running %d steps (dt=%g, scheme=%s, controller=%s)", cfg.Steps, cfg.Dt, ip.Params().Scheme, cfg.Controller.Type)

	tr, err := sim.Run(ip, c, w, cfg.Dt, cfg.Steps)
	if err != nil {
		if tr == nil {
			return nil, nil, err
		}
		log.Printf("simulation stopped after %d steps: %v", tr.Len()-1, err)
	}

	return tr, cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	tr, cfg, err := simulate(cmd)
	if err != nil {
		return err
	}

	if csvFile != "" {
		if err := exportCSV(tr, csvFile); err != nil {
			return err
		}
	}

	final := tr.Final()
	maxAbs := matrix.ColMaxAbs(tr.States)
	means := matrix.ColMeans(tr.States)

	fmt.Printf("\ncontroller: %s, dt: %g, steps: %d\n", cfg.Controller.Type, cfg.Dt, tr.Len()-1)
	fmt.Printf("final state: %v\n", final)
	fmt.Printf("max |x|: %.4f  max |theta|: %.4f  max |x_dot|: %.4f  max |theta_dot|: %.4f\n",
		maxAbs[0], maxAbs[1], maxAbs[2], maxAbs[3])
	fmt.Printf("mean x: %.4f  mean theta: %.4f\n\n", means[0], means[1])

	graph := asciigraph.Plot(mat.Col(nil, 1, tr.States),
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("theta(t)"),
	)
	fmt.Println(graph)
	fmt.Println()

	return nil
}

func plotSimulation(cmd *cobra.Command, args []string) error {
	tr, _, err := simulate(cmd)
	if err != nil {
		return err
	}

	if err := sim.SaveTrajectoryPlot(tr, vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch, outFile); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	log.Printf("trajectory plot saved to %s", outFile)

	return nil
}

func linearizeModel(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}

	p, err := cfg.PendulumParams()
	if err != nil {
		return err
	}

	ct, err := sim.Linearize(p)
	if err != nil {
		return err
	}

	disc, err := ct.ToDiscrete(cfg.Dt)
	if err != nil {
		return err
	}

	fmt.Printf("continuous model:\nA =\n%v\nB =\n%v\n\n", mxFormat(ct.SystemMatrix()), mxFormat(ct.ControlMatrix()))
	fmt.Printf("discrete model (dt = %g):\nA =\n%v\nB =\n%v\n\n", cfg.Dt, mxFormat(disc.SystemMatrix()), mxFormat(disc.ControlMatrix()))

	Q, R, err := cfg.LQRWeights()
	if err != nil {
		return err
	}

	fb, err := control.LQR(disc, Q, R, 0, 0)
	if err != nil {
		return err
	}
	fmt.Printf("LQR gain: %v\n", fb.K)

	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	p, err := cfg.PendulumParams()
	if err != nil {
		return err
	}

	c, err := cfg.NewController()
	if err != nil {
		return err
	}

	cov := mat.NewSymDense(4, nil)
	cov.SetSym(1, 1, spread*spread)
	ic, err := sim.NewInitCond(cfg.GetInitState(), cov)
	if err != nil {
		return err
	}

	log.Printf("running %d simulations of %d steps (controller=%s)", runs, cfg.Steps, cfg.Controller.Type)

	trajs, err := sim.Ensemble(p, ic, c, cfg.Dt, cfg.Steps, runs, cfg.Noise.Seed)
	if err != nil {
		return err
	}

	finals := mat.NewDense(len(trajs), 4, nil)
	settled := 0
	for i, tr := range trajs {
		s := tr.Final()
		finals.SetRow(i, s[:])
		if math.Abs(s.Theta()) < settleTol {
			settled++
		}
	}

	maxAbs := matrix.ColMaxAbs(finals)
	means := matrix.ColMeans(finals)

	fmt.Printf("\nsettled runs: %d/%d (|theta| < %g)\n", settled, len(trajs), settleTol)
	fmt.Printf("final max |x|: %.4f  max |theta|: %.4f\n", maxAbs[0], maxAbs[1])
	fmt.Printf("final mean x: %.4f  mean theta: %.4f\n", means[0], means[1])

	return nil
}

func exportCSV(tr *sim.Trajectory, path string) error {
	var out io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)

	if err := w.Write([]string{"time", "x", "theta", "x_dot", "theta_dot", "force"}); err != nil {
		return err
	}

	for i := 0; i < tr.Len(); i++ {
		row := []string{strconv.FormatFloat(tr.Times[i], 'f', 6, 64)}
		for _, v := range tr.State(i) {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		force := ""
		if i < len(tr.Forces) {
			force = strconv.FormatFloat(tr.Forces[i], 'f', 6, 64)
		}
		row = append(row, force)
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

func mxFormat(m mat.Matrix) fmt.Formatter {
	return mat.Formatted(m, mat.Prefix(""), mat.Squeeze())
}
