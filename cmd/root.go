package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/shock-sim/shock-sim/sim"
	"github.com/shock-sim/shock-sim/sim/field"
)

var (
	// CLI flags for run control
	seed         int64  // Seed for all random streams
	steps        int    // Number of integration steps
	particles    int    // Number of injected primaries
	workers      int    // Parallel propagation workers
	logLevel     string // Log verbosity level
	scenarioFile string // YAML scenario path; overrides all other flags when set

	// CLI flags for the splitting module (explicit-bin form)
	nSplit    int     // Copies per crossing (0 disables splitting)
	emin      float64 // Lowest bin edge
	emax      float64 // Upper energy bound
	nBins     int     // Number of bin edges
	logBins   bool    // Log-spaced edges
	minWeight float64 // Weight floor below which candidates stop splitting

	// CLI flags for the splitting module (spectral-index form)
	spectralIndex float64 // Expected power-law index (positive magnitude); 0 = use explicit bins
	decadeFactor  int     // Energy decades covered above emin

	// CLI flags for the acceleration toy model
	injectionEnergy float64 // Primary energy at injection
	gainFraction    float64 // Fractional energy gain per acceleration event
	gainProbability float64 // Per-step gain probability at the shock front
	diffusionStep   float64 // RMS positional jitter per step
	advectionStep   float64 // Downstream drift per step

	// CLI flags for the shock field profile
	shockBxUp        float64 // Upstream field component normal to the shock
	shockBy          float64 // Constant tangential field component
	shockCompression float64 // Shock compression ratio
	shockWidth       float64 // Tanh transition scale
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "shock-sim",
	Short: "Monte Carlo shock-acceleration simulator with candidate splitting",
}

// scenarioFromFlags assembles a Scenario from the CLI flag surface.
func scenarioFromFlags() *sim.Scenario {
	sc := &sim.Scenario{
		Seed:            seed,
		Steps:           steps,
		Particles:       particles,
		Workers:         workers,
		InjectionEnergy: injectionEnergy,
		DiffusionStep:   diffusionStep,
		AdvectionStep:   advectionStep,
		Gain: sim.GainSpec{
			Fraction:    gainFraction,
			Probability: gainProbability,
		},
		Shock: sim.ShockSpec{
			BxUp:        shockBxUp,
			By:          shockBy,
			Compression: shockCompression,
			Width:       shockWidth,
		},
		Splitting: sim.SplittingConfig{
			NSplit:        nSplit,
			Emin:          emin,
			Emax:          emax,
			NBins:         nBins,
			LogScale:      logBins,
			MinWeight:     minWeight,
			SpectralIndex: spectralIndex,
			DecadeFactor:  decadeFactor,
		},
	}
	sc.ApplyDefaults()
	return sc
}

// runCmd executes the simulation using parameters from CLI flags or a
// scenario file
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the shock-acceleration simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		sc := scenarioFromFlags()
		if scenarioFile != "" {
			sc, err = sim.LoadScenario(scenarioFile)
			if err != nil {
				logrus.Fatalf("unable to read scenario; %v", err)
			}
		}
		if err := sc.Validate(); err != nil {
			logrus.Fatalf("invalid scenario; %v", err)
		}

		serials := sim.NewSerialAllocator()
		splitting, err := sim.NewSplittingFromConfig(sc.Splitting, serials)
		if err != nil {
			logrus.Fatalf("invalid splitting config; %v", err)
		}
		shock, err := field.NewObliqueShockField(sc.Shock.BxUp, sc.Shock.By, sc.Shock.Compression, sc.Shock.Width)
		if err != nil {
			logrus.Fatalf("invalid shock config; %v", err)
		}
		engine, err := sim.NewEngine(sc.EngineConfig(), splitting, shock, serials, sim.NewRunKey(sc.Seed))
		if err != nil {
			logrus.Fatalf("unable to construct engine; %v", err)
		}

		logrus.Infof("Starting run with %d particles, %d steps, %d workers, seed=%d, nSplit=%d",
			sc.Particles, sc.Steps, sc.Workers, sc.Seed, splitting.NSplit())

		startTime := time.Now()
		if err := engine.Run(); err != nil {
			logrus.Fatalf("run failed; %v", err)
		}

		m := sim.CollectMetrics(engine.Active(), splitting.Bins())
		m.Print(splitting.Bins(), engine.InjectedWeight())

		logrus.Infof("Run complete in %v.", time.Since(startTime))
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for all random streams")
	runCmd.Flags().IntVar(&steps, "steps", 1000, "Number of integration steps")
	runCmd.Flags().IntVar(&particles, "particles", 100, "Number of injected primaries")
	runCmd.Flags().IntVar(&workers, "workers", 1, "Parallel propagation workers")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&scenarioFile, "scenario", "", "YAML scenario file (overrides other flags)")

	// splitting module: explicit bins
	runCmd.Flags().IntVar(&nSplit, "nsplit", 2, "Copies per bin crossing (0 disables splitting)")
	runCmd.Flags().Float64Var(&emin, "emin", 1.0, "Lowest energy-bin edge")
	runCmd.Flags().Float64Var(&emax, "emax", 1000.0, "Upper energy bound")
	runCmd.Flags().IntVar(&nBins, "nbins", 10, "Number of bin edges")
	runCmd.Flags().BoolVar(&logBins, "log-bins", true, "Log-spaced bin edges")
	runCmd.Flags().Float64Var(&minWeight, "min-weight", 0, "Weight floor below which candidates stop splitting (0 = none)")

	// splitting module: spectral-index form
	runCmd.Flags().Float64Var(&spectralIndex, "spectral-index", 0, "Expected power-law index; non-zero selects spectral-index bin construction")
	runCmd.Flags().IntVar(&decadeFactor, "decades", 3, "Energy decades above emin (spectral-index form)")

	// acceleration toy model
	runCmd.Flags().Float64Var(&injectionEnergy, "injection-energy", 1.0, "Primary energy at injection")
	runCmd.Flags().Float64Var(&gainFraction, "gain", 0.1, "Fractional energy gain per acceleration event")
	runCmd.Flags().Float64Var(&gainProbability, "gain-prob", 0.5, "Per-step gain probability at the shock front")
	runCmd.Flags().Float64Var(&diffusionStep, "diffusion-step", 0.5, "RMS positional jitter per step")
	runCmd.Flags().Float64Var(&advectionStep, "advection-step", 0.0, "Downstream drift per step")

	// shock field profile
	runCmd.Flags().Float64Var(&shockBxUp, "shock-bx", 1.0, "Upstream field component normal to the shock")
	runCmd.Flags().Float64Var(&shockBy, "shock-by", 0.5, "Constant tangential field component")
	runCmd.Flags().Float64Var(&shockCompression, "shock-compression", 4.0, "Shock compression ratio")
	runCmd.Flags().Float64Var(&shockWidth, "shock-width", 1.0, "Tanh transition scale of the shock front")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
