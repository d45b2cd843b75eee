// Implements the propagation engine: owns the active candidate set, advances
// each candidate once per step through a shock-localized acceleration model,
// and invokes the splitting module so crossings are resolved immediately.
// Spawned secondaries are absorbed into the active set after every step.

package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/shock-sim/shock-sim/sim/field"
)

// EngineConfig groups propagation engine parameters.
type EngineConfig struct {
	Steps           int     // number of integration steps
	Particles       int     // primaries injected at run start
	Workers         int     // parallel propagation workers (1 = serial)
	InjectionEnergy float64 // primary energy at injection
	GainFraction    float64 // fractional energy gain per acceleration event
	GainProbability float64 // per-step gain probability at the shock front
	DiffusionStep   float64 // RMS positional jitter per step
	AdvectionStep   float64 // downstream drift per step
}

// Engine advances candidates step by step and owns the active-candidate set.
// The engine performs no spatial transport beyond a 1D drift-and-jitter along
// the shock normal; it exists to drive the splitting module under a
// realistic acceleration workload.
type Engine struct {
	cfg     EngineConfig
	module  Module
	shock   *field.ObliqueShockField
	serials *SerialAllocator
	rngs    []*rand.Rand
	inject  *rand.Rand

	active []*Candidate
	step   int
}

// NewEngine validates the configuration and materializes one RNG stream per
// worker up front, so workers never share a rand source.
func NewEngine(cfg EngineConfig, module Module, shock *field.ObliqueShockField, serials *SerialAllocator, key RunKey) (*Engine, error) {
	if cfg.Particles < 1 {
		return nil, fmt.Errorf("%w: particles must be >= 1, got %d", ErrConfig, cfg.Particles)
	}
	if cfg.Steps < 0 {
		return nil, fmt.Errorf("%w: steps must be >= 0, got %d", ErrConfig, cfg.Steps)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.InjectionEnergy <= 0 {
		return nil, fmt.Errorf("%w: injection energy must be positive, got %g", ErrConfig, cfg.InjectionEnergy)
	}
	if cfg.GainProbability < 0 || cfg.GainProbability > 1 {
		return nil, fmt.Errorf("%w: gain probability must be in [0,1], got %g", ErrConfig, cfg.GainProbability)
	}
	if cfg.GainFraction < 0 {
		return nil, fmt.Errorf("%w: gain fraction must be >= 0, got %g", ErrConfig, cfg.GainFraction)
	}
	if cfg.DiffusionStep < 0 || cfg.AdvectionStep < 0 {
		return nil, fmt.Errorf("%w: step sizes must be >= 0", ErrConfig)
	}
	if module == nil {
		return nil, fmt.Errorf("%w: splitting module required", ErrConfig)
	}
	if shock == nil {
		return nil, fmt.Errorf("%w: shock field required", ErrConfig)
	}

	p := NewPartitionedRNG(key)
	rngs := make([]*rand.Rand, cfg.Workers)
	for w := range rngs {
		rngs[w] = p.ForSubsystem(SubsystemWorker(w))
	}
	return &Engine{
		cfg:     cfg,
		module:  module,
		shock:   shock,
		serials: serials,
		rngs:    rngs,
		inject:  p.ForSubsystem(SubsystemInjection),
	}, nil
}

// EngineConfig extracts the engine-level parameters from a scenario.
func (s *Scenario) EngineConfig() EngineConfig {
	return EngineConfig{
		Steps:           s.Steps,
		Particles:       s.Particles,
		Workers:         s.Workers,
		InjectionEnergy: s.InjectionEnergy,
		GainFraction:    s.Gain.Fraction,
		GainProbability: s.Gain.Probability,
		DiffusionStep:   s.DiffusionStep,
		AdvectionStep:   s.AdvectionStep,
	}
}

// NewEngineFromScenario wires allocator, splitting module, shock field, and
// engine from a loaded scenario.
func NewEngineFromScenario(sc *Scenario) (*Engine, error) {
	serials := NewSerialAllocator()
	splitting, err := NewSplittingFromConfig(sc.Splitting, serials)
	if err != nil {
		return nil, err
	}
	shock, err := field.NewObliqueShockField(sc.Shock.BxUp, sc.Shock.By, sc.Shock.Compression, sc.Shock.Width)
	if err != nil {
		return nil, err
	}
	return NewEngine(sc.EngineConfig(), splitting, shock, serials, NewRunKey(sc.Seed))
}

// InjectPrimaries creates the primary candidates at the injection energy,
// scattered around the shock front, each with weight 1 and a fresh serial.
func (e *Engine) InjectPrimaries() {
	for i := 0; i < e.cfg.Particles; i++ {
		pos := e.inject.NormFloat64() * e.shock.Width()
		c := NewCandidate(ParticleState{Energy: e.cfg.InjectionEnergy, Position: pos}, 1.0)
		c.SetSerialNumber(e.serials.Next())
		e.active = append(e.active, c)
	}
	logrus.Infof("injected %d primaries at E=%g", e.cfg.Particles, e.cfg.InjectionEnergy)
}

// Run injects primaries (if none are active yet) and advances the configured
// number of steps.
func (e *Engine) Run() error {
	if len(e.active) == 0 {
		e.InjectPrimaries()
	}
	for s := 0; s < e.cfg.Steps; s++ {
		if err := e.Step(); err != nil {
			return err
		}
	}
	logrus.Infof("run finished: %d steps, %d active candidates", e.step, len(e.active))
	return nil
}

// Step advances every active candidate once and absorbs spawned secondaries.
// Candidates are sharded across workers; the splitting module is shared
// (immutable configuration) and the serial allocator is atomic, so the only
// serialization point is absorbing secondaries after the workers join.
func (e *Engine) Step() error {
	n := len(e.active)
	if n == 0 {
		e.step++
		return nil
	}
	workers := e.cfg.Workers
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := min(lo+chunk, n)
		if lo >= hi {
			break
		}
		rng := e.rngs[w]
		batch := e.active[lo:hi]
		g.Go(func() error {
			for _, c := range batch {
				if err := e.advance(c, rng); err != nil {
					return err
				}
				e.module.Process(c)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// absorb spawned secondaries; only the n pre-existing candidates can
	// have spawned this step
	spawned := 0
	for i := 0; i < n; i++ {
		for _, s := range e.active[i].DrainSecondaries() {
			e.active = append(e.active, s)
			spawned++
		}
	}
	e.step++
	if spawned > 0 {
		logrus.Debugf("step %d: absorbed %d secondaries, active=%d", e.step, spawned, len(e.active))
	}
	return nil
}

// advance snapshots the previous state, drifts the candidate along the shock
// normal, and applies a stochastic energy gain localized at the shock front.
func (e *Engine) advance(c *Candidate, rng *rand.Rand) error {
	c.Previous = c.Current

	c.Current.Position += e.cfg.AdvectionStep + rng.NormFloat64()*e.cfg.DiffusionStep

	// gain probability follows the field gradient: the normalized tanh
	// profile is 1 upstream and 0 downstream, so 4*p*(1-p) peaks at x=0
	bx := e.shock.At(field.Vector3{X: c.Current.Position}).X
	up, down := e.shock.Upstream(), e.shock.Downstream()
	proximity := 0.0
	if up != down {
		norm := (bx - down) / (up - down)
		proximity = 4 * norm * (1 - norm)
	}
	if rng.Float64() < e.cfg.GainProbability*proximity {
		c.Current.Energy *= 1 + e.cfg.GainFraction
	}

	if math.IsNaN(c.Current.Energy) || math.IsInf(c.Current.Energy, 0) {
		return fmt.Errorf("candidate %d: non-finite energy at step %d", c.SerialNumber(), e.step)
	}
	return nil
}

// Active returns the engine-owned active candidate set.
// Callers MUST NOT append to or reslice it.
func (e *Engine) Active() []*Candidate {
	return e.active
}

// StepCount returns the number of completed steps.
func (e *Engine) StepCount() int {
	return e.step
}

// InjectedWeight returns the total statistical weight injected at run start.
func (e *Engine) InjectedWeight() float64 {
	return float64(e.cfg.Particles)
}
