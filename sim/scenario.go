package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ShockSpec configures the oblique shock field profile.
type ShockSpec struct {
	BxUp        float64 `yaml:"bx_up"`
	By          float64 `yaml:"by"`
	Compression float64 `yaml:"compression"`
	Width       float64 `yaml:"width"`
}

// GainSpec configures the shock-localized acceleration model.
type GainSpec struct {
	Fraction    float64 `yaml:"fraction"`
	Probability float64 `yaml:"probability"`
}

// Scenario is the top-level run configuration.
// Loaded from YAML via LoadScenario(path).
type Scenario struct {
	Seed            int64           `yaml:"seed"`
	Steps           int             `yaml:"steps"`
	Particles       int             `yaml:"particles"`
	Workers         int             `yaml:"workers,omitempty"`
	InjectionEnergy float64         `yaml:"injection_energy"`
	DiffusionStep   float64         `yaml:"diffusion_step"`
	AdvectionStep   float64         `yaml:"advection_step,omitempty"`
	Gain            GainSpec        `yaml:"gain"`
	Shock           ShockSpec       `yaml:"shock"`
	Splitting       SplittingConfig `yaml:"splitting"`
}

// LoadScenario reads and parses a YAML scenario file. Unknown fields are
// rejected so typos fail loudly instead of silently running defaults.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	sc.ApplyDefaults()
	return &sc, nil
}

// ApplyDefaults fills zero-valued optional fields. Idempotent.
func (s *Scenario) ApplyDefaults() {
	if s.Workers == 0 {
		s.Workers = 1
	}
}

// Validate checks the engine-level fields. Splitting and shock parameters are
// validated by their own factories when the engine is constructed.
func (s *Scenario) Validate() error {
	if s.Particles < 1 {
		return fmt.Errorf("%w: particles must be >= 1, got %d", ErrConfig, s.Particles)
	}
	if s.Steps < 0 {
		return fmt.Errorf("%w: steps must be >= 0, got %d", ErrConfig, s.Steps)
	}
	if s.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrConfig, s.Workers)
	}
	if s.InjectionEnergy <= 0 {
		return fmt.Errorf("%w: injection_energy must be positive, got %g", ErrConfig, s.InjectionEnergy)
	}
	if s.Gain.Probability < 0 || s.Gain.Probability > 1 {
		return fmt.Errorf("%w: gain.probability must be in [0,1], got %g", ErrConfig, s.Gain.Probability)
	}
	if s.Gain.Fraction < 0 {
		return fmt.Errorf("%w: gain.fraction must be >= 0, got %g", ErrConfig, s.Gain.Fraction)
	}
	if s.DiffusionStep < 0 || s.AdvectionStep < 0 {
		return fmt.Errorf("%w: step sizes must be >= 0", ErrConfig)
	}
	return nil
}
