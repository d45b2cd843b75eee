// Implements weighted candidate splitting: when a candidate's energy crosses
// bin edges between two integration steps, the candidate is cloned into
// nSplit statistically weighted copies per crossing. Splitting multiplicity
// can be derived from an expected spectral index to compensate the per-decade
// depletion of an accelerated power-law spectrum.

package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Module processes one candidate per integration step. Implementations must
// be safe for concurrent calls on distinct candidates over shared immutable
// configuration.
type Module interface {
	Process(c Splittable)
}

// SplittingConfig selects one of the two construction forms. If SpectralIndex
// is non-zero the spectral-index form wins and the explicit-bin fields are
// ignored (except Emin, which both forms share).
type SplittingConfig struct {
	NSplit    int     `yaml:"nsplit"`
	Emin      float64 `yaml:"emin"`
	Emax      float64 `yaml:"emax"`
	NBins     int     `yaml:"nbins"`
	LogScale  bool    `yaml:"log_scale"`
	MinWeight float64 `yaml:"min_weight,omitempty"`

	SpectralIndex float64 `yaml:"spectral_index,omitempty"`
	DecadeFactor  int     `yaml:"decade_factor,omitempty"`
}

// Splitting clones candidates into nSplit weighted copies each time their
// energy crosses a bin edge. Configuration is immutable after construction,
// so one instance is shared safely across propagation workers; the only
// shared mutable state it touches is the SerialAllocator.
type Splitting struct {
	bins      EnergyBinTable
	nSplit    int
	minWeight float64
	serials   *SerialAllocator
}

var _ Module = (*Splitting)(nil)

// NewSplitting builds a splitting module over an explicit bin table.
// nSplit == 0 disables splitting entirely.
func NewSplitting(nSplit int, bins EnergyBinTable, serials *SerialAllocator) *Splitting {
	return &Splitting{
		bins:    bins,
		nSplit:  nSplit,
		serials: serials,
	}
}

// NewSplittingFromSpectralIndex derives the bin table and multiplicity from
// the expected power-law spectral index (passed as a positive magnitude):
//
//	Emax   = Emin * 10^decadeFactor
//	nBins  = decadeFactor + 1 (log spacing, one edge per decade)
//	nSplit = floor(10^(spectralIndex-1))
//
// A spectrum dN/dE ~ E^-s loses a factor 10^(s-1) of particles per decade in
// energy; splitting by that factor at each decade keeps bin populations
// statistically significant after acceleration.
func NewSplittingFromSpectralIndex(spectralIndex, emin float64, decadeFactor int, serials *SerialAllocator) (*Splitting, error) {
	if spectralIndex <= 0 {
		return nil, fmt.Errorf("%w: spectral index must be > 0, got %g", ErrConfig, spectralIndex)
	}
	if decadeFactor < 1 {
		return nil, fmt.Errorf("%w: decade factor must be >= 1, got %d", ErrConfig, decadeFactor)
	}
	emax := emin * math.Pow(10, float64(decadeFactor))
	bins, err := NewEnergyBinTable(emin, emax, decadeFactor+1, true)
	if err != nil {
		return nil, err
	}
	nSplit := int(math.Pow(10, spectralIndex-1))
	return NewSplitting(nSplit, bins, serials), nil
}

// NewSplittingFromConfig dispatches on the config form.
func NewSplittingFromConfig(cfg SplittingConfig, serials *SerialAllocator) (*Splitting, error) {
	if cfg.SpectralIndex != 0 {
		return NewSplittingFromSpectralIndex(cfg.SpectralIndex, cfg.Emin, cfg.DecadeFactor, serials)
	}
	if cfg.NSplit < 0 {
		return nil, fmt.Errorf("%w: nsplit must be >= 0, got %d", ErrConfig, cfg.NSplit)
	}
	if cfg.MinWeight < 0 {
		return nil, fmt.Errorf("%w: min_weight must be >= 0, got %g", ErrConfig, cfg.MinWeight)
	}
	bins, err := NewEnergyBinTable(cfg.Emin, cfg.Emax, cfg.NBins, cfg.LogScale)
	if err != nil {
		return nil, err
	}
	s := NewSplitting(cfg.NSplit, bins, serials)
	s.minWeight = cfg.MinWeight
	return s, nil
}

// NSplit returns the split multiplicity applied at each crossing.
func (s *Splitting) NSplit() int {
	return s.nSplit
}

// Bins returns the energy-bin table.
func (s *Splitting) Bins() EnergyBinTable {
	return s.bins
}

// MinWeight returns the weight floor below which candidates are not split.
// Zero means no floor.
func (s *Splitting) MinWeight() float64 {
	return s.minWeight
}

// Process detects bin crossings between the candidate's previous and current
// energy and applies one splitting event per crossed edge: the candidate's
// weight is multiplied by 1/nSplit and nSplit-1 clones are spawned, each with
// a fresh serial number and its previous energy snapped to the current energy
// so the same crossing is never resolved twice.
//
// Only energy-increasing crossings are evaluated; decelerating candidates
// never split. A candidate crossing k edges in one call ends with weight
// weight_before / nSplit^k and k*(nSplit-1) secondaries.
func (s *Splitting) Process(c Splittable) {
	currE := c.CurrentEnergy()
	prevE := c.PreviousEnergy()

	if c.Weight() <= s.minWeight {
		// minimal weight reached, no further splitting
		return
	}
	edges := s.bins.Edges()
	if len(edges) == 0 || currE < edges[0] || s.nSplit == 0 {
		return
	}
	for i := range edges {
		if prevE >= edges[i] {
			continue
		}
		// previous energy is in bin [i-1, i]
		if currE < edges[i] {
			// current energy in the same bin, no crossing
			return
		}
		// one splitting event per crossed edge, starting at edge i
		for j := i; j < len(edges); j++ {
			c.UpdateWeight(1 / float64(s.nSplit))

			for n := 1; n < s.nSplit; n++ {
				clone := c.Clone(false)
				clone.SetParent(c)
				clone.SetSerialNumber(s.serials.Next())
				// snap the clone's previous energy so the engine's next
				// invocation does not re-split it for this same crossing
				clone.SetPreviousEnergy(currE)
				c.AddSecondary(clone)
			}
			logrus.Debugf("split: candidate %d crossed edge %g, weight now %g", c.SerialNumber(), edges[j], c.Weight())

			if j < len(edges)-1 && currE < edges[j+1] {
				// reached the bin containing currE
				break
			}
		}
		// mark the crossing resolved on the original as well, so repeated
		// processing of an unchanged candidate stays a no-op
		c.SetPreviousEnergy(currE)
		return
	}
}
