// Builds the ordered energy-bin edge table consulted by the splitting module.
// Edges are fixed at construction; crossing one of them is what triggers a split.

package sim

import (
	"errors"
	"fmt"
	"math"
)

// ErrConfig marks construction-time configuration failures. All fallible
// factories in this package wrap it, so callers can errors.Is against it.
var ErrConfig = errors.New("invalid configuration")

// EnergyBinTable is an ordered sequence of strictly increasing bin-edge
// energies. Built once, immutable thereafter, safe to share across workers.
type EnergyBinTable struct {
	edges []float64
}

// NewEnergyBinTable builds nBins edges spanning [emin, emax).
//
// Linear spacing: edge[i] = emin + i*(emax-emin)/nBins.
// Log spacing:    edge[i] = emin * (emax/emin)^(i/(nBins-1)).
//
// Note the top edge is below emax for linear spacing and equal to emax for
// log spacing; the splitting module only ever compares against edges, so the
// asymmetry is harmless but callers should not assume edge[last] == emax.
func NewEnergyBinTable(emin, emax float64, nBins int, logScale bool) (EnergyBinTable, error) {
	if math.IsNaN(emin) || math.IsInf(emin, 0) || math.IsNaN(emax) || math.IsInf(emax, 0) {
		return EnergyBinTable{}, fmt.Errorf("%w: energy bounds must be finite, got Emin=%g Emax=%g", ErrConfig, emin, emax)
	}
	if emin < 0 {
		return EnergyBinTable{}, fmt.Errorf("%w: Emin must be non-negative, got %g", ErrConfig, emin)
	}
	if emin >= emax {
		return EnergyBinTable{}, fmt.Errorf("%w: Emin %g must be below Emax %g", ErrConfig, emin, emax)
	}
	if nBins < 2 {
		// log spacing divides by nBins-1; a one-edge table is degenerate either way
		return EnergyBinTable{}, fmt.Errorf("%w: need at least 2 energy bins, got %d", ErrConfig, nBins)
	}
	if logScale && emin == 0 {
		return EnergyBinTable{}, fmt.Errorf("%w: log-spaced bins require Emin > 0", ErrConfig)
	}

	edges := make([]float64, nBins)
	if logScale {
		ratio := emax / emin
		for i := range edges {
			edges[i] = emin * math.Pow(ratio, float64(i)/float64(nBins-1))
		}
	} else {
		dE := (emax - emin) / float64(nBins)
		for i := range edges {
			edges[i] = emin + float64(i)*dE
		}
	}
	return EnergyBinTable{edges: edges}, nil
}

// Edges returns the edge slice for iteration.
// The returned slice is the table's internal storage -- callers may read it
// but MUST NOT modify it.
func (t EnergyBinTable) Edges() []float64 {
	return t.edges
}

// Len returns the number of edges.
func (t EnergyBinTable) Len() int {
	return len(t.edges)
}

// Lowest returns the first (smallest) edge. Energies below it never split.
func (t EnergyBinTable) Lowest() float64 {
	return t.edges[0]
}

func (t EnergyBinTable) String() string {
	return fmt.Sprintf("EnergyBinTable(%d edges, [%g, %g])", len(t.edges), t.edges[0], t.edges[len(t.edges)-1])
}
