// Tracks end-of-run statistics over the candidate population:
// weighted energy spectrum, weight conservation, and log-energy moments.

package sim

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Metrics aggregates statistics about the final candidate population
// for reporting. Splitting conserves expected physical quantities, so
// TotalWeight should match the injected weight regardless of how many
// clones were spawned.
type Metrics struct {
	Candidates  int     // number of candidates in the tree (active set)
	TotalWeight float64 // sum of statistical weights
	PeakEnergy  float64 // highest candidate energy

	MeanLogEnergy float64 // weighted mean of log10(E)
	StdLogEnergy  float64 // weighted standard deviation of log10(E)

	SpectrumWeights []float64 // weighted counts per bin; bin i covers [edge[i], edge[i+1]), last bin open-ended
	BelowRange      float64   // weight carried by candidates below the lowest edge
}

// CollectMetrics computes population statistics over the candidate set,
// binned on the same edge table the splitting module uses.
func CollectMetrics(cands []*Candidate, bins EnergyBinTable) *Metrics {
	m := &Metrics{
		Candidates:      len(cands),
		SpectrumWeights: make([]float64, bins.Len()),
	}
	if len(cands) == 0 {
		return m
	}

	edges := bins.Edges()
	weights := make([]float64, 0, len(cands))
	logE := make([]float64, 0, len(cands))
	logW := make([]float64, 0, len(cands))

	for _, c := range cands {
		w := c.Weight()
		e := c.CurrentEnergy()
		weights = append(weights, w)
		if e > m.PeakEnergy {
			m.PeakEnergy = e
		}
		if e < edges[0] {
			m.BelowRange += w
		} else {
			// largest i with edges[i] <= e
			i := sort.SearchFloat64s(edges, e)
			if i == len(edges) || edges[i] > e {
				i--
			}
			m.SpectrumWeights[i] += w
		}
		if e > 0 {
			logE = append(logE, math.Log10(e))
			logW = append(logW, w)
		}
	}

	m.TotalWeight = floats.Sum(weights)
	if len(logE) > 1 {
		m.MeanLogEnergy, m.StdLogEnergy = stat.MeanStdDev(logE, logW)
	} else if len(logE) == 1 {
		m.MeanLogEnergy = logE[0]
	}
	return m
}

// Print displays aggregated metrics at the end of a run, including the
// weight-conservation check against the injected weight.
func (m *Metrics) Print(bins EnergyBinTable, injectedWeight float64) {
	fmt.Println("=== Run Metrics ===")
	fmt.Printf("Candidates           : %d\n", m.Candidates)
	fmt.Printf("Total Weight         : %.6g (injected %.6g)\n", m.TotalWeight, injectedWeight)
	fmt.Printf("Peak Energy          : %.4g\n", m.PeakEnergy)
	if m.Candidates > 0 {
		fmt.Printf("Mean log10(E)        : %.3f\n", m.MeanLogEnergy)
		fmt.Printf("Std log10(E)         : %.3f\n", m.StdLogEnergy)
	}
	edges := bins.Edges()
	if m.BelowRange > 0 {
		fmt.Printf("E < %-14.4g     : weight %.6g\n", edges[0], m.BelowRange)
	}
	for i, w := range m.SpectrumWeights {
		if w == 0 {
			continue
		}
		if i < len(edges)-1 {
			fmt.Printf("Bin [%.4g, %.4g)  : weight %.6g\n", edges[i], edges[i+1], w)
		} else {
			fmt.Printf("Bin [%.4g, inf)   : weight %.6g\n", edges[i], w)
		}
	}
}
