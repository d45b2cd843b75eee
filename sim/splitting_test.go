package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSplitting builds a splitting module over an explicit bin table,
// failing the test on construction errors.
func newTestSplitting(t *testing.T, nSplit int, emin, emax float64, nBins int, logScale bool) (*Splitting, *SerialAllocator) {
	t.Helper()
	serials := NewSerialAllocator()
	bins, err := NewEnergyBinTable(emin, emax, nBins, logScale)
	require.NoError(t, err)
	return NewSplitting(nSplit, bins, serials), serials
}

// candidateAt returns a candidate with distinct previous and current energy.
func candidateAt(prevE, currE, weight float64) *Candidate {
	c := NewCandidate(ParticleState{Energy: prevE}, weight)
	c.Current.Energy = currE
	return c
}

func TestSplitting_SingleCrossing_ScenarioA(t *testing.T) {
	// GIVEN edges [1, 50.5] (linear, Emin=1, Emax=100, nBins=2) and nSplit=10
	s, _ := newTestSplitting(t, 10, 1, 100, 2, false)
	require.Equal(t, []float64{1, 50.5}, s.Bins().Edges())

	// WHEN a candidate steps from 0.5 to 50
	c := candidateAt(0.5, 50, 1.0)
	s.Process(c)

	// THEN exactly one crossing: weight * 0.1, nine clones
	assert.InDelta(t, 0.1, c.Weight(), 1e-12)
	assert.Len(t, c.Secondaries(), 9)
	for _, clone := range c.Secondaries() {
		assert.Same(t, c, clone.Parent())
		assert.InDelta(t, 0.1, clone.Weight(), 1e-12)
		// clone must not be re-split for this crossing
		assert.Equal(t, 50.0, clone.PreviousEnergy())
		assert.Equal(t, 50.0, clone.CurrentEnergy())
	}
}

func TestSplitting_SpectralIndexConstruction_ScenarioB(t *testing.T) {
	// GIVEN spectralIndex=2, Emin=1, decadeFactor=3
	s, err := NewSplittingFromSpectralIndex(2, 1, 3, NewSerialAllocator())
	require.NoError(t, err)

	// THEN Emax=1000, four log edges, nSplit=10
	assert.Equal(t, 10, s.NSplit())
	edges := s.Bins().Edges()
	require.Len(t, edges, 4)
	want := []float64{1, 10, 100, 1000}
	for i, e := range edges {
		assert.InDelta(t, want[i], e, 1e-9, "edge %d", i)
	}
}

func TestSplitting_BelowLowestEdge_ScenarioC(t *testing.T) {
	s, _ := newTestSplitting(t, 10, 1, 100, 2, false)

	c := candidateAt(0.1, 0.5, 1.0)
	s.Process(c)

	assert.Equal(t, 1.0, c.Weight())
	assert.Empty(t, c.Secondaries())
}

func TestSplitting_ZeroMultiplicity_ScenarioD(t *testing.T) {
	// nSplit=0 must be a no-op regardless of energies (guards the 1/nSplit update)
	s, _ := newTestSplitting(t, 0, 1, 100, 2, false)

	c := candidateAt(0.5, 90, 1.0)
	s.Process(c)

	assert.Equal(t, 1.0, c.Weight())
	assert.Empty(t, c.Secondaries())
}

func TestSplitting_SameBin_NoCrossing(t *testing.T) {
	s, _ := newTestSplitting(t, 10, 1, 1000, 4, true) // edges [1, 10, 100, 1000]

	c := candidateAt(20, 90, 1.0)
	s.Process(c)

	assert.Equal(t, 1.0, c.Weight())
	assert.Empty(t, c.Secondaries())
}

func TestSplitting_MultiCrossing_WeightAndCloneLaws(t *testing.T) {
	// GIVEN log edges [1, 10, 100, 1000] and nSplit=10
	s, _ := newTestSplitting(t, 10, 1, 1000, 4, true)

	// WHEN a candidate jumps across two edges (10 and 100) in one step
	c := candidateAt(5, 150, 1.0)
	s.Process(c)

	// THEN weight = 1/nSplit^k and k*(nSplit-1) clones
	assert.InDelta(t, 0.01, c.Weight(), 1e-12)
	assert.Len(t, c.Secondaries(), 18)

	// clones spawned at crossing m carry weight_before / nSplit^m
	clones := c.Secondaries()
	for _, clone := range clones[:9] {
		assert.InDelta(t, 0.1, clone.Weight(), 1e-12)
	}
	for _, clone := range clones[9:] {
		assert.InDelta(t, 0.01, clone.Weight(), 1e-12)
	}

	// splitting conserves total statistical weight
	total := c.Weight()
	for _, clone := range clones {
		total += clone.Weight()
	}
	assert.InDelta(t, 1.0, total, 1e-12)
}

func TestSplitting_CrossingAboveTopEdge(t *testing.T) {
	// previous energy in the last bin, current above the top edge: one event
	s, _ := newTestSplitting(t, 2, 1, 1000, 4, true)

	c := candidateAt(500, 5000, 1.0)
	s.Process(c)

	assert.InDelta(t, 0.5, c.Weight(), 1e-12)
	assert.Len(t, c.Secondaries(), 1)
}

func TestSplitting_PreviousAboveTopEdge_NoOp(t *testing.T) {
	s, _ := newTestSplitting(t, 2, 1, 1000, 4, true)

	c := candidateAt(2000, 5000, 1.0)
	s.Process(c)

	assert.Equal(t, 1.0, c.Weight())
	assert.Empty(t, c.Secondaries())
}

func TestSplitting_EnergyDecreasing_NeverSplits(t *testing.T) {
	// decelerating candidates never split, even across multiple edges
	s, _ := newTestSplitting(t, 10, 1, 1000, 4, true)

	c := candidateAt(150, 5, 1.0)
	s.Process(c)

	assert.Equal(t, 1.0, c.Weight())
	assert.Empty(t, c.Secondaries())
}

func TestSplitting_Idempotence(t *testing.T) {
	// GIVEN a candidate whose crossing has been resolved
	s, _ := newTestSplitting(t, 10, 1, 100, 2, false)
	c := candidateAt(0.5, 50, 1.0)
	s.Process(c)
	require.Len(t, c.Secondaries(), 9)
	weightAfterFirst := c.Weight()

	// WHEN Process runs again with unchanged current energy
	s.Process(c)

	// THEN no second splitting event occurs
	assert.Equal(t, weightAfterFirst, c.Weight())
	assert.Len(t, c.Secondaries(), 9)
}

func TestSplitting_MinWeightFloor(t *testing.T) {
	serials := NewSerialAllocator()
	cfg := SplittingConfig{NSplit: 10, Emin: 1, Emax: 100, NBins: 2, MinWeight: 0.5}
	s, err := NewSplittingFromConfig(cfg, serials)
	require.NoError(t, err)
	require.Equal(t, 0.5, s.MinWeight())

	// at or below the floor: no splitting
	c := candidateAt(0.5, 50, 0.5)
	s.Process(c)
	assert.Equal(t, 0.5, c.Weight())
	assert.Empty(t, c.Secondaries())

	// above the floor: splits normally
	c2 := candidateAt(0.5, 50, 1.0)
	s.Process(c2)
	assert.InDelta(t, 0.1, c2.Weight(), 1e-12)
	assert.Len(t, c2.Secondaries(), 9)
}

func TestSplitting_FreshSerialPerClone(t *testing.T) {
	s, serials := newTestSplitting(t, 10, 1, 1000, 4, true)
	serials.Reset(100)

	c := candidateAt(5, 150, 1.0)
	c.SetSerialNumber(7)
	s.Process(c)

	seen := map[uint64]bool{7: true}
	for _, clone := range c.Secondaries() {
		assert.False(t, seen[clone.SerialNumber()], "duplicate serial %d", clone.SerialNumber())
		seen[clone.SerialNumber()] = true
		assert.GreaterOrEqual(t, clone.SerialNumber(), uint64(100))
	}
	assert.Equal(t, uint64(118), serials.Next(), "18 clones consume 18 serials")
}

func TestSplitting_Determinism(t *testing.T) {
	// identical (prevE, currE, edges, nSplit) must yield identical clone
	// count and final weight
	run := func() (float64, int) {
		s, _ := newTestSplitting(t, 10, 1, 1000, 4, true)
		c := candidateAt(5, 150, 1.0)
		s.Process(c)
		return c.Weight(), len(c.Secondaries())
	}
	w1, n1 := run()
	w2, n2 := run()
	assert.Equal(t, w1, w2)
	assert.Equal(t, n1, n2)
}

func TestSplitting_CloneHasNoSecondaryHistory(t *testing.T) {
	// a clone spawned at the second crossing must not inherit the clones
	// the original accumulated at the first crossing
	s, _ := newTestSplitting(t, 2, 1, 1000, 4, true)

	c := candidateAt(5, 150, 1.0)
	s.Process(c)
	require.Len(t, c.Secondaries(), 2)

	for _, clone := range c.Secondaries() {
		assert.Empty(t, clone.Secondaries())
	}
}

func TestNewSplittingFromSpectralIndex_InvalidIndex(t *testing.T) {
	_, err := NewSplittingFromSpectralIndex(0, 1, 3, NewSerialAllocator())
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewSplittingFromSpectralIndex(-2, 1, 3, NewSerialAllocator())
	assert.ErrorIs(t, err, ErrConfig)
}

func TestNewSplittingFromSpectralIndex_InvalidDecades(t *testing.T) {
	_, err := NewSplittingFromSpectralIndex(2, 1, 0, NewSerialAllocator())
	assert.ErrorIs(t, err, ErrConfig)
}

func TestNewSplittingFromConfig_ExplicitForm(t *testing.T) {
	s, err := NewSplittingFromConfig(SplittingConfig{NSplit: 3, Emin: 1, Emax: 100, NBins: 5}, NewSerialAllocator())
	require.NoError(t, err)
	assert.Equal(t, 3, s.NSplit())
	assert.Equal(t, 5, s.Bins().Len())
	assert.Equal(t, 0.0, s.MinWeight())
}

func TestNewSplittingFromConfig_SpectralFormWins(t *testing.T) {
	cfg := SplittingConfig{NSplit: 3, Emin: 1, Emax: 9999, NBins: 7, SpectralIndex: 2, DecadeFactor: 3}
	s, err := NewSplittingFromConfig(cfg, NewSerialAllocator())
	require.NoError(t, err)
	assert.Equal(t, 10, s.NSplit())
	assert.Equal(t, 4, s.Bins().Len())
}

func TestNewSplittingFromConfig_Invalid(t *testing.T) {
	_, err := NewSplittingFromConfig(SplittingConfig{NSplit: -1, Emin: 1, Emax: 100, NBins: 2}, NewSerialAllocator())
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewSplittingFromConfig(SplittingConfig{NSplit: 2, Emin: 1, Emax: 100, NBins: 2, MinWeight: -0.1}, NewSerialAllocator())
	assert.ErrorIs(t, err, ErrConfig)
}
