// Package sim provides the core Monte Carlo variance-reduction engine for
// shock-sim.
//
// # Reading Guide
//
// Start with these three files to understand the splitting kernel:
//   - candidate.go: Candidate tree (current/previous state, weight, secondaries)
//     and the Splittable contract the splitting module consumes
//   - splitting.go: Bin-crossing detection and weighted cloning
//   - engine.go: The per-step loop that advances candidates and absorbs clones
//
// # Architecture
//
// A Splitting module is a pure function over immutable configuration (an
// EnergyBinTable and a split multiplicity). It mutates only the candidate it
// is handed: on an energy-bin crossing it divides the candidate's weight and
// spawns statistically weighted clones, registered as secondaries for the
// engine to absorb. The only shared mutable state is the SerialAllocator,
// an atomic counter that keeps provenance identifiers unique across workers.
//
// Field models live in the sim/field sub-package; the engine uses the
// oblique-shock profile only to localize where acceleration happens.
//
// # Key Interfaces
//
// The extension points are small interfaces:
//   - Module: process one candidate per integration step
//   - Splittable: the capability set a candidate must expose to be split
//   - field.Field: evaluate a magnetic field at a position
package sim
