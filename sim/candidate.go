// Defines the Candidate struct that models an individual particle trajectory
// in the simulation. Tracks current/previous transport state, statistical
// weight, provenance serial number, and spawned secondaries.

package sim

import (
	"fmt"
)

// ParticleState is a snapshot of a candidate's transport state at one
// integration step. Position is along the shock normal (1D), with the shock
// front at x = 0.
type ParticleState struct {
	Energy   float64
	Position float64
}

// Splittable is the capability set the splitting module requires from a
// candidate representation. The module consumes it; it never owns candidates
// or decides their lifetime -- that stays with the propagation engine.
type Splittable interface {
	CurrentEnergy() float64
	PreviousEnergy() float64
	SetPreviousEnergy(e float64)

	Weight() float64
	UpdateWeight(multiplier float64)

	// Clone returns a new, independent candidate carrying this candidate's
	// transport state. copyHistory=false must NOT duplicate the originator's
	// secondary list ("clone without history").
	Clone(copyHistory bool) Splittable

	// AddSecondary registers a spawned candidate on the originator,
	// signalling ownership transfer to the engine's active set.
	AddSecondary(s Splittable)
	SetParent(p Splittable)

	SerialNumber() uint64
	SetSerialNumber(id uint64)
}

// Candidate models a single particle trajectory and its place in the
// provenance tree. The engine owns every Candidate it injects or absorbs;
// parent links are non-owning back-references, secondaries are owned in
// insertion order until the engine drains them.
type Candidate struct {
	Current  ParticleState
	Previous ParticleState

	weight float64
	serial uint64

	parent      *Candidate
	secondaries []*Candidate
}

var _ Splittable = (*Candidate)(nil)

// NewCandidate creates a candidate with identical current and previous state.
// The caller assigns a serial number before handing it to the engine.
func NewCandidate(state ParticleState, weight float64) *Candidate {
	return &Candidate{
		Current:  state,
		Previous: state,
		weight:   weight,
	}
}

func (c *Candidate) CurrentEnergy() float64 {
	return c.Current.Energy
}

func (c *Candidate) PreviousEnergy() float64 {
	return c.Previous.Energy
}

func (c *Candidate) SetPreviousEnergy(e float64) {
	c.Previous.Energy = e
}

func (c *Candidate) Weight() float64 {
	return c.weight
}

// UpdateWeight applies a multiplicative weight update.
func (c *Candidate) UpdateWeight(multiplier float64) {
	c.weight *= multiplier
}

// Clone returns a new candidate with copies of the transport state, weight,
// and serial number. The clone has no parent link. With copyHistory=false the
// clone starts with an empty secondary list; with copyHistory=true the
// secondary subtree is cloned recursively, re-parented onto the clone.
func (c *Candidate) Clone(copyHistory bool) Splittable {
	clone := &Candidate{
		Current:  c.Current,
		Previous: c.Previous,
		weight:   c.weight,
		serial:   c.serial,
	}
	if copyHistory {
		clone.secondaries = make([]*Candidate, 0, len(c.secondaries))
		for _, s := range c.secondaries {
			sc := s.Clone(true).(*Candidate)
			sc.parent = clone
			clone.secondaries = append(clone.secondaries, sc)
		}
	}
	return clone
}

// AddSecondary appends s to the owned secondary list. The engine drains the
// list after each step via DrainSecondaries.
func (c *Candidate) AddSecondary(s Splittable) {
	sc, ok := s.(*Candidate)
	if !ok {
		panic(fmt.Sprintf("AddSecondary: mixed candidate implementations (%T)", s))
	}
	c.secondaries = append(c.secondaries, sc)
}

func (c *Candidate) SetParent(p Splittable) {
	c.parent, _ = p.(*Candidate)
}

// Parent returns the originating candidate, or nil for primaries.
func (c *Candidate) Parent() *Candidate {
	return c.parent
}

// Secondaries returns the owned secondary list for iteration.
// Callers MUST NOT append to or reslice it; the engine uses
// DrainSecondaries to take ownership.
func (c *Candidate) Secondaries() []*Candidate {
	return c.secondaries
}

// DrainSecondaries returns the spawned candidates and clears the list,
// transferring ownership to the caller (the engine's active set).
func (c *Candidate) DrainSecondaries() []*Candidate {
	out := c.secondaries
	c.secondaries = nil
	return out
}

func (c *Candidate) SerialNumber() uint64 {
	return c.serial
}

func (c *Candidate) SetSerialNumber(id uint64) {
	c.serial = id
}

// String returns a human-readable representation of a Candidate.
func (c *Candidate) String() string {
	return fmt.Sprintf("Candidate: (Serial: %d, E: %g, W: %g, Secondaries: %d)",
		c.serial, c.Current.Energy, c.weight, len(c.secondaries))
}
