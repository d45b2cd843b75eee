package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// RunKey uniquely identifies a reproducible simulation run.
// Two runs with the same RunKey and identical scenario MUST produce
// bit-for-bit identical results.
type RunKey int64

// NewRunKey creates a RunKey from a seed value.
func NewRunKey(seed int64) RunKey {
	return RunKey(seed)
}

// SubsystemInjection is the RNG subsystem for primary injection.
const SubsystemInjection = "injection"

// SubsystemWorker returns the subsystem name for propagation worker N.
// Each worker draws from its own stream, so shard counts never alias streams.
func SubsystemWorker(id int) string {
	return fmt.Sprintf("worker_%d", id)
}

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
// Seeds derive as masterSeed XOR fnv1a64(subsystemName), so adding a consumer
// never perturbs another subsystem's stream.
//
// Thread-safety: NOT thread-safe. The engine materializes every worker stream
// before workers start; each *rand.Rand is then used by one goroutine only.
type PartitionedRNG struct {
	key        RunKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a RunKey.
func NewPartitionedRNG(key RunKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(int64(p.key) ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// Key returns the RunKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() RunKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
