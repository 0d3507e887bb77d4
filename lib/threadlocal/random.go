package threadlocal

import (
	"math/rand/v2"

	"github.com/ValentinKolb/ucoll/lib/alloc"
	"github.com/ValentinKolb/ucoll/lib/jobs"
	"github.com/ValentinKolb/ucoll/lib/util"
)

type randomState struct {
	pcg rand.PCG
	rng *rand.Rand
}

// RandomCache holds independent random number state per worker
type RandomCache struct {
	slots *Slots[randomState]
}

// NewRandomCache seeds every worker from seed. seed 0 draws a random seed.
func NewRandomCache(a alloc.Allocator, workers int, seed uint64) (*RandomCache, error) {
	slots, err := New[randomState](a, workers)
	if err != nil {
		return nil, err
	}
	if seed == 0 {
		seed = util.GenerateSeed()
	}
	slots.Each(func(w jobs.WorkerID, s *randomState) {
		s.pcg.Seed(seed, uint64(w)+1)
		s.rng = rand.New(&s.pcg)
	})
	return &RandomCache{slots: slots}, nil
}

// Rand returns the generator of the given worker
func (c *RandomCache) Rand(worker jobs.WorkerID) *rand.Rand {
	return c.slots.Get(worker).rng
}

// Uint64 draws from the generator of the given worker
func (c *RandomCache) Uint64(worker jobs.WorkerID) uint64 {
	return c.slots.Get(worker).pcg.Uint64()
}

// IntN draws from [0, n) using the generator of the given worker
func (c *RandomCache) IntN(worker jobs.WorkerID, n int) int {
	return c.Rand(worker).IntN(n)
}

// IsCreated reports whether the cache is usable
func (c *RandomCache) IsCreated() bool { return c != nil && c.slots.IsCreated() }

// Dispose releases the cache
func (c *RandomCache) Dispose() error {
	return c.slots.Dispose()
}
