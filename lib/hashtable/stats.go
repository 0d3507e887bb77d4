package hashtable

import (
	"fmt"

	"github.com/ValentinKolb/ucoll/lib/safety"
	"github.com/ValentinKolb/ucoll/lib/util"
)

// Stats describes the occupancy of a table
type Stats struct {
	Count          int `json:"count"`
	Capacity       int `json:"capacity"`
	BucketCapacity int `json:"bucket_capacity"`
	UsedBuckets    int `json:"used_buckets"`
	LongestChain   int `json:"longest_chain"`
	// Chains describes the chain lengths of the used buckets
	Chains util.DistributionStats `json:"chains"`
}

// LoadFactor returns entries per slot
func (s Stats) LoadFactor() float64 {
	if s.Capacity == 0 {
		return 0
	}
	return float64(s.Count) / float64(s.Capacity)
}

func (s Stats) String() string {
	return fmt.Sprintf("Stats{Count: %d, Capacity: %d, Buckets: %d/%d, LongestChain: %d, Quality: %.2f}",
		s.Count, s.Capacity, s.UsedBuckets, s.BucketCapacity, s.LongestChain, s.Chains.DistributionQuality)
}

// Stats walks every bucket chain
func (t *Table[K, V]) Stats() Stats {
	safety.AssertCreated(t.IsCreated(), component)
	s := Stats{
		Count:          t.Count(),
		Capacity:       t.Capacity(),
		BucketCapacity: t.BucketCapacity(),
	}
	chains := make([]int, 0, s.Count)
	for _, head := range t.buckets {
		n := 0
		for idx := head; idx >= 0; idx = t.next[idx] {
			n++
		}
		if n > 0 {
			chains = append(chains, n)
			s.LongestChain = max(s.LongestChain, n)
		}
	}
	s.UsedBuckets = len(chains)
	s.Chains = util.NewDistributionStats(chains)
	return s
}
