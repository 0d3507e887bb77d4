package testing

import (
	"context"
	"fmt"
	"testing"

	"github.com/ValentinKolb/ucoll/lib/alloc"
	"github.com/ValentinKolb/ucoll/lib/common"
	"github.com/ValentinKolb/ucoll/lib/hashtable"
	"github.com/ValentinKolb/ucoll/lib/jobs"
	"github.com/ValentinKolb/ucoll/lib/keyedmap"
	"github.com/ValentinKolb/ucoll/lib/multimap"
	"github.com/ValentinKolb/ucoll/lib/perfecthash"
	"github.com/ValentinKolb/ucoll/lib/workqueue"
)

// Scenario is a named benchmark workload
type Scenario struct {
	Name string
	Run  func(b *testing.B)
}

// RunScenarios runs every scenario as a sub-benchmark
func RunScenarios(b *testing.B, scenarios []Scenario) {
	for _, s := range scenarios {
		b.Run(s.Name, s.Run)
	}
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// release disposes the collection and resets arenas, whose budget is only reclaimed at once
func release(b *testing.B, c Collection, a alloc.Allocator) {
	if err := c.Dispose(); err != nil {
		b.Errorf("Dispose failed: %v", err)
	}
	if arena, ok := a.(*alloc.ArenaAllocator); ok {
		arena.Reset()
	}
}

func mustNoError(b *testing.B, err error) {
	if err != nil {
		b.Fatal(err)
	}
}

// --------------------------------------------------------------------------
// Multi map
// --------------------------------------------------------------------------

// MultiMapScenarios benchmarks single-threaded and parallel inserts and lookups
func MultiMapScenarios(cfg *common.Config, a alloc.Allocator) []Scenario {
	spread := max(cfg.KeySpread, 1)
	hcfg := hashtable.Config[int]{Workers: jobs.Workers(cfg.Workers)}

	return []Scenario{
		{Name: "add", Run: func(b *testing.B) {
			m, err := multimap.NewWithConfig[int, int](cfg.Capacity, a, hcfg)
			mustNoError(b, err)
			b.Cleanup(func() { release(b, m, a) })

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				m.Add(i%spread, i)
			}
		}},
		{Name: "parallel-writer", Run: func(b *testing.B) {
			m, err := multimap.NewWithConfig[int, int](b.N, a, hcfg)
			mustNoError(b, err)
			b.Cleanup(func() { release(b, m, a) })
			w := m.AsParallelWriter()

			b.ResetTimer()
			err = jobs.ParallelFor(context.Background(), hcfg.Workers, b.N, 256, func(worker jobs.WorkerID, start, end int) error {
				for i := start; i < end; i++ {
					if !w.TryAdd(worker, i%spread, i) {
						return fmt.Errorf("map full at insert %d", i)
					}
				}
				return nil
			})
			mustNoError(b, err)
		}},
		{Name: "fallback-writer", Run: func(b *testing.B) {
			// half of the inserts overflow and are drained afterwards
			m, err := multimap.NewWithConfig[int, int](b.N/2, a, hcfg)
			mustNoError(b, err)
			b.Cleanup(func() { release(b, m, a) })
			w := multimap.NewFallbackWriter(m)

			b.ResetTimer()
			err = jobs.ParallelFor(context.Background(), hcfg.Workers, b.N, 256, func(worker jobs.WorkerID, start, end int) error {
				for i := start; i < end; i++ {
					w.Add(worker, i%spread, i)
				}
				return nil
			})
			mustNoError(b, err)
			_, err = w.Finalize()
			mustNoError(b, err)
		}},
		{Name: "lookup", Run: func(b *testing.B) {
			m, err := multimap.NewWithConfig[int, int](spread*4, a, hcfg)
			mustNoError(b, err)
			b.Cleanup(func() { release(b, m, a) })
			for i := 0; i < spread*4; i++ {
				m.Add(i%spread, i)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				for _, it, ok := m.TryGetFirstValue(i % spread); ok; _, ok = m.TryGetNextValue(&it) {
				}
			}
		}},
	}
}

// --------------------------------------------------------------------------
// Work queue
// --------------------------------------------------------------------------

// QueueScenarios benchmarks fill and drain cycles of the work queue, one cycle per op
func QueueScenarios(cfg *common.Config, a alloc.Allocator) []Scenario {
	workers := jobs.Workers(cfg.Workers)
	capacity := max(cfg.QueueCapacity, 1)

	return []Scenario{
		{Name: "cycle", Run: func(b *testing.B) {
			q, err := workqueue.New[uint64](capacity, a)
			mustNoError(b, err)
			b.Cleanup(func() { release(b, q, a) })
			w, r := q.AsWriter(), q.AsReader()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				err := jobs.ParallelFor(context.Background(), workers, capacity, 256, func(_ jobs.WorkerID, start, end int) error {
					for j := start; j < end; j++ {
						if slot, id := w.TryAdd(); slot != nil {
							*slot = id
						}
					}
					return nil
				})
				mustNoError(b, err)
				err = jobs.Schedule(context.Background(), workers, func(context.Context, jobs.WorkerID) error {
					for slot := r.TryGetNext(); slot != nil; slot = r.TryGetNext() {
					}
					return nil
				})
				mustNoError(b, err)
				q.Update()
			}
		}},
		{Name: "try-add", Run: func(b *testing.B) {
			q, err := workqueue.New[int](max(b.N, capacity), a)
			mustNoError(b, err)
			b.Cleanup(func() { release(b, q, a) })
			w := q.AsWriter()

			b.SetParallelism(workers)
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					w.TryAddValue(1)
				}
			})
		}},
	}
}

// --------------------------------------------------------------------------
// Perfect hash
// --------------------------------------------------------------------------

// PerfectHashScenarios benchmarks construction and lookup over KeySpread dense keys
func PerfectHashScenarios(cfg *common.Config, a alloc.Allocator) []Scenario {
	spread := max(cfg.KeySpread, 1)
	keys := make([]int, spread)
	values := make([]int, spread)
	for i := range keys {
		keys[i] = i
		values[i] = i + 1
	}
	hasher := hashtable.IdentityHasher[int]()

	return []Scenario{
		{Name: "build", Run: func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				m, err := perfecthash.New(keys, values, 0, a, hasher)
				mustNoError(b, err)
				release(b, m, a)
			}
		}},
		{Name: "lookup", Run: func(b *testing.B) {
			m, err := perfecthash.New(keys, values, 0, a, hasher)
			mustNoError(b, err)
			b.Cleanup(func() { release(b, m, a) })

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				m.TryGetValue(i % spread)
			}
		}},
	}
}

// --------------------------------------------------------------------------
// Keyed maps
// --------------------------------------------------------------------------

// KeyedMapScenarios benchmarks adds to a keyed map and per-frame rebuilds of a partial one
func KeyedMapScenarios(cfg *common.Config, a alloc.Allocator) []Scenario {
	spread := max(cfg.KeySpread, 1)
	length := max(cfg.Capacity, 1)
	keys := make([]int, length)
	values := make([]int, length)
	for i := range keys {
		keys[i] = i % spread
		values[i] = i
	}

	return []Scenario{
		{Name: "add", Run: func(b *testing.B) {
			m, err := keyedmap.New[int, int](cfg.Capacity, spread, a)
			mustNoError(b, err)
			b.Cleanup(func() { release(b, m, a) })

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				m.Add(i%spread, i)
			}
		}},
		{Name: "partial-update", Run: func(b *testing.B) {
			m, err := keyedmap.NewPartial[int, int](spread, a)
			mustNoError(b, err)
			b.Cleanup(func() { release(b, m, a) })

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				mustNoError(b, m.Update(keys, values, length))
			}
		}},
		{Name: "lookup", Run: func(b *testing.B) {
			m, err := keyedmap.NewPartial[int, int](spread, a)
			mustNoError(b, err)
			b.Cleanup(func() { release(b, m, a) })
			mustNoError(b, m.Update(keys, values, length))

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				m.ContainsKey(i % spread)
			}
		}},
	}
}
