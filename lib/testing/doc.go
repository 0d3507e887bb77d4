// Package testing provides shared test suites and benchmark scenarios for the collections of
// ucoll.
//
// The package contains:
//   - lifecycle: a suite checking that a collection frees exactly the blocks it allocated,
//     on a heap allocator and on a bounded arena
//   - benchmarks: workloads for the parallel writers, the work queue, the perfect hash map and
//     the keyed maps, shared by the package benchmarks and the ucoll bench command
//
// Example usage:
//
//	factory := func(a alloc.Allocator) (testing.Collection, error) {
//		return multimap.New[int, int](16, a)
//	}
//	exercise := func(t *stdtesting.T, c testing.Collection) {
//		m := c.(*multimap.MultiHashMap[int, int])
//		for i := 0; i < 100; i++ {
//			m.Add(i, i)
//		}
//	}
//
//	testing.RunLifecycleTests(t, "MultiHashMap", factory, exercise)
package testing
