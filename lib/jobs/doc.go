// Package jobs is the small host runtime the collections are driven by: a parallel-for over a
// fixed pool of goroutines, each identified by a stable WorkerID in [0, workers).
//
// Collections never look up an implicit "current thread". Every operation that needs per-worker
// state takes the WorkerID explicitly, and the worker functions passed to ParallelFor and
// Schedule receive it as an argument:
//
//	err := jobs.ParallelFor(ctx, workers, len(items), 64, func(w jobs.WorkerID, start, end int) error {
//		for i := start; i < end; i++ {
//			writer.Add(w, items[i].Key, items[i].Value)
//		}
//		return nil
//	})
package jobs
